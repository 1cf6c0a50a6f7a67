package core

import (
	"errors"
	"fmt"
)

// Lookup errors.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrAreaNotFound     = errors.New("area not found")
	ErrUnknownItem      = errors.New("item is not part of the active checklist")
	ErrInvalidStatus    = errors.New("invalid status")
)

// SchemaError reports a malformed or semantically invalid checklist document.
// Path locates the offending node (e.g. "[1].items[0]"); it is empty for
// document-level problems.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	return e.Message
}

func schemaErrorf(path, format string, args ...any) *SchemaError {
	return &SchemaError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// ProtectedTemplateError is returned when an operation would overwrite or
// delete the built-in template.
type ProtectedTemplateError struct {
	Name string
	Op   string
}

func (e *ProtectedTemplateError) Error() string {
	return fmt.Sprintf("template %q is protected: cannot %s it (save your edits under a new name)", e.Name, e.Op)
}

// DuplicateNameError is returned when a template name is blank or already taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	if e.Name == "" {
		return "template name must not be empty"
	}
	return fmt.Sprintf("template %q already exists", e.Name)
}

// LastAreaError is returned when removing the only remaining area.
type LastAreaError struct {
	AreaID string
}

func (e *LastAreaError) Error() string {
	return "cannot remove the last inspection area"
}

// PersistenceError wraps a storage backend failure.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
