package core

import (
	"github.com/aretw0/introspection"
)

// SessionState exposes internal state for observability.
type SessionState struct {
	Template       string `json:"template"`
	Sections       int    `json:"sections"`
	Items          int    `json:"items"`
	Areas          int    `json:"areas"`
	ActiveAreaID   string `json:"active_area_id"`
	Answers        int    `json:"answers"`
	Dirty          bool   `json:"dirty"`
	WritePending   bool   `json:"write_pending"`
	DebounceMillis int64  `json:"debounce_ms"`
	StorageType    string `json:"storage_type"`
	LastError      string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Session) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	storageType := "storage"
	if comp, ok := s.storage.(introspection.Component); ok {
		storageType = comp.ComponentType()
	}

	answers := 0
	for _, a := range s.areas.areas {
		answers += len(a.Items)
	}

	st := SessionState{
		Template:       s.templates.CurrentName(),
		Sections:       len(s.schema),
		Items:          s.schema.ItemCount(),
		Areas:          len(s.areas.areas),
		ActiveAreaID:   s.areas.Active(),
		Answers:        answers,
		Dirty:          s.dirty,
		WritePending:   s.sched.Pending(),
		DebounceMillis: s.debounce.Milliseconds(),
		StorageType:    storageType,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Session) ComponentType() string {
	return "session"
}

var _ introspection.Introspectable = (*Session)(nil)
var _ introspection.Component = (*Session)(nil)
