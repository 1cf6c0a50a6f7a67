package core

import "context"

// Storage keys. They match the keys used by earlier releases so existing data
// keeps loading.
const (
	KeyState           = "facility-safety-checklist:v1"
	KeySchema          = "facility-safety-checklist:config"
	KeyTemplates       = "facility-safety-checklist:templates"
	KeyCurrentTemplate = "facility-safety-checklist:current-template"
)

// Storage defines the contract for the key-value backend.
// The core is agnostic to its durability; adapters decide how values are kept
// (memory, files, SQL, Redis).
type Storage interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Observer receives notifications about session activity (e.g. metrics).
type Observer interface {
	PersistenceWrite(key string, err error)
	AnswersDiscarded(n int)
	SchemaReplaced(trigger string)
}

type nopObserver struct{}

func (nopObserver) PersistenceWrite(string, error) {}
func (nopObserver) AnswersDiscarded(int)           {}
func (nopObserver) SchemaReplaced(string)          {}
