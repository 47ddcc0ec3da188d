// Package identity mints durable identifiers for TNDS entities whose natural
// ids (journey pattern "PF1", vehicle journey "1") are only unique within the
// file that defines them.
package identity

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Namespace is the UUIDv5 namespace every identifier is derived in.
var Namespace = uuid.MustParse("6d1b8a4e-3f2c-5b7a-9e0d-2c4f6a8b0e1d")

const (
	TypeJourneyPattern = "JourneyPattern"
	TypeJourneyLink    = "JourneyLink"
	TypeJourney        = "Journey"
)

type triple struct {
	recordType string
	scope      string
	naturalID  string
}

// Resolver is an append-only registry scoped to one import run. Identifiers
// are name-based UUIDs of (type, scope, natural id), so the same triple maps
// to the same identifier in every run and on every worker.
type Resolver struct {
	mutex    sync.RWMutex
	registry map[triple]string
}

func NewResolver() *Resolver {
	return &Resolver{
		registry: map[triple]string{},
	}
}

// ID derives the identifier for a triple without registering it.
func ID(recordType string, scope string, naturalID string) string {
	return uuid.NewSHA1(Namespace, []byte(strings.Join([]string{recordType, scope, naturalID}, "\x00"))).String()
}

// Register records the triple and returns its identifier. Registering the
// same triple again returns the same identifier.
func (r *Resolver) Register(recordType string, scope string, naturalID string) string {
	key := triple{recordType, scope, naturalID}

	r.mutex.RLock()
	id, exists := r.registry[key]
	r.mutex.RUnlock()

	if exists {
		return id
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if id, exists := r.registry[key]; exists {
		return id
	}

	id = ID(recordType, scope, naturalID)
	r.registry[key] = id

	return id
}

// Lookup returns the identifier of a registered triple. Triples never
// registered in this run are not found.
func (r *Resolver) Lookup(recordType string, scope string, naturalID string) (string, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	id, exists := r.registry[triple{recordType, scope, naturalID}]

	return id, exists
}

// Len is the number of registered triples.
func (r *Resolver) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.registry)
}
