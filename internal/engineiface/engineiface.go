// Package engineiface defines the capability seam the design calls for: an
// Engine interface any storage backend can satisfy, and a Kind-keyed
// factory for selecting one. It is grounded on original_source's
// EngineType enum (kvs/sled), which let kvs-server.rs bind to either its
// own log-structured engine or a third-party one by name.
package engineiface

import (
	stdErrors "errors"

	"github.com/emberkv/ember/pkg/ember"
	"github.com/emberkv/ember/pkg/options"
)

// Engine is the capability every storage backend behind the network front
// end and the CLI must provide.
type Engine interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Kind selects which Engine implementation Open binds to.
type Kind string

const (
	// NativeLog is this module's own log-structured store (pkg/ember).
	NativeLog Kind = "native-log"

	// ThirdParty names the seam original_source's "sled" binding occupied.
	// No third-party embedded-store dependency appears anywhere in the
	// retrieved corpus, so there is nothing real to bind it to; Open
	// returns ErrThirdPartyUnavailable for this Kind rather than
	// fabricating a dependency.
	ThirdParty Kind = "third-party"
)

// ErrThirdPartyUnavailable is returned by Open(ThirdParty, ...).
var ErrThirdPartyUnavailable = stdErrors.New("engineiface: no third-party engine binding is available")

// nativeLogEngine adapts *ember.DB to the Engine interface.
type nativeLogEngine struct {
	db *ember.DB
}

func (e *nativeLogEngine) Get(key string) (string, error) { return e.db.Get(key) }
func (e *nativeLogEngine) Set(key, value string) error    { return e.db.Set(key, value) }
func (e *nativeLogEngine) Remove(key string) error        { return e.db.Remove(key) }
func (e *nativeLogEngine) Close() error                   { return e.db.Close() }

// Open builds an Engine of the given kind.
func Open(kind Kind, service string, opts ...options.OptionFunc) (Engine, error) {
	switch kind {
	case NativeLog:
		db, err := ember.Open(service, opts...)
		if err != nil {
			return nil, err
		}
		return &nativeLogEngine{db: db}, nil
	case ThirdParty:
		return nil, ErrThirdPartyUnavailable
	default:
		return nil, stdErrors.New("engineiface: unknown engine kind " + string(kind))
	}
}
