// Package codec converts commands to and from JSON so they can cross a
// process boundary (queues, HTTP).
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/garyjia/integration-kit/internal/domain/integration"
)

var (
	// ErrUnknownCommandType is returned when decoding a type with no registered decoder
	ErrUnknownCommandType = errors.New("unknown command type")

	// ErrInvalidPayload is returned when a payload cannot be decoded into its command
	ErrInvalidPayload = errors.New("invalid command payload")
)

type decodeFunc func(payload json.RawMessage) (integration.Command, error)

// Registry maps command types to the decoder of their concrete Go type
type Registry struct {
	mu       sync.RWMutex
	decoders map[integration.CommandType]decodeFunc
}

// NewRegistry creates an empty codec registry
func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[integration.CommandType]decodeFunc),
	}
}

// Register makes commands of type C decodable under commandType.
// A decoded command whose own tag differs from commandType is rejected.
func Register[C integration.Command](r *Registry, commandType integration.CommandType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.decoders[commandType] = func(payload json.RawMessage) (integration.Command, error) {
		var cmd C
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &cmd); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, commandType, err)
			}
		}
		if v := reflect.ValueOf(cmd); !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
			return nil, fmt.Errorf("%w: %s: empty payload", ErrInvalidPayload, commandType)
		}
		if got := cmd.CommandType(); got != commandType {
			return nil, fmt.Errorf("%w: decoded %s as %s", ErrInvalidPayload, commandType, got)
		}
		return cmd, nil
	}
}

// Encode marshals cmd into its JSON payload
func (r *Registry) Encode(cmd integration.Command) (json.RawMessage, error) {
	if !r.Has(cmd.CommandType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommandType, cmd.CommandType())
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command %s: %w", cmd.CommandType(), err)
	}
	return data, nil
}

// Decode rebuilds the command registered under commandType from payload
func (r *Registry) Decode(commandType integration.CommandType, payload json.RawMessage) (integration.Command, error) {
	r.mu.RLock()
	decode, ok := r.decoders[commandType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommandType, commandType)
	}
	return decode(payload)
}

// Has reports whether commandType can be decoded
func (r *Registry) Has(commandType integration.CommandType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.decoders[commandType]
	return ok
}

// Types returns the decodable command types in sorted order
func (r *Registry) Types() []integration.CommandType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]integration.CommandType, 0, len(r.decoders))
	for t := range r.decoders {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
