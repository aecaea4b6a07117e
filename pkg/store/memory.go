package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Store used for tests and the "memory" backend.
//
// It implements the full capability contract, records every mutating call,
// and can be configured to fail specific operations so engine behavior
// (retries, race handling, partial failure) can be exercised without a
// remote service.
//
// Example:
//
//	mem := store.NewMemory().
//	    WithSecret("app/env", values).
//	    FailWith("Update", "app/env", store.TransportError{Store: "memory", Op: "update"})
type Memory struct {
	secrets  map[string]Values
	metadata map[string]Metadata

	failOn map[string]error // "Op name" -> error
	calls  []MemoryCall

	mu sync.Mutex
}

// MemoryCall records one Store method invocation.
type MemoryCall struct {
	Op   string
	Name string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		secrets:  map[string]Values{},
		metadata: map[string]Metadata{},
		failOn:   map[string]error{},
	}
}

// WithSecret seeds a secret. Fluent, for test setup.
func (m *Memory) WithSecret(name string, values Values) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[name] = values
	return m
}

// FailWith makes the given operation on the given secret return err.
// The failure persists until cleared with FailWith(op, name, nil).
func (m *Memory) FailWith(op, name string, err error) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOn, op+" "+name)
	} else {
		m.failOn[op+" "+name] = err
	}
	return m
}

// Calls returns the recorded call sequence.
func (m *Memory) Calls() []MemoryCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MemoryCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many times op was invoked (any secret).
func (m *Memory) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// MetadataFor returns the metadata recorded at creation time.
func (m *Memory) MetadataFor(name string) (Metadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.metadata[name]
	return meta, ok
}

// Name implements Store.
func (m *Memory) Name() string { return "memory" }

// Capabilities implements Store.
func (m *Memory) Capabilities() Capabilities {
	return Capabilities{SupportsMetadata: true, RequiresAuth: false}
}

// Exists implements Store.
func (m *Memory) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MemoryCall{Op: "Exists", Name: name})
	if err := m.failOn["Exists "+name]; err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := m.secrets[name]
	return ok, nil
}

// Fetch implements Store.
func (m *Memory) Fetch(ctx context.Context, name string) (Values, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MemoryCall{Op: "Fetch", Name: name})
	if err := m.failOn["Fetch "+name]; err != nil {
		return Values{}, err
	}
	if err := ctx.Err(); err != nil {
		return Values{}, err
	}
	values, ok := m.secrets[name]
	if !ok {
		return Values{}, NotFoundError{Store: m.Name(), Name: name}
	}
	return values, nil
}

// Create implements Store.
func (m *Memory) Create(ctx context.Context, name string, values Values, meta Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MemoryCall{Op: "Create", Name: name})
	if err := m.failOn["Create "+name]; err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := m.secrets[name]; ok {
		return ConflictError{Store: m.Name(), Name: name}
	}
	m.secrets[name] = values
	m.metadata[name] = meta
	return nil
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, name string, values Values) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MemoryCall{Op: "Update", Name: name})
	if err := m.failOn["Update "+name]; err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := m.secrets[name]; !ok {
		return NotFoundError{Store: m.Name(), Name: name}
	}
	m.secrets[name] = values
	return nil
}

var _ Store = (*Memory)(nil)
