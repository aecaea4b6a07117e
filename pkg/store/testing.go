package store

import (
	"context"
	"testing"
	"time"
)

// ContractTest defines a standard test suite that all store backends must pass
type ContractTest struct {
	// CreateStore creates a new instance of the backend to test
	CreateStore func(t *testing.T) Store

	// SecretName returns a name the backend accepts for a fresh secret.
	// The suite creates, updates and fetches under this name.
	SecretName func(t *testing.T) string

	// MetadataFor reports the metadata a secret currently carries, read
	// through the backend's test double. Required unless SkipMetadata is
	// set; the suite uses it to verify Update leaves create-time
	// metadata untouched.
	MetadataFor func(t *testing.T, name string) Metadata

	// SkipMetadata skips the metadata write-once check for backends
	// that report SupportsMetadata == false
	SkipMetadata bool

	// SkipConflict skips the duplicate-create check for backends whose
	// native write is an upsert (Azure Key Vault, OS keyring) and which
	// therefore cannot observe a creation race
	SkipConflict bool
}

// RunContractTests runs the standard store contract test suite
func RunContractTests(t *testing.T, contract ContractTest) {
	t.Run("Contract", func(t *testing.T) {
		t.Run("Name", func(t *testing.T) {
			testStoreName(t, contract)
		})

		t.Run("ExistsBeforeCreate", func(t *testing.T) {
			testStoreExistsBeforeCreate(t, contract)
		})

		t.Run("CreateFetchUpdate", func(t *testing.T) {
			testStoreCreateFetchUpdate(t, contract)
		})

		t.Run("FetchNotFound", func(t *testing.T) {
			testStoreFetchNotFound(t, contract)
		})

		if !contract.SkipConflict {
			t.Run("CreateConflict", func(t *testing.T) {
				testStoreCreateConflict(t, contract)
			})
		}

		if !contract.SkipMetadata {
			t.Run("MetadataWriteOnce", func(t *testing.T) {
				testStoreMetadataWriteOnce(t, contract)
			})
		}

		t.Run("ContextCancellation", func(t *testing.T) {
			testStoreContextCancellation(t, contract)
		})
	})
}

func testValues(t *testing.T, pairs ...string) Values {
	t.Helper()
	values := NewValues()
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := values.Set(pairs[i], pairs[i+1]); err != nil {
			t.Fatalf("building test values: %v", err)
		}
	}
	return values
}

func testStoreName(t *testing.T, contract ContractTest) {
	s := contract.CreateStore(t)

	name := s.Name()
	if name == "" {
		t.Error("Store.Name() returned empty string")
	}

	// Verify name is consistent
	if name != s.Name() {
		t.Errorf("Store.Name() not consistent")
	}
}

func testStoreExistsBeforeCreate(t *testing.T, contract ContractTest) {
	s := contract.CreateStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, contract.SecretName(t))
	if err != nil {
		t.Fatalf("Store.Exists() failed: %v", err)
	}
	if ok {
		t.Error("Store.Exists() reported a fresh secret as present")
	}
}

func testStoreCreateFetchUpdate(t *testing.T, contract ContractTest) {
	s := contract.CreateStore(t)
	ctx := context.Background()
	name := contract.SecretName(t)

	initial := testValues(t, "API_KEY", "one")
	if err := s.Create(ctx, name, initial, Metadata{Description: "contract"}); err != nil {
		t.Fatalf("Store.Create() failed: %v", err)
	}

	got, err := s.Fetch(ctx, name)
	if err != nil {
		t.Fatalf("Store.Fetch() after create failed: %v", err)
	}
	if !got.Equal(initial) {
		t.Error("Store.Fetch() returned different values than created")
	}

	replaced := testValues(t, "API_KEY", "two")
	if err := s.Update(ctx, name, replaced); err != nil {
		t.Fatalf("Store.Update() failed: %v", err)
	}

	got, err = s.Fetch(ctx, name)
	if err != nil {
		t.Fatalf("Store.Fetch() after update failed: %v", err)
	}
	if !got.Equal(replaced) {
		t.Error("Store.Fetch() returned stale values after update")
	}
}

func testStoreFetchNotFound(t *testing.T, contract ContractTest) {
	s := contract.CreateStore(t)
	ctx := context.Background()

	_, err := s.Fetch(ctx, contract.SecretName(t))
	if err == nil {
		t.Fatal("Store.Fetch() on a missing secret did not fail")
	}
	if !IsNotFound(err) {
		t.Errorf("Store.Fetch() on a missing secret returned %T, want NotFoundError", err)
	}
}

func testStoreCreateConflict(t *testing.T, contract ContractTest) {
	s := contract.CreateStore(t)
	ctx := context.Background()
	name := contract.SecretName(t)

	values := testValues(t, "TOKEN", "x")
	if err := s.Create(ctx, name, values, Metadata{}); err != nil {
		t.Fatalf("Store.Create() failed: %v", err)
	}

	err := s.Create(ctx, name, values, Metadata{})
	if err == nil {
		t.Fatal("second Store.Create() for the same name did not fail")
	}
	if !IsConflict(err) {
		t.Errorf("second Store.Create() returned %T, want ConflictError", err)
	}
}

func testStoreMetadataWriteOnce(t *testing.T, contract ContractTest) {
	if contract.MetadataFor == nil {
		t.Fatal("ContractTest.MetadataFor must be set unless SkipMetadata is")
	}

	s := contract.CreateStore(t)
	ctx := context.Background()
	name := contract.SecretName(t)

	meta := Metadata{
		Description: "contract",
		Tags:        map[string]string{"team": "platform"},
	}
	if err := s.Create(ctx, name, testValues(t, "API_KEY", "one"), meta); err != nil {
		t.Fatalf("Store.Create() failed: %v", err)
	}
	if err := s.Update(ctx, name, testValues(t, "API_KEY", "two")); err != nil {
		t.Fatalf("Store.Update() failed: %v", err)
	}

	got := contract.MetadataFor(t, name)
	if got.Description != meta.Description {
		t.Errorf("description after update = %q, want %q", got.Description, meta.Description)
	}
	if got.Tags["team"] != "platform" {
		t.Errorf("tags after update = %v, want %v", got.Tags, meta.Tags)
	}
}

func testStoreContextCancellation(t *testing.T, contract ContractTest) {
	s := contract.CreateStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	if _, err := s.Exists(ctx, contract.SecretName(t)); err == nil {
		t.Error("Store.Exists() ignored a cancelled context")
	}
}
