package snapshot

import "testing"

// NewTestStore creates a fresh in-memory snapshot store.
func NewTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test snapshot store: %v", err)
	}

	t.Cleanup(func() { s.Close() })

	return s
}
