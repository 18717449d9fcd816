// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/xiaot623/nexusdesk/internal/store"
)

// NewTestSQLiteStore opens an in-memory store for scope that is closed
// when the test ends.
func NewTestSQLiteStore(t *testing.T, scope string) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", scope)
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
