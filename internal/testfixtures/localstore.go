package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/clinic-portal/internal/persistence"
	"github.com/example/clinic-portal/internal/persistence/localstore"
)

// LocalStoreHarness provides repository access backed by a temporary SQLite
// file for integration-style persistence tests.
type LocalStoreHarness struct {
	Store        *localstore.Store
	Doctors      persistence.DoctorRepository
	Patients     persistence.PatientRepository
	Appointments persistence.AppointmentRepository
	Sessions     persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *LocalStoreHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewLocalStoreHarness constructs a harness over a migrated temporary store.
// A cleanup callback is registered with the provided testing.TB.
func NewLocalStoreHarness(tb testing.TB) *LocalStoreHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "portal.db")

	store, err := localstore.Open(path)
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate store: %v", err)
	}

	harness := &LocalStoreHarness{
		Store:        store,
		Doctors:      store,
		Patients:     store,
		Appointments: store,
		Sessions:     store,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
