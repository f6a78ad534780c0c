package testutil

import (
	"testing"

	"github.com/moneyflow-dev/moneyflow/internal/logger"
	"github.com/moneyflow-dev/moneyflow/internal/storage"
	"github.com/moneyflow-dev/moneyflow/internal/storage/sqlite"
)

func SetupTestStorage(t *testing.T, log *logger.Logger) storage.Storage {
	t.Helper()

	s, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err = s.ApplyMigrations(t.Context(), log); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := s.Close(); closeErr != nil {
			t.Errorf("Failed to close test storage: %v", closeErr)
		}
	})

	return s
}
