package repositories_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/db"
)

func newMockDatabase(t *testing.T) (*db.Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return &db.Database{DB: sqlx.NewDb(mockDB, "postgres")}, mock
}

var linkColumns = []string{"id", "generation_time", "hit_count", "purpose", "email"}
