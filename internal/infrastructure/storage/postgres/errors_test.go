package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"stockerp/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "items_code_key"}, apperror.CodeConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperror.CodeConflict},
		{"deadlock", fmt.Errorf("update stock: %w", &pgconn.PgError{Code: "40P01"}), apperror.CodeConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, apperror.CodeValidation},
		{"app error passes through", apperror.NewInsufficientStock("i", "w", 5, 2), apperror.CodeInsufficientStock},
		{"unknown pg error", &pgconn.PgError{Code: "42P01"}, apperror.CodeInternal},
		{"plain error", errors.New("boom"), apperror.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.Kind(MapError(tt.err)))
		})
	}
}

func TestMapError_KeepsCause(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505"}
	err := MapError(cause)

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Nil(t, MapError(nil))
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/erp?sslmode=disable", MigrateURL("postgres://u:p@db:5432/erp?sslmode=disable"))
	assert.Equal(t, "pgx5://db/erp", MigrateURL("postgresql://db/erp"))
	assert.Equal(t, "pgx5://db/erp", MigrateURL("pgx5://db/erp"))
}

func TestEmbeddedMigrationsPaired(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if !assert.NoError(t, err) {
		return
	}
	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs)
}
