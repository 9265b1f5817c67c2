package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapStorageErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, contract.ErrConflict},
		{"mysql foreign key", &mysql.MySQLError{Number: 1452}, contract.ErrReferentialViolation},
		{"mysql not null", &mysql.MySQLError{Number: 1048}, contract.ErrConflict},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, contract.ErrStorageUnavailable},
		{"pg unique", &pgconn.PgError{Code: "23505"}, contract.ErrConflict},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, contract.ErrReferentialViolation},
		{"pg invalid text", &pgconn.PgError{Code: "22021"}, contract.ErrConflict},
		{"pg connection", &pgconn.PgError{Code: "08006"}, contract.ErrStorageUnavailable},
		{"plain", errors.New("boom"), contract.ErrStorageUnavailable},
		{"already kinded", contract.NewRecordError(contract.ErrEncoding, "k", nil), contract.ErrEncoding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapStorageErr("op", fmt.Errorf("exec: %w", tt.err))
			assert.ErrorIs(t, wrapped, tt.expected)
			assert.Equal(t, tt.expected, contract.ErrorKind(wrapped))
			assert.ErrorIs(t, wrapped, tt.err)
		})
	}

	assert.NoError(t, wrapStorageErr("op", nil))
	assert.Nil(t, contract.ErrorKind(wrapStorageErr("op", context.Canceled)))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&mysql.MySQLError{Number: 1213}))
	assert.True(t, isTransient(&mysql.MySQLError{Number: 1205}))
	assert.False(t, isTransient(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isTransient(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, isTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isTransient(errors.New("boom")))
}

func TestRecordErr(t *testing.T) {
	err := recordErr("write", "commit 1/abc", &mysql.MySQLError{Number: 1452})
	var recErr *contract.RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "commit 1/abc", recErr.Key)
	assert.ErrorIs(t, err, contract.ErrReferentialViolation)

	err = recordErr("write", "commit 1/abc", errors.New("connection reset"))
	assert.False(t, errors.As(err, &recErr))
	assert.ErrorIs(t, err, contract.ErrStorageUnavailable)
}

func TestWithRetry(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := &Store{logger: logger}

	oldBackoff := retryBackoff
	retryBackoff = time.Millisecond
	defer func() { retryBackoff = oldBackoff }()

	t.Run("transient then success", func(t *testing.T) {
		calls := 0
		err := s.withRetry(context.Background(), "op", func() error {
			calls++
			if calls < 3 {
				return &mysql.MySQLError{Number: 1213}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := s.withRetry(context.Background(), "op", func() error {
			calls++
			return &pgconn.PgError{Code: "40P01"}
		})
		assert.Error(t, err)
		assert.Equal(t, maxAttempts, calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		calls := 0
		err := s.withRetry(context.Background(), "op", func() error {
			calls++
			return &mysql.MySQLError{Number: 1062}
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := s.withRetry(ctx, "op", func() error {
			return &mysql.MySQLError{Number: 1205}
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
