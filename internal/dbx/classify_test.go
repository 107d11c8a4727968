package dbx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ogpblog/internal/common"
)

func TestClassify(t *testing.T) {
	pg := func(code string) error {
		return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code, Message: "server says " + code})
	}

	tests := []struct {
		name      string
		err       error
		kind      common.Kind
		retryable bool
	}{
		{"deadlock", pg("40P01"), common.KindConflict, true},
		{"serialization failure", pg("40001"), common.KindConflict, true},
		{"unique violation", pg("23505"), common.KindConflict, false},
		{"too many connections", pg("53300"), common.KindTransient, true},
		{"connection failure", pg("08006"), common.KindTransient, true},
		{"unable to connect", pg("08001"), common.KindTransient, true},
		{"admin shutdown", pg("57P01"), common.KindTransient, true},
		{"crash shutdown", pg("57P02"), common.KindTransient, true},
		{"cannot connect now", pg("57P03"), common.KindTransient, true},
		{"syntax error", pg("42601"), common.KindUnknown, false},
		{"check violation", pg("23514"), common.KindUnknown, false},
		{"no rows", sql.ErrNoRows, common.KindNotFound, false},
		{"bad conn", driver.ErrBadConn, common.KindTransient, true},
		{"conn done", sql.ErrConnDone, common.KindTransient, true},
		{"deadline", context.DeadlineExceeded, common.KindTransient, true},
		{"canceled", context.Canceled, common.KindUnknown, false},
		{"econnreset", fmt.Errorf("read: %w", syscall.ECONNRESET), common.KindTransient, true},
		{"econnrefused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, common.KindTransient, true},
		{"dns", &net.DNSError{Err: "no such host", Name: "db"}, common.KindTransient, true},
		{"plain", errors.New("something odd"), common.KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("posts.create", tt.err)
			require.Error(t, got)
			assert.Equal(t, tt.kind, common.KindOf(got))
			assert.Equal(t, tt.retryable, common.IsRetryable(got))
		})
	}
}

func TestClassify_NilAndAlreadyClassified(t *testing.T) {
	assert.NoError(t, Classify("op", nil))

	orig := common.Validation("posts.create", "title is required")
	got := Classify("tx.commit", fmt.Errorf("wrapped: %w", orig))

	var ce *common.Error
	require.True(t, errors.As(got, &ce))
	assert.Same(t, orig, ce)
}

func TestClassify_KeepsCause(t *testing.T) {
	cause := &pgconn.PgError{Code: "40P01"}
	got := Classify("tx.commit", cause)

	var pgErr *pgconn.PgError
	require.True(t, errors.As(got, &pgErr))
	assert.Equal(t, "40P01", pgErr.Code)
}
