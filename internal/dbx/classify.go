package dbx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/ogpblog/internal/common"
)

// SQLSTATE codes that a fresh attempt on a new connection can get past.
var transientCodes = map[string]struct{}{
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
}

// Classify wraps a driver error into a *common.Error whose Kind reflects the
// failure class. Errors that are already classified are returned as is, and
// nil stays nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var ce *common.Error
	if errors.As(err, &ce) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, common.ErrorNotFound) {
		return common.NotFound(op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.DeadlockDetected:
			return common.Conflict(op, "deadlock detected", err, true)
		case pgerrcode.SerializationFailure:
			return common.Conflict(op, "concurrent update, try again", err, true)
		case pgerrcode.UniqueViolation:
			return common.Conflict(op, "duplicate key", err, false)
		}
		if _, ok := transientCodes[pgErr.Code]; ok {
			return common.Transient(op, err)
		}
		return common.Unknown(op, err)
	}

	if isTransient(err) {
		return common.Transient(op, err)
	}

	return common.Unknown(op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	if pgconn.Timeout(err) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
