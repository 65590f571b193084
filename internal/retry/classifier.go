package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes whose every code is transient:
// 08 connection exception, 53 insufficient resources, 57 operator intervention.
var transientClasses = []string{"08", "53", "57"}

// Transient SQLSTATE codes outside those classes.
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

// Message fragments of transient failures that arrive without a typed error,
// including SQLite's busy and locked results.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"sqlite_locked",
}

// StoreErrorClassifier decides which existence-store failures to retry.
type StoreErrorClassifier struct{}

// NewStoreErrorClassifier creates a classifier for PostgreSQL and SQLite stores.
func NewStoreErrorClassifier() *StoreErrorClassifier {
	return &StoreErrorClassifier{}
}

// IsTransient reports whether err is worth retrying.
func (c *StoreErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLState(pgErr.Code)
	}

	if isNetworkError(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range transientMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func transientSQLState(code string) bool {
	for _, class := range transientClasses {
		if strings.HasPrefix(code, class) {
			return true
		}
	}
	return transientCodes[code]
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	if opErr.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
		if errors.Is(opErr.Err, errno) {
			return true
		}
	}
	return false
}
