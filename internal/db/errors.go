package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrConnection    = errors.New("db: connection failure")
)

// Op constants map to Redis command names for error context.
const (
	OpPing        = "PING"
	OpCreateIndex = "FT.CREATE"
	OpSearch      = "FT.SEARCH"
	OpDel         = "DEL"
	OpHGetAll     = "HGETALL"
	OpHSet        = "HSET"
	OpGet         = "GET"
	OpSet         = "SET"
	OpIncrBy      = "INCRBY"
	OpExpire      = "EXPIRE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Failure kinds reported by FailureKind.
const (
	FailureConnection   = "connection"
	FailureMissingIndex = "missing_index"
	FailureQuery        = "query"
)

// FailureKind classifies a search backend error for logs and metrics.
// Callers treat every kind the same way; the label only tells operators what broke.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIndexNotFound):
		return FailureMissingIndex
	case errors.Is(err, ErrConnection):
		return FailureConnection
	default:
		return FailureQuery
	}
}
