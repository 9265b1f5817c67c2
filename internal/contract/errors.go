package contract

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ledger. Match them with errors.Is.
var (
	// ErrConflict means an identity upsert was rejected for a reason other than a duplicate key.
	ErrConflict = errors.New("conflict")

	// ErrReferentialViolation means a record references a row that does not exist.
	ErrReferentialViolation = errors.New("referential violation")

	// ErrEncoding means a line map could not be encoded or decoded losslessly.
	ErrEncoding = errors.New("encoding error")

	// ErrStorageUnavailable means the backend connection or transaction failed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound means a lookup matched nothing.
	ErrNotFound = errors.New("not found")
)

// RecordError ties an error kind to the natural key of the record that caused it.
type RecordError struct {
	Kind error
	Key  string
	Err  error
}

// NewRecordError builds a RecordError.
func NewRecordError(kind error, key string, err error) *RecordError {
	return &RecordError{Kind: kind, Key: key, Err: err}
}

func (e *RecordError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s [%s]", e.Kind, e.Key)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Key, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is matches the error kind as well as the wrapped cause.
func (e *RecordError) Is(target error) bool {
	return target == e.Kind
}

// ErrorKind returns the ledger error kind of err, or nil when it has none.
func ErrorKind(err error) error {
	for _, kind := range []error{ErrConflict, ErrReferentialViolation, ErrEncoding, ErrStorageUnavailable, ErrNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
