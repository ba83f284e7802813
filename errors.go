package keyward

import (
	"errors"
	"fmt"
)

// Status is the numeric status code of the underlying secure-storage
// service. Zero means success; the non-zero values mirror the usual
// security-framework codes so they read familiarly in logs.
type Status int32

const (
	StatusSuccess               Status = 0
	StatusIO                    Status = -36
	StatusParam                 Status = -50
	StatusAuthFailed            Status = -25293
	StatusDuplicateItem         Status = -25299
	StatusItemNotFound          Status = -25300
	StatusInteractionNotAllowed Status = -25308
	StatusDecode                Status = -26275
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusIO:
		return "I/O error"
	case StatusParam:
		return "invalid parameter"
	case StatusAuthFailed:
		return "authentication failed"
	case StatusDuplicateItem:
		return "duplicate item"
	case StatusItemNotFound:
		return "item not found"
	case StatusInteractionNotAllowed:
		return "interaction not allowed"
	case StatusDecode:
		return "decode error"
	default:
		return fmt.Sprintf("status %d", int32(s))
	}
}

// Error taxonomy. Every failing operation returns a *Error wrapping one of
// these sentinels (plus the service's own error, when there is one).
var (
	ErrWrite                 = errors.New("keychain write failed")
	ErrRead                  = errors.New("keychain read failed")
	ErrRemove                = errors.New("keychain remove failed")
	ErrAccessControl         = errors.New("access control construction failed")
	ErrConvert               = errors.New("key conversion failed")
	ErrMissingRepresentation = errors.New("missing key representation")
	ErrParam                 = errors.New("invalid parameter")
	ErrCertificate           = errors.New("invalid certificate")
	ErrAuthFailed            = errors.New("authentication failed")
	ErrInteractionRequired   = errors.New("authentication interaction required")
)

// Error is a failed keychain operation: the operation name, the service
// status code and the underlying cause.
type Error struct {
	Op     string
	Status Status
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("keyward %s: %v", e.Op, e.Status)
	}
	return fmt.Sprintf("keyward %s (%v): %v", e.Op, e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op string, status Status, err error) *Error {
	return &Error{Op: op, Status: status, Err: err}
}
