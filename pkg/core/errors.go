package core

import "errors"

// Error taxonomy of the bridge. Failures wrap one of these with %w, so callers
// classify them with errors.Is.
var (
	// ErrStorageUnavailable means the backend rejected a save or load, the
	// document could not be serialized, or the operation timed out.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedDocument means a document was read but could not be decoded
	// into a field mapping.
	ErrMalformedDocument = errors.New("malformed document")

	ErrUnknownMessage     = errors.New("unknown message")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrBridgeClosed       = errors.New("bridge is closed")
)

// ErrorKind is the wire-level classification of a failure.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindStorageUnavailable ErrorKind = "StorageUnavailable"
	KindMalformedDocument  ErrorKind = "MalformedDocument"
	KindProtocol           ErrorKind = "ProtocolError"
	KindUnknown            ErrorKind = "Unknown"
)

// KindOf classifies err. A nil error has KindNone.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorageUnavailable
	case errors.Is(err, ErrMalformedDocument):
		return KindMalformedDocument
	case errors.Is(err, ErrUnknownMessage), errors.Is(err, ErrUnsupportedVersion), errors.Is(err, ErrBridgeClosed):
		return KindProtocol
	default:
		return KindUnknown
	}
}
