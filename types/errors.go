package types

import (
	"github.com/jmgilman/go/errors"
)

// Error codes produced by the cache subsystem. None of them ever reach a
// cache consumer: each is caught at the component that produced it and
// turned into a miss or a skipped asset.
const (
	// CodeStoreUnavailable means the durable store could not be opened.
	// The cache keeps running on the memory tier alone.
	CodeStoreUnavailable errors.ErrorCode = "STORE_UNAVAILABLE"

	// CodeFetchFailed means the origin answered with a non-2xx status or
	// the request never completed.
	CodeFetchFailed errors.ErrorCode = "FETCH_FAILED"

	// CodeDecodeFailed means the response body could not be read and
	// converted to base64 text.
	CodeDecodeFailed errors.ErrorCode = "DECODE_FAILED"
)

// StoreUnavailable wraps an open failure of the durable store.
func StoreUnavailable(err error, message string) error {
	return errors.WithClassification(
		errors.Wrap(err, CodeStoreUnavailable, message),
		errors.ClassificationPermanent,
	)
}

// FetchFailed wraps a transport failure for key.
func FetchFailed(err error, key string) error {
	return errors.WithContext(
		errors.Wrap(err, CodeFetchFailed, "fetch asset"),
		"key", key,
	)
}

// FetchStatus reports a non-success response for key.
func FetchStatus(key string, status int) error {
	err := errors.Newf(CodeFetchFailed, "fetch asset: unexpected status %d", status)
	return errors.WithContextMap(err, map[string]interface{}{
		"key":    key,
		"status": status,
	})
}

// DecodeFailed wraps a body read or encoding failure for key.
func DecodeFailed(err error, key string) error {
	return errors.WithContext(
		errors.Wrap(err, CodeDecodeFailed, "encode asset body"),
		"key", key,
	)
}

// IsStoreUnavailable reports whether err carries CodeStoreUnavailable.
func IsStoreUnavailable(err error) bool {
	return errors.GetCode(err) == CodeStoreUnavailable
}

// IsFetchFailed reports whether err carries CodeFetchFailed.
func IsFetchFailed(err error) bool {
	return errors.GetCode(err) == CodeFetchFailed
}

// IsDecodeFailed reports whether err carries CodeDecodeFailed.
func IsDecodeFailed(err error) bool {
	return errors.GetCode(err) == CodeDecodeFailed
}
