package eventstore

import (
	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = ferrors.InternalError("could not open build history database").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = ferrors.InternalError("failed to append build history event").Build()

	// ErrUnmarshalPayloadFailed indicates a stored payload could not be decoded.
	ErrUnmarshalPayloadFailed = ferrors.InternalError("failed to decode build history payload").Build()
)

// wrap attaches cause to a copy of sentinel so errors.Is still matches it.
func wrap(sentinel *ferrors.ClassifiedError, cause error) error {
	return ferrors.WrapError(cause, sentinel.Category(), sentinel.Message()).Build()
}
