package errors

import "errors"

// Sentinel errors shared across the bridge. Match with errors.Is.
var (
	// ErrLocalIO marks staging failures. Fatal for the upload, never retried.
	ErrLocalIO = errors.New("local i/o error")

	// ErrRemoteUnavailable marks network or HTTP failures talking to the
	// ingestion API, during the startup health check or job submission.
	ErrRemoteUnavailable = errors.New("ingestion service unavailable")

	// ErrRemoteJobFailed marks a job the ingestion service explicitly
	// reported as failed or cancelled.
	ErrRemoteJobFailed = errors.New("ingestion job failed")

	// ErrUploadTimeout marks an upload whose job reached no terminal state
	// within the polling deadline.
	ErrUploadTimeout = errors.New("upload timed out")

	// Authentication errors. Distinguished for server-side logging only;
	// the remote peer always sees a generic login failure.
	ErrBadUser     = errors.New("unknown user")
	ErrBadPassword = errors.New("wrong password")

	// ErrNotSupported is returned for storage operations the write-only
	// namespace does not implement (get, delete, rename, mkdir).
	ErrNotSupported = errors.New("operation not supported")
)
