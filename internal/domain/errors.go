package domain

import "errors"

// Failure taxonomy. Call-related failures force a tear-down to Idle; the
// rest leave state unchanged and only surface a user notice.
var (
	ErrPermissionDenied     = errors.New("media permission denied")
	ErrDeviceUnavailable    = errors.New("capture device unavailable")
	ErrNegotiationFailure   = errors.New("negotiation failure")
	ErrTransportUnavailable = errors.New("signaling transport unavailable")
	ErrUploadFailure        = errors.New("upload failure")
	ErrBusy                 = errors.New("another call is already active")
)
