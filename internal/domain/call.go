package domain

// CallState is the lifecycle phase of a call session. At most one non-Idle
// session exists per client at any time.
type CallState string

const (
	// CallIdle means no call attempt is in flight.
	CallIdle CallState = "idle"
	// CallCalling means an outbound attempt: media acquired, offer being built.
	CallCalling CallState = "calling"
	// CallRinging means the outbound offer is on the wire and the remote side
	// is being alerted.
	CallRinging CallState = "ringing"
	// CallIncoming means a remote offer is stored and the local user has not
	// answered yet.
	CallIncoming CallState = "incoming"
	// CallOngoing means offer/answer negotiation completed on this side.
	CallOngoing CallState = "ongoing"
	// CallEnding is the transient tear-down phase.
	CallEnding CallState = "ending"
)

// Active reports whether the state blocks starting or accepting another call.
func (s CallState) Active() bool {
	return s != CallIdle && s != CallEnding
}

// Caller identifies the remote user alerting us, as carried in the offer.
type Caller struct {
	ID        UserID `json:"id"`
	FirstName string `json:"firstName"`
}
