package app

import "github.com/yellcord/realtime/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropEvent
	KickSession
)

// Policy decides what happens to a session whose outbound queue rejected
// an event.
type Policy interface {
	OnBackpressure(sid core.SessionID) BackpressureAction
}

// KickPolicy drops the rejected event and closes the session, so the
// client reconnects and re-fetches room state instead of running on a
// silently gappy stream.
type KickPolicy struct{}

func (KickPolicy) OnBackpressure(sid core.SessionID) BackpressureAction {
	return KickSession
}
