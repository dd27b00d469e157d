package app_test

import (
	"testing"

	"github.com/yellcord/realtime/internal/app"
)

func TestBroadcaster_Publish_DeliversOncePerJoinedSession(t *testing.T) {
	r := app.NewRegistry()
	bus := app.NewBroadcaster(r, nil)

	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	r.Register("sa", "ua", a, nil)
	r.Register("sb", "ub", b, nil)
	r.Register("sc", "uc", c, nil)
	r.JoinRoom("sa", "general")
	r.JoinRoom("sb", "general")
	r.JoinRoom("sc", "random")

	n := bus.Publish("general", map[string]string{"type": "new-message", "content": "hi"})
	if n != 2 {
		t.Errorf("Publish() = %d, want 2", n)
	}
	for name, conn := range map[string]*fakeConn{"a": a, "b": b} {
		events := conn.events(t)
		if len(events) != 1 {
			t.Fatalf("session %s got %d events, want 1", name, len(events))
		}
		if events[0]["content"] != "hi" {
			t.Errorf("session %s event = %v", name, events[0])
		}
	}
	if len(c.events(t)) != 0 {
		t.Error("session in another room received the event")
	}
}

func TestBroadcaster_PublishExcept_SkipsOriginator(t *testing.T) {
	r := app.NewRegistry()
	bus := app.NewBroadcaster(r, nil)

	a, b := &fakeConn{}, &fakeConn{}
	r.Register("sa", "ua", a, nil)
	r.Register("sb", "ub", b, nil)
	r.JoinRoom("sa", "general")
	r.JoinRoom("sb", "general")

	bus.PublishExcept("general", "sa", map[string]string{"type": "user-joined"})
	if len(a.events(t)) != 0 {
		t.Error("originator received its own broadcast")
	}
	if len(b.events(t)) != 1 {
		t.Error("peer did not receive broadcast")
	}
}

func TestBroadcaster_PublishToSession_Unknown(t *testing.T) {
	bus := app.NewBroadcaster(app.NewRegistry(), nil)
	if bus.PublishToSession("ghost", map[string]string{"type": "x"}) {
		t.Error("PublishToSession(unknown) = true, want false")
	}
}

func TestBroadcaster_PublishToUserInRoom(t *testing.T) {
	r := app.NewRegistry()
	bus := app.NewBroadcaster(r, nil)

	// Target has two devices in the room and one elsewhere.
	d1, d2, d3 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	r.Register("s1", "target", d1, nil)
	r.Register("s2", "target", d2, nil)
	r.Register("s3", "target", d3, nil)
	r.JoinRoom("s1", "general")
	r.JoinRoom("s2", "general")
	r.JoinRoom("s3", "random")

	n := bus.PublishToUserInRoom("general", "target", map[string]string{"type": "call-offer"})
	if n != 2 {
		t.Errorf("PublishToUserInRoom() = %d, want 2", n)
	}
	if len(d1.events(t)) != 1 || len(d2.events(t)) != 1 {
		t.Error("devices in room did not each receive one delivery")
	}
	if len(d3.events(t)) != 0 {
		t.Error("device outside the room received targeted delivery")
	}
}

func TestBroadcaster_SlowConsumerIsIsolated(t *testing.T) {
	r := app.NewRegistry()
	bus := app.NewBroadcaster(r, app.KickPolicy{})

	slowCanceled := false
	slow := &fakeConn{full: true}
	ok := &fakeConn{}
	r.Register("slow", "u1", slow, func() { slowCanceled = true })
	r.Register("ok", "u2", ok, nil)
	r.JoinRoom("slow", "general")
	r.JoinRoom("ok", "general")

	n := bus.Publish("general", map[string]string{"type": "new-message"})
	if n != 2 {
		t.Errorf("Publish() = %d, want 2 attempts despite the full queue", n)
	}
	if len(ok.events(t)) != 1 {
		t.Error("healthy session starved by slow consumer")
	}
	if !slowCanceled {
		t.Error("kick policy did not cancel the slow session")
	}
}
