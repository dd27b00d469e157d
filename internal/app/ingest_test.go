package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yellcord/realtime/internal/app"
	"github.com/yellcord/realtime/internal/domain"
)

type ingestFixture struct {
	store  *fakeStore
	ingest *app.Ingest
	connA  *fakeConn
	connB  *fakeConn
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	store := newFakeStore()
	store.addMember("userA", "general", false)
	store.addMember("userB", "general", false)
	store.profiles["userA"] = domain.Profile{ID: "userA", Username: "alice", AvatarURL: "http://cdn/a.png"}

	registry := app.NewRegistry()
	bus := app.NewBroadcaster(registry, nil)
	ingest := app.NewIngest(app.NewAuthorizer(store, 0), store, bus)

	f := &ingestFixture{store: store, ingest: ingest, connA: &fakeConn{}, connB: &fakeConn{}}
	registry.Register("sessA", "userA", f.connA, nil)
	registry.Register("sessB", "userB", f.connB, nil)
	registry.JoinRoom("sessA", "general")
	registry.JoinRoom("sessB", "general")
	return f
}

func TestIngest_Submit_PersistsThenBroadcasts(t *testing.T) {
	f := newIngestFixture(t)

	msg, err := f.ingest.Submit(context.Background(), "userA", "general", "hi")
	if err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if msg.Content != "hi" || msg.User.Username != "alice" {
		t.Errorf("message = %+v, want content and author snapshot", msg)
	}
	if len(f.store.inserted) != 1 {
		t.Fatalf("inserted %d rows, want 1", len(f.store.inserted))
	}

	// Both members, sender included, get exactly one new-message event.
	for name, conn := range map[string]*fakeConn{"sender": f.connA, "peer": f.connB} {
		got := conn.eventsOfType(t, "new-message")
		if len(got) != 1 {
			t.Fatalf("%s got %d new-message events, want 1", name, len(got))
		}
		if got[0]["content"] != "hi" {
			t.Errorf("%s event = %v", name, got[0])
		}
		if user, _ := got[0]["user"].(map[string]any); user["username"] != "alice" {
			t.Errorf("%s author snapshot = %v", name, got[0]["user"])
		}
	}
}

func TestIngest_Submit_Validation(t *testing.T) {
	f := newIngestFixture(t)
	tests := []struct {
		name    string
		roomID  domain.RoomID
		content string
	}{
		{"empty content", "general", ""},
		{"whitespace content", "general", "   "},
		{"missing room", "", "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.ingest.Submit(context.Background(), "userA", tt.roomID, tt.content); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Submit() = %v, want ErrValidation", err)
			}
		})
	}
	if len(f.store.inserted) != 0 {
		t.Error("invalid submissions were persisted")
	}
}

func TestIngest_Submit_NonMemberForbidden(t *testing.T) {
	f := newIngestFixture(t)

	if _, err := f.ingest.Submit(context.Background(), "intruder", "general", "hi"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Submit() = %v, want ErrForbidden", err)
	}
	if len(f.store.inserted) != 0 {
		t.Error("forbidden submission was persisted")
	}
	if len(f.connA.events(t)) != 0 || len(f.connB.events(t)) != 0 {
		t.Error("forbidden submission was broadcast")
	}
}

func TestIngest_Submit_PersistenceFailureNoBroadcast(t *testing.T) {
	f := newIngestFixture(t)
	f.store.insertErr = errors.New("insert failed")

	_, err := f.ingest.Submit(context.Background(), "userA", "general", "hi")
	if !errors.Is(err, domain.ErrDependency) {
		t.Fatalf("Submit() = %v, want ErrDependency", err)
	}
	if len(f.connA.events(t)) != 0 || len(f.connB.events(t)) != 0 {
		t.Error("broadcast happened despite persistence failure")
	}
}

func TestIngest_Submit_SurvivesCanceledSenderContext(t *testing.T) {
	f := newIngestFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // sender disconnected right after submitting

	if _, err := f.ingest.Submit(ctx, "userA", "general", "hi"); err != nil {
		t.Fatalf("Submit() = %v, want accepted message to outlive its sender", err)
	}
	if len(f.connB.eventsOfType(t, "new-message")) != 1 {
		t.Error("message was not broadcast after sender context cancel")
	}
}
