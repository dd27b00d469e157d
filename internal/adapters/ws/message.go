package ws

import (
	"context"
	"encoding/json"

	"github.com/yellcord/realtime/internal/domain"
)

// handleSendMessage feeds the ingest pipeline. Success is persistence
// success; the new-message broadcast reaches the sender through the room
// fan-out like everyone else, so no direct reply is sent.
func (s *session) handleSendMessage(ctx context.Context, data []byte) {
	var p struct {
		Type    string        `json:"type"`
		RoomID  domain.RoomID `json:"roomId"`
		Content string        `json:"content"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		s.sendError(domain.ErrValidation)
		return
	}
	if _, err := s.ctl.ingest.Submit(ctx, s.uid, p.RoomID, p.Content); err != nil {
		s.sendError(err)
	}
}
