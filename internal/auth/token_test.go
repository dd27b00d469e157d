package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yellcord/realtime/internal/auth"
	"github.com/yellcord/realtime/internal/domain"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := auth.NewVerifier("secret")
	token := v.Sign("user-1", time.Minute)

	uid, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() = %v", err)
	}
	if uid != "user-1" {
		t.Errorf("Verify() uid = %q, want user-1", uid)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v := auth.NewVerifier("secret")
	valid := v.Sign("user-1", time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered identity", strings.Replace(valid, "user-1", "user-2", 1)},
		{"wrong secret", auth.NewVerifier("other").Sign("user-1", time.Minute)},
		{"expired", v.Sign("user-1", -time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("Verify(%q) = %v, want ErrUnauthorized", tt.token, err)
			}
		})
	}
}
