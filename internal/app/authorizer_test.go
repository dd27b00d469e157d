package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/yellcord/realtime/internal/app"
)

func TestAuthorizer_IsMember(t *testing.T) {
	store := newFakeStore()
	store.addMember("u1", "general", false)
	authz := app.NewAuthorizer(store, 0)

	if !authz.IsMember(context.Background(), "u1", "general") {
		t.Error("IsMember() = false for a member")
	}
	if authz.IsMember(context.Background(), "u2", "general") {
		t.Error("IsMember() = true for a non-member")
	}
}

func TestAuthorizer_IsCreator(t *testing.T) {
	store := newFakeStore()
	store.addMember("owner", "general", true)
	store.addMember("member", "general", false)
	authz := app.NewAuthorizer(store, 0)

	if !authz.IsCreator(context.Background(), "owner", "general") {
		t.Error("IsCreator() = false for the creator")
	}
	if authz.IsCreator(context.Background(), "member", "general") {
		t.Error("IsCreator() = true for a plain member")
	}
}

func TestAuthorizer_FailsClosedAfterRetry(t *testing.T) {
	store := newFakeStore()
	store.addMember("u1", "general", false)
	store.membershipFails = 2
	authz := app.NewAuthorizer(store, 0)

	if authz.IsMember(context.Background(), "u1", "general") {
		t.Error("IsMember() = true while the store is down, want fail-closed deny")
	}
	if store.membershipCalls != 2 {
		t.Errorf("membership calls = %d, want exactly one retry (2 calls)", store.membershipCalls)
	}
}

func TestAuthorizer_RetryRecoversTransientFailure(t *testing.T) {
	store := newFakeStore()
	store.addMember("u1", "general", false)
	store.membershipFails = 1
	authz := app.NewAuthorizer(store, 0)

	if !authz.IsMember(context.Background(), "u1", "general") {
		t.Error("IsMember() = false after a single transient failure, want retry to recover")
	}
}

func TestAuthorizer_CacheServesWithinTTL(t *testing.T) {
	store := newFakeStore()
	store.addMember("u1", "general", false)
	authz := app.NewAuthorizer(store, time.Minute)

	authz.IsMember(context.Background(), "u1", "general")
	authz.IsMember(context.Background(), "u1", "general")
	if store.membershipCalls != 1 {
		t.Errorf("membership calls = %d, want 1 (second served from cache)", store.membershipCalls)
	}

	authz.Invalidate("u1", "general")
	authz.IsMember(context.Background(), "u1", "general")
	if store.membershipCalls != 2 {
		t.Errorf("membership calls = %d after Invalidate, want 2", store.membershipCalls)
	}
}

func TestAuthorizer_NegativeResultIsCachedToo(t *testing.T) {
	store := newFakeStore()
	authz := app.NewAuthorizer(store, time.Minute)

	authz.IsMember(context.Background(), "u1", "general")
	authz.IsMember(context.Background(), "u1", "general")
	if store.membershipCalls != 1 {
		t.Errorf("membership calls = %d, want 1", store.membershipCalls)
	}
}
