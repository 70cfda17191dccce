package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/user-service/internal/models"
)

type cachedUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestCacheHelper_SetGet(t *testing.T) {
	ctx := context.Background()
	helper := NewCacheHelper(newTestRedis(t), "user:")

	want := cachedUser{ID: "u1", Name: "Alice"}
	if err := helper.Set(ctx, "id:u1", want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got cachedUser
	if err := helper.Get(ctx, "id:u1", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	var missing cachedUser
	if err := helper.Get(ctx, "id:nope", &missing); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get() for missing key error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	ctx := context.Background()
	helper := NewCacheHelper(newTestRedis(t), "user:")

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedUser{ID: "u2", Name: "Bob"}, nil
	}

	var first cachedUser
	if err := helper.CacheOrExecute(ctx, "id:u2", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}

	// The Set after a miss is async; give it a moment to land.
	time.Sleep(100 * time.Millisecond)

	var second cachedUser
	if err := helper.CacheOrExecute(ctx, "id:u2", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times after warm cache, want 1", calls)
	}
	if second.Name != "Bob" {
		t.Errorf("CacheOrExecute() = %+v", second)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	ctx := context.Background()
	helper := NewCacheHelper(newTestRedis(t), "user:")

	for _, key := range []string{"list:1", "list:2", "id:u3"} {
		if err := helper.Set(ctx, key, cachedUser{ID: key}, time.Minute); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("InvalidatePattern() error = %v", err)
	}

	var got cachedUser
	if err := helper.Get(ctx, "list:1", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Get() after invalidation error = %v, want ErrCacheNotFound", err)
	}
	if err := helper.Get(ctx, "id:u3", &got); err != nil {
		t.Errorf("Get() for untouched key error = %v", err)
	}
}

func TestCacheHelper_CachedUserOmitsCredentials(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	helper := NewCacheHelper(client, UserCacheConfig.Prefix)

	ticketHash := "reset-ticket-digest"
	expiry := time.Now().Add(time.Hour)
	fetched := &models.User{
		ID:             "u5",
		Name:           "Dora",
		Email:          "dora@example.com",
		PasswordHash:   "$2a$10$credential-hash",
		ResetTokenHash: &ticketHash,
		ResetExpiresAt: &expiry,
	}

	var first models.User
	err := helper.CacheOrExecute(ctx, "id:u5", &first, time.Minute, func() (interface{}, error) {
		return fetched, nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if first.Name != "Dora" || first.Email != "dora@example.com" {
		t.Errorf("CacheOrExecute() profile fields = %+v", first)
	}

	// The Set after a miss is async; give it a moment to land.
	time.Sleep(100 * time.Millisecond)

	raw, err := client.Get(ctx, helper.GetCacheKey("id:u5")).Result()
	if err != nil {
		t.Fatalf("raw cache read error = %v", err)
	}
	for _, secret := range []string{"credential-hash", "reset-ticket-digest"} {
		if strings.Contains(raw, secret) {
			t.Errorf("cached payload contains %q", secret)
		}
	}

	// A warm cache serves the same credential-free view; password checks must
	// read the store directly instead of this path.
	var second models.User
	err = helper.CacheOrExecute(ctx, "id:u5", &second, time.Minute, func() (interface{}, error) {
		t.Fatal("fetch called on warm cache")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute() on warm cache error = %v", err)
	}
	if second.PasswordHash != "" || second.ResetTokenHash != nil {
		t.Error("cached view carries credential material")
	}
	if second.Email != "dora@example.com" {
		t.Errorf("cached view email = %q", second.Email)
	}
}

func TestCacheHelper_NilClient(t *testing.T) {
	ctx := context.Background()
	helper := NewCacheHelper(nil, "user:")

	// Set degrades to a no-op; Get reports the cache as unavailable.
	if err := helper.Set(ctx, "id:u4", cachedUser{}, time.Minute); err != nil {
		t.Errorf("Set() with nil client error = %v, want nil", err)
	}
	var cached cachedUser
	if err := helper.Get(ctx, "id:u4", &cached); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() with nil client error = %v, want ErrCacheNotAvailable", err)
	}

	// CacheOrExecute must still serve the fetch result.
	var got cachedUser
	err := helper.CacheOrExecute(ctx, "id:u4", &got, time.Minute, func() (interface{}, error) {
		return &cachedUser{ID: "u4", Name: "Carol"}, nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute() with nil client error = %v", err)
	}
	if got.Name != "Carol" {
		t.Errorf("CacheOrExecute() = %+v", got)
	}
}
