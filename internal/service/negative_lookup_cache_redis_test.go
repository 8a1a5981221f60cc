package service

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRedisNegativeLookupCacheStoreRemembersUntilTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := startTestRedis(t)
	store := NewRedisNegativeLookupCacheStore(client, "neg_test")

	const token = "c0ffee-token"
	if hit, err := store.Get(ctx, unknownTokenNamespace, token); err != nil || hit {
		t.Fatalf("expected initial miss, hit=%v err=%v", hit, err)
	}
	if err := store.Set(ctx, unknownTokenNamespace, token, 2*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if hit, err := store.Get(ctx, unknownTokenNamespace, token); err != nil || !hit {
		t.Fatalf("expected hit after set, hit=%v err=%v", hit, err)
	}

	keys := mr.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "neg_test:negative:auth.token.unknown:") {
		t.Fatalf("unexpected redis keys %v", keys)
	}
	if strings.Contains(keys[0], token) {
		t.Fatalf("raw token leaked into redis key %q", keys[0])
	}

	mr.FastForward(3 * time.Second)
	if hit, err := store.Get(ctx, unknownTokenNamespace, token); err != nil || hit {
		t.Fatalf("expected miss after ttl, hit=%v err=%v", hit, err)
	}
}

func TestRedisNegativeLookupCacheStoreIgnoresNonPositiveTTL(t *testing.T) {
	mr, client := startTestRedis(t)
	store := NewRedisNegativeLookupCacheStore(client, "")
	if err := store.Set(context.Background(), unknownTokenNamespace, "tok", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected nothing stored for zero ttl, got %v", keys)
	}
}

func TestRedisNegativeLookupCacheStoreReportsConnectionErrors(t *testing.T) {
	mr, client := startTestRedis(t)
	store := NewRedisNegativeLookupCacheStore(client, "neg_test")
	mr.Close()

	if _, err := store.Get(context.Background(), unknownTokenNamespace, "k"); err == nil {
		t.Fatal("expected get error from closed redis")
	}
	if err := store.Set(context.Background(), unknownTokenNamespace, "k", time.Second); err == nil {
		t.Fatal("expected set error from closed redis")
	}
}

func TestNormalizeNamespace(t *testing.T) {
	cases := map[string]string{
		"":                  "default",
		"  Auth.Unknown  ":  "auth.unknown",
		"tok en/with:colon": "tok_en_with_colon",
	}
	for in, want := range cases {
		if got := normalizeNamespace(in); got != want {
			t.Fatalf("normalizeNamespace(%q)=%q want %q", in, got, want)
		}
	}
}
