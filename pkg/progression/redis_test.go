// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package progression

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates a miniredis instance for testing.
func setupTestRedis(t *testing.T) (*RedisStore, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, RedisStoreConfig{}), client, mr
}

func TestRedisStore_KeyNamespace(t *testing.T) {
	store, client, _ := setupTestRedis(t)
	ctx := context.Background()

	rec := sampleRecord("alice", "cat-A")
	if err := store.PutRecord(ctx, rec, VersionNew); err != nil {
		t.Fatalf("PutRecord() error = %v", err)
	}

	exists, err := client.Exists(ctx, "ranking:progress:cat-A:alice").Result()
	if err != nil {
		t.Fatalf("failed to check key: %v", err)
	}
	if exists != 1 {
		t.Error("record should be stored under ranking:progress:{category}:{player}")
	}
}

func TestRedisStore_KeyPrefixOverride(t *testing.T) {
	_, client, _ := setupTestRedis(t)
	store := NewRedisStore(client, RedisStoreConfig{KeyPrefix: "staging:"})
	ctx := context.Background()

	if err := store.PutRecord(ctx, sampleRecord("alice", "cat-A"), VersionNew); err != nil {
		t.Fatalf("PutRecord() error = %v", err)
	}

	exists, _ := client.Exists(ctx, "staging:progress:cat-A:alice").Result()
	if exists != 1 {
		t.Error("record should be stored under the overridden prefix")
	}
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	store, client, _ := setupTestRedis(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{
			name:   "payload is not JSON",
			fields: map[string]string{"version": "3", "data": "{not json"},
		},
		{
			name:   "missing data field",
			fields: map[string]string{"version": "3"},
		},
		{
			name:   "malformed version field",
			fields: map[string]string{"version": "three", "data": "{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "ranking:progress:cat-A:mallory"
			client.Del(ctx, key)
			for f, v := range tt.fields {
				if err := client.HSet(ctx, key, f, v).Err(); err != nil {
					t.Fatalf("failed to seed corrupt record: %v", err)
				}
			}

			_, err := store.GetRecord(ctx, "cat-A", "mallory")
			if !errors.Is(err, ErrCorruptRecord) {
				t.Errorf("GetRecord() error = %v, expected ErrCorruptRecord", err)
			}
		})
	}
}

func TestRedisStore_CorruptView(t *testing.T) {
	store, client, _ := setupTestRedis(t)
	ctx := context.Background()

	name := CategoryViewName("cat-A")
	if err := client.Set(ctx, "ranking:"+name, "][", 0).Err(); err != nil {
		t.Fatalf("failed to seed corrupt view: %v", err)
	}

	if _, err := store.GetView(ctx, name); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("GetView() error = %v, expected ErrCorruptRecord", err)
	}
}

func TestRedisStore_StoreUnavailable(t *testing.T) {
	store, _, mr := setupTestRedis(t)
	ctx := context.Background()

	mr.Close()

	if err := store.Ping(ctx); err == nil {
		t.Error("Ping() expected error after Redis went away")
	}
	if _, err := store.GetRecord(ctx, "cat-A", "alice"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord() error = %v, expected transport error, not ErrNotFound", err)
	}
}

func TestRedisStore_CASDoesNotMixPlayers(t *testing.T) {
	store, _, _ := setupTestRedis(t)
	ctx := context.Background()

	// Concurrent-looking writes to different keys never conflict.
	if err := store.PutRecord(ctx, sampleRecord("alice", "cat-A"), VersionNew); err != nil {
		t.Fatalf("PutRecord(alice) error = %v", err)
	}
	if err := store.PutRecord(ctx, sampleRecord("bob", "cat-A"), VersionNew); err != nil {
		t.Fatalf("PutRecord(bob) error = %v", err)
	}
	if err := store.PutRecord(ctx, sampleRecord("alice", "cat-B"), VersionNew); err != nil {
		t.Fatalf("PutRecord(alice, cat-B) error = %v", err)
	}
}
