// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package progression

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// defaultKeyPrefix namespaces every key this store writes.
	defaultKeyPrefix = "ranking:"

	recordField  = "data"
	versionField = "version"
)

// casPut writes a record hash only when the stored version still matches
// the expected one. Running it as a server-side script makes the
// compare-and-swap atomic: no writer can slip between the version read and
// the write. ARGV[1] is the expected version ("0" means the key must not
// exist), ARGV[2] the new version, ARGV[3] the serialized record.
var casPut = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if ARGV[1] == '0' then
	if current then
		return 0
	end
else
	if not current or current ~= ARGV[1] then
		return 0
	end
end
redis.call('HSET', KEYS[1], 'version', ARGV[2])
redis.call('HSET', KEYS[1], 'data', ARGV[3])
return 1
`)

// RedisStore implements Store on Redis. Records live in hashes holding the
// version alongside the serialized payload so the CAS script never has to
// parse JSON; views are plain JSON values; player sets are Redis sets.
type RedisStore struct {
	client redis.UniversalClient
	cfg    RedisStoreConfig
}

type RedisStoreConfig struct {
	// KeyPrefix overrides the default key namespace. Useful when several
	// environments share one Redis.
	KeyPrefix string
}

// NewRedisStore creates a Redis-backed progression store.
func NewRedisStore(client redis.UniversalClient, cfg RedisStoreConfig) *RedisStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		cfg:    cfg,
	}
}

func (r *RedisStore) recordKey(category, player string) string {
	return fmt.Sprintf("%sprogress:%s:%s", r.cfg.KeyPrefix, category, player)
}

func (r *RedisStore) globalRecordKey(player string) string {
	return fmt.Sprintf("%sglobal:%s", r.cfg.KeyPrefix, player)
}

func (r *RedisStore) namedKey(name string) string {
	return r.cfg.KeyPrefix + name
}

// getHashRecord loads a record hash and decodes its payload into out.
func (r *RedisStore) getHashRecord(ctx context.Context, key string, out interface{}) (int64, error) {
	vals, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get record %s: %w", key, err)
	}
	if len(vals) == 0 {
		return 0, ErrNotFound
	}

	data, ok := vals[recordField]
	if !ok {
		logrus.Errorf("record %s has no data field", key)
		return 0, fmt.Errorf("record %s has no data field: %w", key, ErrCorruptRecord)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		logrus.Errorf("failed to unmarshal record %s: %v", key, err)
		return 0, fmt.Errorf("failed to unmarshal record %s: %w", key, ErrCorruptRecord)
	}

	version, err := strconv.ParseInt(vals[versionField], 10, 64)
	if err != nil {
		logrus.Errorf("record %s has malformed version %q", key, vals[versionField])
		return 0, fmt.Errorf("record %s has malformed version: %w", key, ErrCorruptRecord)
	}

	return version, nil
}

// putHashRecord runs the CAS script for a record hash.
func (r *RedisStore) putHashRecord(ctx context.Context, key string, rec interface{}, expectedVersion int64) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", key, err)
	}

	res, err := casPut.Run(ctx, r.client,
		[]string{key},
		strconv.FormatInt(expectedVersion, 10),
		strconv.FormatInt(expectedVersion+1, 10),
		string(data),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to put record %s: %w", key, err)
	}
	if res == 0 {
		logrus.Debugf("version conflict writing %s (expected version %d)", key, expectedVersion)
		return ErrVersionConflict
	}

	return nil
}

func (r *RedisStore) GetRecord(ctx context.Context, category, player string) (*PlayerCategoryRecord, error) {
	var rec PlayerCategoryRecord
	version, err := r.getHashRecord(ctx, r.recordKey(category, player), &rec)
	if err != nil {
		return nil, err
	}
	// The hash field is authoritative; it is what the CAS compares against.
	rec.Version = version
	return &rec, nil
}

func (r *RedisStore) PutRecord(ctx context.Context, rec *PlayerCategoryRecord, expectedVersion int64) error {
	rec.Version = expectedVersion + 1
	return r.putHashRecord(ctx, r.recordKey(rec.Category, rec.Player), rec, expectedVersion)
}

func (r *RedisStore) DeleteRecord(ctx context.Context, category, player string) error {
	if err := r.client.Del(ctx, r.recordKey(category, player)).Err(); err != nil {
		return fmt.Errorf("failed to delete record for %s/%s: %w", category, player, err)
	}
	return nil
}

func (r *RedisStore) GetGlobalRecord(ctx context.Context, player string) (*GlobalPlayerRecord, error) {
	var rec GlobalPlayerRecord
	version, err := r.getHashRecord(ctx, r.globalRecordKey(player), &rec)
	if err != nil {
		return nil, err
	}
	rec.Version = version
	return &rec, nil
}

func (r *RedisStore) PutGlobalRecord(ctx context.Context, rec *GlobalPlayerRecord, expectedVersion int64) error {
	rec.Version = expectedVersion + 1
	return r.putHashRecord(ctx, r.globalRecordKey(rec.Player), rec, expectedVersion)
}

func (r *RedisStore) DeleteGlobalRecord(ctx context.Context, player string) error {
	if err := r.client.Del(ctx, r.globalRecordKey(player)).Err(); err != nil {
		return fmt.Errorf("failed to delete global record for %s: %w", player, err)
	}
	return nil
}

func (r *RedisStore) GetView(ctx context.Context, name string) (*LeaderboardView, error) {
	key := r.namedKey(name)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get view %s: %w", name, err)
	}

	var view LeaderboardView
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		logrus.Errorf("failed to unmarshal view %s: %v", name, err)
		return nil, fmt.Errorf("failed to unmarshal view %s: %w", name, ErrCorruptRecord)
	}

	return &view, nil
}

func (r *RedisStore) PutView(ctx context.Context, name string, view *LeaderboardView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal view %s: %w", name, err)
	}

	if err := r.client.Set(ctx, r.namedKey(name), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to put view %s: %w", name, err)
	}

	logrus.Debugf("stored view %s with %d entries", name, len(view.Entries))
	return nil
}

func (r *RedisStore) DeleteView(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, r.namedKey(name)).Err(); err != nil {
		return fmt.Errorf("failed to delete view %s: %w", name, err)
	}
	return nil
}

func (r *RedisStore) AddToSet(ctx context.Context, set, member string) error {
	if err := r.client.SAdd(ctx, r.namedKey(set), member).Err(); err != nil {
		return fmt.Errorf("failed to add %s to set %s: %w", member, set, err)
	}
	return nil
}

func (r *RedisStore) RemoveFromSet(ctx context.Context, set, member string) error {
	if err := r.client.SRem(ctx, r.namedKey(set), member).Err(); err != nil {
		return fmt.Errorf("failed to remove %s from set %s: %w", member, set, err)
	}
	return nil
}

func (r *RedisStore) SetSize(ctx context.Context, set string) (int64, error) {
	n, err := r.client.SCard(ctx, r.namedKey(set)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get size of set %s: %w", set, err)
	}
	return n, nil
}

func (r *RedisStore) SetMembers(ctx context.Context, set string) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.namedKey(set)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get members of set %s: %w", set, err)
	}
	return members, nil
}

func (r *RedisStore) DeleteSet(ctx context.Context, set string) error {
	if err := r.client.Del(ctx, r.namedKey(set)).Err(); err != nil {
		return fmt.Errorf("failed to delete set %s: %w", set, err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if _, err := r.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
