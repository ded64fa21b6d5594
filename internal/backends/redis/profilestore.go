package redis

import (
	"context"
	"easyprofile/internal/types"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	keyPrefix = "_easyprofile_"

	// hash of entry name -> JSON value, per (profileID, category)
	categoryKeyNameTemplate = keyPrefix + "cat_%s#%s"

	// set of stored category names, per profileID
	indexKeyNameTemplate = keyPrefix + "idx_%s"
)

// ProfileStore keeps one hash per (profile, category) plus a set listing the categories of
// each profile. Entry values are stored as JSON.
type ProfileStore struct {
	cli *redis.Client
}

func NewProfileStore(cli *redis.Client) *ProfileStore {
	return &ProfileStore{cli: cli}
}

func (s *ProfileStore) Load(ctx context.Context, profileID string) (types.Snapshot, error) {
	cats, err := s.cli.SMembers(ctx, getIndexKey(profileID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return types.Snapshot{}, err
	}
	if len(cats) == 0 {
		return types.Snapshot{}, types.ErrNotFound
	}
	snap := types.NewSnapshot(profileID)
	for _, cat := range cats {
		fields, err := s.cli.HGetAll(ctx, getCategoryKey(profileID, cat)).Result()
		if err != nil {
			return types.Snapshot{}, err
		}
		for name, raw := range fields {
			snap.Put(cat, name, json.RawMessage(raw))
		}
	}
	return snap, nil
}

func (s *ProfileStore) Save(ctx context.Context, snap types.Snapshot, categories []string) error {
	if categories == nil {
		for cat := range snap.Categories {
			categories = append(categories, cat)
		}
	}
	if len(categories) == 0 {
		return nil
	}
	_, err := s.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, cat := range categories {
			entries := snap.Categories[cat]
			if len(entries) == 0 {
				continue
			}
			fields := make(map[string]any, len(entries))
			for name, v := range entries {
				b, err := json.Marshal(v)
				if err != nil {
					return fmt.Errorf("encode %s.%s: %w", cat, name, err)
				}
				fields[name] = string(b)
			}
			pipe.HSet(ctx, getCategoryKey(snap.ProfileID, cat), fields)
			pipe.SAdd(ctx, getIndexKey(snap.ProfileID), cat)
		}
		return nil
	})
	return err
}

func (s *ProfileStore) Delete(ctx context.Context, profileID string) error {
	cats, err := s.cli.SMembers(ctx, getIndexKey(profileID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(cats)+1)
	for _, cat := range cats {
		keys = append(keys, getCategoryKey(profileID, cat))
	}
	keys = append(keys, getIndexKey(profileID))
	return s.cli.Del(ctx, keys...).Err()
}

func (s *ProfileStore) ClearAll(ctx context.Context) error {
	out := s.cli.Keys(ctx, keyPrefix+"*")
	if out.Err() != nil {
		return out.Err()
	}
	keys := out.Val()
	if len(keys) == 0 {
		return nil
	}
	for _, key := range keys {
		if err := s.cli.Del(ctx, key).Err(); err != nil {
			log.WithError(err).WithField("key", key).Error("Failed to delete profile key")
		}
	}
	return nil
}

// ListProfiles returns the ids of every stored profile.
func (s *ProfileStore) ListProfiles(ctx context.Context) ([]string, error) {
	out := s.cli.Keys(ctx, getIndexKey("*"))
	if out.Err() != nil {
		return nil, out.Err()
	}
	prefix := getIndexKey("")
	ids := make([]string, 0, len(out.Val()))
	for _, k := range out.Val() {
		if id := strings.TrimPrefix(k, prefix); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func getCategoryKey(profileID, category string) string {
	return fmt.Sprintf(categoryKeyNameTemplate, profileID, category)
}

func getIndexKey(profileID string) string {
	return fmt.Sprintf(indexKeyNameTemplate, profileID)
}
