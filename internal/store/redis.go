package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abelbrown/skydeck/internal/model"
)

const keyPrefix = "skydeck:"

// Redis stores each record as a JSON value and keeps sorted sets as
// indexes: per-owner sessions scored by updated_at, per-owner events by
// date, and one shared set of stargazing listings by date.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// OpenRedis connects to rawURL (redis://host:port/db) and pings it.
func OpenRedis(ctx context.Context, rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, keyPrefix), nil
}

// NewRedis wraps an existing client. prefix namespaces every key.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) sessionKey(id string) string { return r.prefix + "session:" + id }
func (r *Redis) sessionIndex(owner string) string { return r.prefix + "sessions:" + owner }
func (r *Redis) eventKey(id string) string { return r.prefix + "event:" + id }
func (r *Redis) eventIndex(owner string) string { return r.prefix + "events:" + owner }
func (r *Redis) profileKey(owner string) string { return r.prefix + "profile:" + owner }
func (r *Redis) stargazingKey(id string) string  { return r.prefix + "stargazing:" + id }
func (r *Redis) stargazingIndex() string         { return r.prefix + "stargazing" }

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func (r *Redis) putSession(ctx context.Context, cs model.ChatSession) error {
	data, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.sessionKey(cs.ID), data, 0)
		p.ZAdd(ctx, r.sessionIndex(cs.Owner), redis.Z{Score: score(cs.UpdatedAt), Member: cs.ID})
		return nil
	})
	return err
}

func (r *Redis) CreateSession(ctx context.Context, cs model.ChatSession) error {
	return r.putSession(ctx, cs)
}

func (r *Redis) GetSession(ctx context.Context, id string) (model.ChatSession, error) {
	var cs model.ChatSession
	if err := r.getJSON(ctx, r.sessionKey(id), &cs); err != nil {
		return model.ChatSession{}, err
	}
	return cs, nil
}

func (r *Redis) ListSessions(ctx context.Context, owner string) ([]model.ChatSession, error) {
	ids, err := r.client.ZRevRange(ctx, r.sessionIndex(owner), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(id)
	}
	return mgetJSON[model.ChatSession](ctx, r.client, keys)
}

func (r *Redis) UpdateSession(ctx context.Context, cs model.ChatSession) error {
	n, err := r.client.Exists(ctx, r.sessionKey(cs.ID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return r.putSession(ctx, cs)
}

func (r *Redis) DeleteSession(ctx context.Context, id string) error {
	cs, err := r.GetSession(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.sessionKey(id))
		p.ZRem(ctx, r.sessionIndex(cs.Owner), id)
		return nil
	})
	return err
}

func (r *Redis) SaveEvent(ctx context.Context, e model.SavedEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.eventKey(e.ID), data, 0)
		p.ZAdd(ctx, r.eventIndex(e.Owner), redis.Z{Score: score(e.Date), Member: e.ID})
		return nil
	})
	return err
}

func (r *Redis) ListEvents(ctx context.Context, owner string) ([]model.SavedEvent, error) {
	ids, err := r.client.ZRange(ctx, r.eventIndex(owner), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.eventKey(id)
	}
	return mgetJSON[model.SavedEvent](ctx, r.client, keys)
}

func (r *Redis) DeleteEvent(ctx context.Context, owner, id string) error {
	removed, err := r.client.ZRem(ctx, r.eventIndex(owner), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return r.client.Del(ctx, r.eventKey(id)).Err()
}

func (r *Redis) GetProfile(ctx context.Context, owner string) (model.Profile, error) {
	var p model.Profile
	if err := r.getJSON(ctx, r.profileKey(owner), &p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func (r *Redis) UpsertProfile(ctx context.Context, p model.Profile) error {
	existing, err := r.GetProfile(ctx, p.Owner)
	switch {
	case err == nil:
		p.CreatedAt = existing.CreatedAt
		p.ID = existing.ID
	case !errors.Is(err, ErrNotFound):
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return r.client.Set(ctx, r.profileKey(p.Owner), data, 0).Err()
}

func (r *Redis) SaveStargazingEvent(ctx context.Context, e model.StargazingEvent) error {
	var existing model.StargazingEvent
	switch err := r.getJSON(ctx, r.stargazingKey(e.ID), &existing); {
	case err == nil:
		e.CreatedAt = existing.CreatedAt
	case !errors.Is(err, ErrNotFound):
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode stargazing event: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.stargazingKey(e.ID), data, 0)
		p.ZAdd(ctx, r.stargazingIndex(), redis.Z{Score: score(e.Date), Member: e.ID})
		return nil
	})
	return err
}

func (r *Redis) ListStargazingEvents(ctx context.Context, from time.Time, limit int) ([]model.StargazingEvent, error) {
	by := &redis.ZRangeBy{
		Min: strconv.FormatFloat(score(from), 'f', -1, 64),
		Max: "+inf",
	}
	if limit > 0 {
		by.Count = int64(limit)
	}
	ids, err := r.client.ZRangeByScore(ctx, r.stargazingIndex(), by).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.stargazingKey(id)
	}
	return mgetJSON[model.StargazingEvent](ctx, r.client, keys)
}

func (r *Redis) DeleteStargazingEvent(ctx context.Context, id string) error {
	removed, err := r.client.ZRem(ctx, r.stargazingIndex(), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	return r.client.Del(ctx, r.stargazingKey(id)).Err()
}

func (r *Redis) getJSON(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// mgetJSON loads keys in order, skipping index entries whose value is gone.
func mgetJSON[T any](ctx context.Context, client *redis.Client, keys []string) ([]T, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, item)
	}
	return out, nil
}
