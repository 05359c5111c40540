package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps one session's values in Redis and mirrors writes on a pub/sub channel
// so portal processes serving other views of the same session can react.
type RedisStore struct {
	client *redis.Client
	sid    string
	ttl    time.Duration
	origin string
}

type remoteEvent struct {
	Origin string `json:"origin"`
	Event
}

func NewRedisStore(client *redis.Client, sid string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, sid: sid, ttl: ttl, origin: uuid.NewString()}
}

func (s *RedisStore) valueKey(key string) string {
	return fmt.Sprintf("%s%s:%s", sessionKeyPrefix, s.sid, key)
}

func (s *RedisStore) channel() string {
	return sessionKeyPrefix + s.sid + ":events"
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	k := s.valueKey(key)
	v, err := s.client.Get(ctx, k).Result()
	if err == redis.Nil {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	// Sliding expiration.
	if s.ttl > 0 {
		s.client.Expire(ctx, k, s.ttl)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.valueKey(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return s.publish(ctx, Event{Key: key, Token: value, Reason: ReasonChanged})
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.valueKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return s.publish(ctx, Event{Key: key, Cleared: true, Reason: ReasonChanged})
}

func (s *RedisStore) publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(remoteEvent{Origin: s.origin, Event: ev})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel(), b).Err()
}

// Watch forwards writes made by other processes onto bus until ctx is done.
// Writes made through this store are skipped; its Manager already published them.
func (s *RedisStore) Watch(ctx context.Context, bus *Bus, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	sub := s.client.Subscribe(ctx, s.channel())
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel(), err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev remoteEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("session: dropping malformed event", zap.Error(err))
				continue
			}
			if ev.Origin == s.origin {
				continue
			}
			bus.Publish(ev.Event)
		}
	}
}
