package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

func NewRedisClient(address, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

// RedisStore reads a JSON snapshot from key and reloads it whenever a
// message arrives on channel. Message payloads are ignored; the key is
// the source of truth.
type RedisStore struct {
	observers
	rdb     *redis.Client
	key     string
	channel string

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

func NewRedisStore(rdb *redis.Client, key, channel string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, channel: channel}
}

func (r *RedisStore) Snapshot(ctx context.Context) (model.Settings, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Settings{}, fmt.Errorf("%w: redis key %s: %w", ErrUnavailable, r.key, ErrNotFound)
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("%w: redis get %s: %v", ErrUnavailable, r.key, err)
	}
	return Decode(raw, JSON)
}

func (r *RedisStore) OnSettingsChanged(h Handler) func() {
	return r.add(h)
}

// Start subscribes to the change channel.
func (r *RedisStore) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubsub != nil {
		return nil
	}

	pubsub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.pubsub = pubsub
	r.done = make(chan struct{})
	go r.listen(pubsub.Channel(), r.done)

	log.Info().Str("channel", r.channel).Msg("subscribed to settings changes")
	return nil
}

func (r *RedisStore) listen(msgs <-chan *redis.Message, done chan struct{}) {
	for {
		select {
		case _, ok := <-msgs:
			if !ok {
				return
			}
			s, err := r.Snapshot(context.Background())
			if err != nil {
				log.Warn().Err(err).Str("key", r.key).Msg("settings reload failed")
				continue
			}
			r.notify(s)
		case <-done:
			return
		}
	}
}

func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.pubsub != nil {
		close(r.done)
		err = r.pubsub.Close()
		r.pubsub = nil
	}
	if cerr := r.rdb.Close(); err == nil {
		err = cerr
	}
	return err
}
