package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/hamidrprogrammer/print-agent/internal/job"
)

// RedisStore implements Store on top of Redis. Each record is a hash whose
// key mirrors its logical path, and every write publishes the written path
// on the path's own channel and on its parent collection's channel. A
// producer writing a job and publishing the same way closes the
// notification loop without any polling.
type RedisStore struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewRedisStore creates a RedisStore over an established client.
func NewRedisStore(rdb *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		logger: logger,
	}
}

// keyFor maps a logical path onto the redis key space.
func keyFor(path string) string {
	return strings.ReplaceAll(path, "/", ":")
}

// Subscribe implements Store.
func (s *RedisStore) Subscribe(ctx context.Context, path string) (<-chan ChangeEvent, error) {
	ps := s.rdb.Subscribe(ctx, keyFor(path))

	// Force the subscription onto the wire before returning so no write
	// published after this call is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("%w: subscribe %s: %v", job.ErrStoreUnavailable, path, err)
	}

	out := make(chan ChangeEvent)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					s.logger.Warn("Store subscription channel closed",
						slog.String("path", path),
					)
					return
				}
				select {
				case out <- ChangeEvent{Path: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// ReadAll implements Store.
func (s *RedisStore) ReadAll(ctx context.Context, path string) (map[string]job.Record, error) {
	prefix := keyFor(path) + ":"
	jobs := make(map[string]job.Record)

	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := s.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", job.ErrStoreUnavailable, key, err)
		}
		if len(fields) == 0 {
			continue
		}
		id := key[strings.LastIndex(key, ":")+1:]
		jobs[id] = job.FromFields(id, fields)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", job.ErrStoreUnavailable, path, err)
	}

	return jobs, nil
}

// ReadFields implements Store.
func (s *RedisStore) ReadFields(ctx context.Context, path string) (map[string]string, error) {
	fields, err := s.rdb.HGetAll(ctx, keyFor(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", job.ErrStoreUnavailable, path, err)
	}
	return fields, nil
}

// WriteFields implements Store.
func (s *RedisStore) WriteFields(ctx context.Context, path string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	args := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		args[k] = v
	}

	if err := s.rdb.HSet(ctx, keyFor(path), args).Err(); err != nil {
		return fmt.Errorf("%w: write %s: %v", job.ErrStoreUnavailable, path, err)
	}

	channels := []string{keyFor(path)}
	if parent := ParentPath(path); parent != "" {
		channels = append(channels, keyFor(parent))
	}
	for _, ch := range channels {
		if err := s.rdb.Publish(ctx, ch, path).Err(); err != nil {
			// The write itself landed; a lost notification only delays the
			// next resnapshot.
			s.logger.Warn("Failed to publish change notification",
				slog.String("path", path),
				slog.String("channel", ch),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}
