package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type progressRepository struct {
	cl  *redis.Client
	key string // SET. Ids of items committed locally.
	log *slog.Logger
}

// NewProgressRepository keeps the completed id set in a redis SET under key.
func NewProgressRepository(cl *redis.Client, key string, log *slog.Logger) *progressRepository {
	return &progressRepository{
		cl:  cl,
		key: key,
		log: log.With(slog.String("item", "ProgressRepository")),
	}
}

// NewClient parses url, connects and pings.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cannot parse redis url: %w", err)
	}

	cl := redis.NewClient(opt)
	if _, err := cl.Ping(ctx).Result(); err != nil {
		cl.Close()

		return nil, fmt.Errorf("cannot ping redis: %w", err)
	}

	return cl, nil
}

func (r *progressRepository) Load(ctx context.Context) ([]string, error) {
	ids, err := r.cl.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get progress set %s: %w", r.key, err)
	}

	return ids, nil
}

// Save replaces the set in one MULTI/EXEC so readers never see a partial set.
func (r *progressRepository) Save(ctx context.Context, ids []string) error {
	_, err := r.cl.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(ids) > 0 {
			members := make([]any, len(ids))
			for i, id := range ids {
				members[i] = id
			}
			pipe.SAdd(ctx, r.key, members...)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot save progress set %s: %w", r.key, err)
	}

	return nil
}

func (r *progressRepository) Clear(ctx context.Context) error {
	if _, err := r.cl.Del(ctx, r.key).Result(); err != nil {
		return fmt.Errorf("cannot delete progress set %s: %w", r.key, err)
	}

	r.log.Info("Progress cleared", slog.String("key", r.key))

	return nil
}
