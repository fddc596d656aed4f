package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/narrowsfm/podgraph/pkg/config"
)

// EpisodeTask is the payload pushed onto the episode work queue.
type EpisodeTask struct {
	EpisodeID  string    `json:"episode_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// RedisQueue is the episode work queue. Producers LPUSH tasks; workers
// block on BRPOP so the list behaves FIFO.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(cfg *config.Config) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisQueue{
		client: client,
		key:    cfg.Redis.Queue,
	}, nil
}

// Enqueue pushes an episode onto the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, episodeID string) error {
	task := EpisodeTask{
		EpisodeID:  episodeID,
		EnqueuedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("failed to enqueue episode %s: %w", episodeID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next task. Returns nil when the
// timeout elapses with nothing to do.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*EpisodeTask, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}
	// BRPOP returns [key, value]
	if len(res) < 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}

	var task EpisodeTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("malformed queue payload: %w", err)
	}
	return &task, nil
}

// Depth returns the number of pending tasks.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Close closes the underlying client.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
