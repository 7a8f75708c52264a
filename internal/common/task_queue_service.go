package common

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lodgeworks/staysync/internal/db/repositories"
	"lodgeworks/staysync/internal/logging"
	"lodgeworks/staysync/internal/models/entities"

	"github.com/redis/go-redis/v9"
)

const (
	taskWakeKey   = "staysync:tasks:wake"
	deadLetterKey = "staysync:tasks:deadletter"
)

// TaskQueueService wraps the durable task table with a Redis wake channel.
// The database row is the source of truth; the Redis push only shortens the
// poll latency for workers, so a Redis outage degrades to polling rather than
// losing tasks.
type TaskQueueService struct {
	tasks *repositories.TaskRepository
	redis *redis.Client
}

// NewTaskQueueService creates a new task queue service
func NewTaskQueueService(tasks *repositories.TaskRepository, redisClient *redis.Client) *TaskQueueService {
	return &TaskQueueService{tasks: tasks, redis: redisClient}
}

// Enqueue persists the task and signals a waiting worker. Delayed tasks
// (NextRunAt in the future) skip the wake signal; the poller picks them up
// once due.
func (s *TaskQueueService) Enqueue(ctx context.Context, task *entities.SyncTask) error {
	if err := s.tasks.Enqueue(ctx, task); err != nil {
		return err
	}

	if s.redis != nil && !task.NextRunAt.After(time.Now()) {
		if err := s.redis.LPush(ctx, taskWakeKey, task.ID).Err(); err != nil {
			logging.Warn("Task wake signal failed, worker will poll",
				"task_id", task.ID, "error", err.Error())
		}
	}
	return nil
}

// AwaitWake blocks up to timeout for an enqueue signal. Returns false on
// timeout or when Redis is unavailable.
func (s *TaskQueueService) AwaitWake(ctx context.Context, timeout time.Duration) bool {
	if s.redis == nil {
		return false
	}
	_, err := s.redis.BRPop(ctx, timeout, taskWakeKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logging.Warn("Task wake poll failed", "error", err.Error())
		}
		return false
	}
	return true
}

// PushDeadLetter records an exhausted task for operators to inspect.
func (s *TaskQueueService) PushDeadLetter(ctx context.Context, task *entities.SyncTask) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		logging.Error("Failed to encode dead-letter task", "task_id", task.ID, "error", err.Error())
		return
	}
	if err := s.redis.LPush(ctx, deadLetterKey, data).Err(); err != nil {
		logging.Error("Failed to push dead-letter task", "task_id", task.ID, "error", err.Error())
	}
}

// Depth reports how many tasks are waiting or due.
func (s *TaskQueueService) Depth(ctx context.Context) (int64, error) {
	return s.tasks.CountRunnable(ctx)
}
