package repositories

import (
	"context"
	"fmt"
	"time"

	"lodgeworks/staysync/internal/constants"
	"lodgeworks/staysync/internal/models/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TaskRepository persists the durable sync task queue. Tasks survive process
// restarts and are delivered at least once: a worker claims a task by flipping
// it to running, and only the claiming worker settles it.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const syncTasksSchema = `
CREATE TABLE IF NOT EXISTS sync_tasks (
	id           VARCHAR(36) PRIMARY KEY,
	kind         VARCHAR(40) NOT NULL,
	payload      TEXT NOT NULL,
	status       VARCHAR(20) NOT NULL,
	retry_count  INTEGER NOT NULL DEFAULT 0,
	max_retries  INTEGER NOT NULL,
	backoff_secs INTEGER NOT NULL,
	next_run_at  TIMESTAMP NOT NULL,
	last_error   TEXT,
	sync_log_id  BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL,
	processed_at TIMESTAMP
)`

// EnsureSchema creates the sync_tasks table when it does not exist yet.
func (r *TaskRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, syncTasksSchema); err != nil {
		return fmt.Errorf("failed to create sync_tasks table: %w", err)
	}
	return nil
}

// Enqueue inserts a task. NextRunAt in the future delays first delivery,
// which is how bootstrap retries and backoff waits are expressed.
func (r *TaskRepository) Enqueue(ctx context.Context, task *entities.SyncTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = constants.TaskStatusPending
	}
	now := time.Now()
	task.CreatedAt = now
	if task.NextRunAt.IsZero() {
		task.NextRunAt = now
	}

	const query = `
		INSERT INTO sync_tasks (id, kind, payload, status, retry_count, max_retries,
		                        backoff_secs, next_run_at, last_error, sync_log_id, created_at)
		VALUES (:id, :kind, :payload, :status, :retry_count, :max_retries,
		        :backoff_secs, :next_run_at, :last_error, :sync_log_id, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// ClaimDue atomically claims up to limit runnable tasks. A task is runnable
// when pending or retry and its next_run_at has passed. The compare-and-set
// update keeps two workers from claiming the same row.
func (r *TaskRepository) ClaimDue(ctx context.Context, limit int) ([]entities.SyncTask, error) {
	var ids []string
	selectQuery := r.db.Rebind(`
		SELECT id FROM sync_tasks
		WHERE status IN ('pending', 'retry') AND next_run_at <= ?
		ORDER BY next_run_at ASC
		LIMIT ?`)
	if err := r.db.SelectContext(ctx, &ids, selectQuery, time.Now(), limit); err != nil {
		return nil, fmt.Errorf("failed to select due tasks: %w", err)
	}

	claimQuery := r.db.Rebind(`
		UPDATE sync_tasks SET status = 'running'
		WHERE id = ? AND status IN ('pending', 'retry')`)
	getQuery := r.db.Rebind(`
		SELECT id, kind, payload, status, retry_count, max_retries, backoff_secs,
		       next_run_at, last_error, sync_log_id, created_at, processed_at
		FROM sync_tasks WHERE id = ?`)

	var claimed []entities.SyncTask
	for _, id := range ids {
		res, err := r.db.ExecContext(ctx, claimQuery, id)
		if err != nil {
			return claimed, fmt.Errorf("failed to claim task %s: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil || affected == 0 {
			// Another worker got there first.
			continue
		}
		var task entities.SyncTask
		if err := r.db.GetContext(ctx, &task, getQuery, id); err != nil {
			return claimed, fmt.Errorf("failed to load claimed task %s: %w", id, err)
		}
		task.Status = constants.TaskStatusRunning
		claimed = append(claimed, task)
	}
	return claimed, nil
}

// MarkCompleted settles a task after a successful run.
func (r *TaskRepository) MarkCompleted(ctx context.Context, id string) error {
	query := r.db.Rebind(`
		UPDATE sync_tasks SET status = 'completed', processed_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task completed: %w", err)
	}
	return nil
}

// MarkRetry re-queues a failed task with its next delivery delayed.
func (r *TaskRepository) MarkRetry(ctx context.Context, id string, errMsg string, nextRunAt time.Time) error {
	query := r.db.Rebind(`
		UPDATE sync_tasks
		SET status = 'retry', last_error = ?, next_run_at = ?, retry_count = retry_count + 1
		WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, errMsg, nextRunAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark task for retry: %w", err)
	}
	return nil
}

// MarkFailed settles a task whose retry budget is spent. It is never picked
// up again automatically.
func (r *TaskRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := r.db.Rebind(`
		UPDATE sync_tasks SET status = 'failed', last_error = ?, processed_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, query, errMsg, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task failed: %w", err)
	}
	return nil
}

// RequeueStale returns tasks stranded in running by a crashed process to
// pending. Called once at startup, before workers begin claiming.
func (r *TaskRepository) RequeueStale(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sync_tasks SET status = 'pending' WHERE status = 'running'`)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale tasks: %w", err)
	}
	return res.RowsAffected()
}

// CountRunnable reports how many tasks are waiting or due for delivery.
func (r *TaskRepository) CountRunnable(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM sync_tasks WHERE status IN ('pending', 'retry')`)
	if err != nil {
		return 0, fmt.Errorf("failed to count runnable tasks: %w", err)
	}
	return count, nil
}

// Get returns one task by id.
func (r *TaskRepository) Get(ctx context.Context, id string) (*entities.SyncTask, error) {
	query := r.db.Rebind(`
		SELECT id, kind, payload, status, retry_count, max_retries, backoff_secs,
		       next_run_at, last_error, sync_log_id, created_at, processed_at
		FROM sync_tasks WHERE id = ?`)
	var task entities.SyncTask
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", id, err)
	}
	return &task, nil
}
