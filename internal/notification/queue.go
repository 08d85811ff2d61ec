package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crackcu/portal-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// Job is one queued result notification.
type Job struct {
	To        model.CandidateStatus `json:"to"`
	Result    *model.GradedResult   `json:"result"`
	ExamTitle string                `json:"exam_title"`
	Attempt   int                   `json:"attempt"`
}

// Queue is a Redis list of notification jobs.
type Queue struct {
	rdb *redis.Client
	key string
}

func NewQueue(rdb *redis.Client, key string) *Queue {
	return &Queue{rdb: rdb, key: key}
}

func (q *Queue) Push(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return q.rdb.RPush(ctx, q.key, raw).Err()
}

// Pop blocks up to timeout for the next job. It returns (nil, nil) when the
// queue stayed empty.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*Job, error) {
	item, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(item) < 2 {
		return nil, nil
	}

	var job Job
	if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// Len reports how many jobs are waiting.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// QueueDispatcher hands results to the notification worker.
type QueueDispatcher struct {
	queue *Queue
}

func NewQueueDispatcher(queue *Queue) *QueueDispatcher {
	return &QueueDispatcher{queue: queue}
}

// SendResult enqueues a result mail. Candidates without an email address are
// skipped.
func (d *QueueDispatcher) SendResult(ctx context.Context, to model.CandidateStatus, result *model.GradedResult, examTitle string) error {
	if to.Email == "" {
		return ErrNoRecipient
	}
	return d.queue.Push(ctx, &Job{To: to, Result: result, ExamTitle: examTitle})
}
