package worker

import (
	"context"
	"errors"
	"time"

	"github.com/crackcu/portal-backend/internal/notification"
	"github.com/rs/zerolog"
)

const NotifyPollTimeout = 1 * time.Second

// JobQueue is the list the worker consumes and requeues into.
type JobQueue interface {
	Pop(ctx context.Context, timeout time.Duration) (*notification.Job, error)
	Push(ctx context.Context, job *notification.Job) error
}

type NotificationWorker struct {
	queue       JobQueue
	mailer      notification.Mailer
	renderer    notification.Renderer
	maxAttempts int
	log         zerolog.Logger
}

func NewNotificationWorker(
	queue JobQueue,
	mailer notification.Mailer,
	renderer notification.Renderer,
	maxAttempts int,
	log zerolog.Logger,
) *NotificationWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &NotificationWorker{
		queue:       queue,
		mailer:      mailer,
		renderer:    renderer,
		maxAttempts: maxAttempts,
		log:         log.With().Str("component", "notification_worker").Logger(),
	}
}

// Start consumes the result mail queue until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("NotificationWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("NotificationWorker stopped")
			return
		default:
			job, err := w.queue.Pop(ctx, NotifyPollTimeout)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if job == nil {
				continue
			}
			w.process(ctx, job)
		}
	}
}

func (w *NotificationWorker) process(ctx context.Context, job *notification.Job) {
	if job.Result == nil {
		w.log.Error().Msg("job without result dropped")
		return
	}
	log := w.log.With().
		Int64("result_id", job.Result.ID).
		Int("candidate_id", job.To.CandidateID).
		Int("attempt", job.Attempt+1).
		Logger()

	msg, err := w.renderer.RenderResult(job.To, job.Result, job.ExamTitle)
	if err != nil {
		if errors.Is(err, notification.ErrNoRecipient) {
			log.Debug().Msg("no recipient, skipping")
			return
		}
		log.Error().Err(err).Msg("render failed, dropping")
		return
	}

	if err := w.mailer.Send(ctx, msg); err != nil {
		job.Attempt++
		if job.Attempt >= w.maxAttempts {
			log.Error().Err(err).Msg("result mail failed, giving up")
			return
		}
		log.Warn().Err(err).Msg("result mail failed, requeueing")
		if err := w.queue.Push(context.WithoutCancel(ctx), job); err != nil {
			log.Error().Err(err).Msg("requeue failed")
		}
		return
	}

	log.Info().Msg("result mail sent")
}
