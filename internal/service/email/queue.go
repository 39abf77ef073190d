// internal/service/email/queue.go
package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dealbridge-billing/internal/metrics"
)

const (
	queueKey   = "billing:emails"
	failedKey  = "billing:emails:failed"
	maxTries   = 3
	popTimeout = 2 * time.Second
)

type Job struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Service queues outgoing mail in Redis and drains it with a worker so
// request paths never wait on SMTP.
type Service struct {
	redis  *redis.Client
	sender Sender
	logger *zap.Logger
}

func NewService(rdb *redis.Client, sender Sender, logger *zap.Logger) *Service {
	return &Service{redis: rdb, sender: sender, logger: logger}
}

// Enqueue schedules an email. An empty recipient is ignored.
func (s *Service) Enqueue(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return nil
	}
	data, err := json.Marshal(Job{To: to, Subject: subject, Body: body, Created: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal email job: %w", err)
	}
	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		s.logger.Error("failed to queue email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to queue email: %w", err)
	}
	metrics.RecordEmail("queued")
	return nil
}

// Start drains the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info("email worker started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, popTimeout, queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			s.logger.Warn("email queue pop failed", zap.Error(err))
			time.Sleep(popTimeout)
		}
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		s.logger.Error("bad email job", zap.Error(err))
		return
	}

	job.Tries++
	if err := s.sender.Send(job.To, job.Subject, job.Body); err != nil {
		s.logger.Warn("failed to send email",
			zap.String("to", job.To),
			zap.Int("attempt", job.Tries),
			zap.Error(err),
		)
		data, _ := json.Marshal(job)
		if job.Tries < maxTries {
			s.redis.LPush(ctx, queueKey, string(data))
			return
		}
		s.redis.LPush(ctx, failedKey, string(data))
		metrics.RecordEmail("failed")
		return
	}

	metrics.RecordEmail("sent")
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	n, _ := s.redis.LLen(ctx, queueKey).Result()
	return n
}
