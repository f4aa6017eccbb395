package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"serviceconnect/internal/logger"
	"serviceconnect/internal/metrics"
)

const (
	queueKey       = "serviceconnect:emails"
	failedQueueKey = "serviceconnect:emails:failed"

	maxAttempts = 3
)

type Job struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Kind    string    `json:"kind"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Sender delivers a single rendered message.
type Sender interface {
	SendMail(from string, to []string, msg []byte) error
}

type SMTPSender struct {
	Host string
	Port string
	User string
	Pass string
}

func (s SMTPSender) SendMail(from string, to []string, msg []byte) error {
	var auth smtp.Auth
	if s.User != "" && s.Pass != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	return smtp.SendMail(s.Host+":"+s.Port, auth, from, to, msg)
}

type Options struct {
	From       string
	FromName   string
	RetryDelay time.Duration
	PopTimeout time.Duration
}

// Service queues outbound mail in redis and drains it with Run.
type Service struct {
	redis  *redis.Client
	sender Sender
	opts   Options
}

func New(rdb *redis.Client, sender Sender, opts Options) *Service {
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if opts.PopTimeout == 0 {
		opts.PopTimeout = 2 * time.Second
	}
	return &Service{redis: rdb, sender: sender, opts: opts}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.Enqueue(ctx, Job{To: to, Name: name, Subject: subject, Body: body, Kind: "notification"})
}

func (s *Service) Enqueue(ctx context.Context, job Job) error {
	if job.To == "" {
		return fmt.Errorf("email: empty recipient")
	}
	job.Tries = 0
	if job.Created.IsZero() {
		job.Created = time.Now()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("email: marshal job: %w", err)
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Error("failed to queue email", "to", job.To, "error", err)
		return fmt.Errorf("email: queue: %w", err)
	}

	logger.Debug("email queued", "subject", job.Subject, "to", job.To)
	return nil
}

func (s *Service) Run(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) bool {
	result, err := s.redis.BRPop(ctx, s.opts.PopTimeout, queueKey).Result()
	if err != nil {
		return false
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("bad email payload: %v", err)
		return false
	}

	job.Tries++
	if err := s.deliver(job); err != nil {
		metrics.RecordEmail(job.Kind, "failed")
		logger.Warn("email delivery failed", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxAttempts {
			s.requeue(ctx, job)
		} else {
			s.saveFailed(ctx, job, err)
		}
		return false
	}

	metrics.RecordEmail(job.Kind, "sent")
	logger.Info("email sent", "to", job.To, "subject", job.Subject)
	return true
}

func (s *Service) requeue(ctx context.Context, job Job) {
	select {
	case <-ctx.Done():
	case <-time.After(s.opts.RetryDelay):
	}

	data, _ := json.Marshal(job)
	if err := s.redis.LPush(context.WithoutCancel(ctx), queueKey, string(data)).Err(); err != nil {
		logger.Error("failed to requeue email", "to", job.To, "error", err)
	}
}

func (s *Service) deliver(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.opts.FromName, s.opts.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n"
	message += "\r\n" + job.Body

	return s.sender.SendMail(s.opts.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(ctx context.Context, job Job, cause error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	if err := s.redis.LPush(context.WithoutCancel(ctx), failedQueueKey, string(data)).Err(); err != nil {
		logger.Error("failed to park email", "to", job.To, "error", err)
		return
	}
	logger.Errorf("email to %s moved to failed queue after %d attempts", job.To, job.Tries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0
	}
	metrics.SetEmailQueueLength(length)
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
