package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

const TypeEmailSend = "email:send"

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Enqueuer is the part of *asynq.Client used by QueueNotifier.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands emails to the asynq worker so requests never wait on SMTP.
// Send reports whether the task was accepted, not whether the email was delivered.
type QueueNotifier struct {
	client Enqueuer
}

func NewQueueNotifier(client Enqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func NewEmailTask(to, subject, html string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailPayload{To: to, Subject: subject, HTML: html})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailSend, payload, asynq.MaxRetry(0), asynq.Timeout(30*time.Second)), nil
}

func (n *QueueNotifier) Send(ctx context.Context, to, subject, html string) bool {
	task, err := NewEmailTask(to, subject, html)
	if err != nil {
		utils.ErrorLogger.Errorf("Failed to build email task: %v", err)
		return false
	}

	info, err := n.client.EnqueueContext(ctx, task)
	if err != nil {
		utils.ErrorLogger.WithField("to", to).Errorf("Failed to enqueue email: %v", err)
		return false
	}

	utils.InfoLogger.WithField("task_id", info.ID).Debug("Email task enqueued")
	return true
}

// EmailTaskHandler delivers queued emails through the wrapped Notifier.
type EmailTaskHandler struct {
	delivery Notifier
}

func NewEmailTaskHandler(delivery Notifier) *EmailTaskHandler {
	return &EmailTaskHandler{delivery: delivery}
}

func (h *EmailTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode email payload: %w: %w", err, asynq.SkipRetry)
	}
	if !h.delivery.Send(ctx, payload.To, payload.Subject, payload.HTML) {
		return fmt.Errorf("email to %s not delivered", payload.To)
	}
	return nil
}

// NewWorker builds the asynq server that drains the email queue.
func NewWorker(redisOpt asynq.RedisClientOpt, delivery Notifier) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Logger:      utils.InfoLogger,
	})

	mux := asynq.NewServeMux()
	mux.Handle(TypeEmailSend, NewEmailTaskHandler(delivery))
	return srv, mux
}
