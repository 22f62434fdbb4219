package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQueueJoinedEmail(t *testing.T) {
	email, err := QueueJoinedEmail(QueueJoinedData{
		RestaurantName: "Chez <Nous>",
		CustomerName:   "Alice",
		Position:       3,
		EstimatedWait:  45,
		StatusURL:      StatusURL("https://wait.example.com", "abc"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Welcome to Chez <Nous> - Queue Position #3", email.Subject)
	assert.Contains(t, email.HTML, "Queue Position: #3")
	assert.Contains(t, email.HTML, "<strong>45 minutes</strong>")
	assert.Contains(t, email.HTML, `href="https://wait.example.com/queue/abc"`)
	// Names are escaped in the body.
	assert.Contains(t, email.HTML, "Chez &lt;Nous&gt;")
}

func TestTableReadyEmail(t *testing.T) {
	withTable, err := TableReadyEmail(TableReadyData{RestaurantName: "Bistro", CustomerName: "Bob", TableNumber: "7"})
	require.NoError(t, err)
	assert.Equal(t, "Your table is ready at Bistro!", withTable.Subject)
	assert.Contains(t, withTable.HTML, "Table 7")

	withoutTable, err := TableReadyEmail(TableReadyData{RestaurantName: "Bistro", CustomerName: "Bob"})
	require.NoError(t, err)
	assert.NotContains(t, withoutTable.HTML, "Please head to")
	assert.Contains(t, withoutTable.HTML, "Please proceed to the host stand")
}

func TestSMTPNotifierSend(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: 2525, Username: "user", Password: "pass", From: "waitlist@example.com"})

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		return nil
	}

	ok := n.Send(context.Background(), "guest@example.com", "Hello", "<p>Hi</p>")
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, []string{"guest@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: waitlist@example.com\r\nTo: guest@example.com\r\nSubject: Hello\r\n"))
	assert.Contains(t, gotMsg, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\n<p>Hi</p>"))
}

func TestSMTPNotifierFailure(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "waitlist@example.com"})
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	assert.False(t, n.Send(context.Background(), "guest@example.com", "Hello", "<p>Hi</p>"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return nil }
	assert.False(t, n.Send(ctx, "guest@example.com", "Hello", "<p>Hi</p>"))
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func TestQueueNotifierEnqueuesEmailTask(t *testing.T) {
	enq := new(mockEnqueuer)
	enq.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		var p EmailPayload
		if task.Type() != TypeEmailSend || json.Unmarshal(task.Payload(), &p) != nil {
			return false
		}
		return p.To == "guest@example.com" && p.Subject == "Hello" && p.HTML == "<p>Hi</p>"
	})).Return(&asynq.TaskInfo{ID: "task-1"}, nil).Once()

	n := NewQueueNotifier(enq)
	assert.True(t, n.Send(context.Background(), "guest@example.com", "Hello", "<p>Hi</p>"))
	enq.AssertExpectations(t)
}

func TestQueueNotifierEnqueueFailure(t *testing.T) {
	enq := new(mockEnqueuer)
	enq.On("EnqueueContext", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

	n := NewQueueNotifier(enq)
	assert.False(t, n.Send(context.Background(), "guest@example.com", "Hello", "<p>Hi</p>"))
}

type recordingNotifier struct {
	ok   bool
	sent []EmailPayload
}

func (r *recordingNotifier) Send(_ context.Context, to, subject, html string) bool {
	r.sent = append(r.sent, EmailPayload{To: to, Subject: subject, HTML: html})
	return r.ok
}

func TestEmailTaskHandler(t *testing.T) {
	task, err := NewEmailTask("guest@example.com", "Hello", "<p>Hi</p>")
	require.NoError(t, err)

	delivered := &recordingNotifier{ok: true}
	require.NoError(t, NewEmailTaskHandler(delivered).ProcessTask(context.Background(), task))
	require.Len(t, delivered.sent, 1)
	assert.Equal(t, "guest@example.com", delivered.sent[0].To)

	failed := &recordingNotifier{ok: false}
	assert.Error(t, NewEmailTaskHandler(failed).ProcessTask(context.Background(), task))

	bad := asynq.NewTask(TypeEmailSend, []byte("{not json"))
	err = NewEmailTaskHandler(delivered).ProcessTask(context.Background(), bad)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
