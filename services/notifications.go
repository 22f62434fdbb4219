package services

import (
	"context"

	"github.com/yeremiapane/restaurant-waitlist/metrics"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/notify"
	"github.com/yeremiapane/restaurant-waitlist/repository"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

// emailer sends the customer emails that follow a committed join or seating.
// Failures are logged and counted; they never reach the caller.
type emailer struct {
	repo     repository.Repository
	notifier notify.Notifier
	clock    Clock
	baseURL  string
}

func (m *emailer) queueJoined(ctx context.Context, restaurant *models.Restaurant, entry *models.QueueEntry, position int) {
	email, err := notify.QueueJoinedEmail(notify.QueueJoinedData{
		RestaurantName: restaurant.Name,
		CustomerName:   entry.CustomerName,
		Position:       position,
		EstimatedWait:  entry.EstimatedWaitMinutes,
		StatusURL:      notify.StatusURL(m.baseURL, entry.ID),
	})
	m.deliver(ctx, "queueJoined", entry, email, err)
}

func (m *emailer) tableReady(ctx context.Context, restaurant *models.Restaurant, entry *models.QueueEntry, table *models.Table) {
	data := notify.TableReadyData{
		RestaurantName: restaurant.Name,
		CustomerName:   entry.CustomerName,
		StatusURL:      notify.StatusURL(m.baseURL, entry.ID),
	}
	if table != nil {
		data.TableNumber = table.TableNumber
	}
	email, err := notify.TableReadyEmail(data)
	m.deliver(ctx, "tableReady", entry, email, err)
}

func (m *emailer) deliver(ctx context.Context, template string, entry *models.QueueEntry, email notify.Email, renderErr error) {
	log := utils.ErrorLogger.WithField("queue_id", entry.ID).WithField("template", template)
	if renderErr != nil {
		log.Errorf("Failed to render email: %v", renderErr)
		metrics.IncNotification(template, false)
		return
	}

	ok := m.notifier.Send(ctx, entry.CustomerEmail, email.Subject, email.HTML)
	metrics.IncNotification(template, ok)
	if !ok {
		log.Error("Email notification failed")
		return
	}

	now := m.clock.Now()
	if err := m.repo.MarkNotified(ctx, entry.ID, now); err != nil {
		log.Errorf("Failed to record notification time: %v", err)
		return
	}
	entry.LastNotificationSent = &now
}
