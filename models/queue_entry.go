package models

import "time"

const (
	QueueWaiting   = "waiting"
	QueueCalled    = "called"
	QueueSeated    = "seated"
	QueueNoShow    = "no_show"
	QueueCancelled = "cancelled"
)

// ActiveQueueStatuses are the statuses that still hold a place in line.
var ActiveQueueStatuses = []string{QueueWaiting, QueueCalled}

type QueueEntry struct {
	ID                   string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	RestaurantID         string     `gorm:"type:varchar(36);not null;index:idx_queue_restaurant_status,priority:1" bson:"restaurantId" json:"restaurantId"`
	TableID              *string    `gorm:"type:varchar(36)" bson:"tableId" json:"tableId"`
	CustomerName         string     `gorm:"type:varchar(255);not null" bson:"customerName" json:"customerName"`
	CustomerEmail        string     `gorm:"type:varchar(255);not null;index" bson:"customerEmail" json:"customerEmail"`
	PartySize            int        `gorm:"not null" bson:"partySize" json:"partySize"`
	EstimatedWaitMinutes int        `gorm:"not null" bson:"estimatedWaitMinutes" json:"estimatedWaitMinutes"`
	ActualWaitMinutes    *int       `bson:"actualWaitMinutes" json:"actualWaitMinutes,omitempty"`
	Status               string     `gorm:"type:varchar(20);not null;default:'waiting';index:idx_queue_restaurant_status,priority:2" bson:"status" json:"status"`
	LastNotificationSent *time.Time `bson:"lastNotificationSent" json:"lastNotificationSent,omitempty"`
	CreatedAt            time.Time  `gorm:"not null;index" bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time  `gorm:"not null" bson:"updatedAt" json:"updatedAt"`
	SeatedAt             *time.Time `bson:"seatedAt" json:"seatedAt,omitempty"`
	CompletedAt          *time.Time `bson:"completedAt" json:"completedAt,omitempty"`
}

func ValidQueueStatus(status string) bool {
	switch status {
	case QueueWaiting, QueueCalled, QueueSeated, QueueNoShow, QueueCancelled:
		return true
	}
	return false
}

func (e *QueueEntry) IsTerminal() bool {
	switch e.Status {
	case QueueSeated, QueueNoShow, QueueCancelled:
		return true
	}
	return false
}

// CanTransition allows forward-only moves: waiting -> called -> seated, and any
// non-terminal status to cancelled or no_show.
func (e *QueueEntry) CanTransition(to string) bool {
	if e.IsTerminal() {
		return false
	}
	switch to {
	case QueueCalled:
		return e.Status == QueueWaiting
	case QueueSeated, QueueCancelled, QueueNoShow:
		return true
	}
	return false
}
