package models

import "time"

var peakHours = map[int]bool{11: true, 12: true, 17: true, 18: true, 19: true, 20: true}

// QueueHistory is the append-only seating record used for future estimates and analytics.
type QueueHistory struct {
	ID                   string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	RestaurantID         string    `gorm:"type:varchar(36);not null;index:idx_history_lookup,priority:1" bson:"restaurantId" json:"restaurantId"`
	QueueEntryID         string    `gorm:"type:varchar(36);not null" bson:"queueEntryId" json:"queueEntryId"`
	CustomerName         string    `gorm:"type:varchar(255);not null" bson:"customerName" json:"customerName"`
	CustomerEmail        string    `gorm:"type:varchar(255);not null" bson:"customerEmail" json:"customerEmail"`
	PartySize            int       `gorm:"not null;index:idx_history_lookup,priority:2" bson:"partySize" json:"partySize"`
	EstimatedWaitMinutes int       `gorm:"not null" bson:"estimatedWaitMinutes" json:"estimatedWaitMinutes"`
	ActualWaitMinutes    int       `gorm:"not null" bson:"actualWaitMinutes" json:"actualWaitMinutes"`
	TableID              *string   `gorm:"type:varchar(36)" bson:"tableId" json:"tableId"`
	Status               string    `gorm:"type:varchar(20);not null" bson:"status" json:"status"`
	CreatedAt            time.Time `gorm:"not null;index:idx_history_lookup,priority:3" bson:"createdAt" json:"createdAt"`
	SeatedAt             time.Time `gorm:"not null" bson:"seatedAt" json:"seatedAt"`
	DayOfWeek            int       `gorm:"not null" bson:"dayOfWeek" json:"dayOfWeek"`
	HourOfDay            int       `gorm:"not null" bson:"hourOfDay" json:"hourOfDay"`
	IsWeekend            bool      `gorm:"not null" bson:"isWeekend" json:"isWeekend"`
	IsPeakTime           bool      `gorm:"not null" bson:"isPeakTime" json:"isPeakTime"`
}

// TableName implements the gorm tabler interface.
func (QueueHistory) TableName() string { return "queue_history" }

// NewQueueHistory snapshots a seated entry. Temporal features come from the join time in loc.
func NewQueueHistory(entry *QueueEntry, seatedAt time.Time, loc *time.Location) *QueueHistory {
	if loc == nil {
		loc = time.UTC
	}
	joined := entry.CreatedAt.In(loc)
	actual := 0
	if entry.ActualWaitMinutes != nil {
		actual = *entry.ActualWaitMinutes
	}
	day := int(joined.Weekday())
	return &QueueHistory{
		RestaurantID:         entry.RestaurantID,
		QueueEntryID:         entry.ID,
		CustomerName:         entry.CustomerName,
		CustomerEmail:        entry.CustomerEmail,
		PartySize:            entry.PartySize,
		EstimatedWaitMinutes: entry.EstimatedWaitMinutes,
		ActualWaitMinutes:    actual,
		TableID:              entry.TableID,
		Status:               QueueSeated,
		CreatedAt:            entry.CreatedAt,
		SeatedAt:             seatedAt,
		DayOfWeek:            day,
		HourOfDay:            joined.Hour(),
		IsWeekend:            day == 0 || day == 6,
		IsPeakTime:           peakHours[joined.Hour()],
	}
}
