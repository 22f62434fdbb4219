// Package repository is the storage boundary of the waitlist. Business rules live in
// services and are written once against Repository; each backend implements it.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/restaurant-waitlist/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrStale     = errors.New("record changed concurrently")
	ErrDuplicate = errors.New("duplicate record")
)

// TableFilter narrows ListTables. Empty fields match everything.
type TableFilter struct {
	ActiveOnly bool
	Status     string
}

// WaitStats is the aggregate of historical waits for one party size.
type WaitStats struct {
	Average float64
	Count   int64
}

type Repository interface {
	// RunInTx executes fn atomically. fn must only use the Repository it receives.
	RunInTx(ctx context.Context, fn func(tx Repository) error) error
	// LockRestaurant serializes writers of one restaurant until the surrounding transaction ends.
	LockRestaurant(ctx context.Context, restaurantID string) error

	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	GetRestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error)
	UpdateRestaurantSettings(ctx context.Context, id string, settings models.RestaurantSettings) error

	CreateTable(ctx context.Context, table *models.Table) error
	GetTable(ctx context.Context, id string) (*models.Table, error)
	ListTables(ctx context.Context, restaurantID string, filter TableFilter) ([]*models.Table, error)
	// UpdateTable writes the mutable fields of table. When expectStatus is given the write only
	// happens if the stored status is one of them, otherwise ErrStale is returned.
	UpdateTable(ctx context.Context, table *models.Table, expectStatus ...string) error

	CreateQueueEntry(ctx context.Context, entry *models.QueueEntry) error
	GetQueueEntry(ctx context.Context, id string) (*models.QueueEntry, error)
	// FindActiveEntry returns the newest waiting/called entry for email created at or after since.
	FindActiveEntry(ctx context.Context, restaurantID, email string, since time.Time) (*models.QueueEntry, error)
	ListQueueEntries(ctx context.Context, restaurantID string, statuses ...string) ([]*models.QueueEntry, error)
	CountQueueEntries(ctx context.Context, restaurantID, status string) (int64, error)
	// CountWaitingAhead counts waiting entries ordered at or before (createdAt, id).
	CountWaitingAhead(ctx context.Context, restaurantID string, createdAt time.Time, id string) (int64, error)
	UpdateQueueEntry(ctx context.Context, entry *models.QueueEntry, expectStatus ...string) error
	MarkNotified(ctx context.Context, entryID string, at time.Time) error

	AppendHistory(ctx context.Context, history *models.QueueHistory) error
	AverageWait(ctx context.Context, restaurantID string, partySize int, since time.Time) (WaitStats, error)
	ListHistory(ctx context.Context, restaurantID string, since time.Time) ([]*models.QueueHistory, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Migrator is implemented by backends that need schema or index preparation before use.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// NewID returns the identifier used for every stored record in both backends.
// Ids are UUIDv7, so they sort in creation order and break createdAt ties by insertion.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func stamp(id *string, created *time.Time) {
	if *id == "" {
		*id = NewID()
	}
	if created.IsZero() {
		*created = time.Now().UTC()
	}
}
