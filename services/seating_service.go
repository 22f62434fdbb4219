package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/yeremiapane/restaurant-waitlist/metrics"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/notify"
	"github.com/yeremiapane/restaurant-waitlist/repository"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

const (
	assignExplicit = "explicit"
	assignAuto     = "auto"
	assignNone     = "none"
)

// SeatResult is the state after a committed seating. Table is nil when the party was seated
// without a table.
type SeatResult struct {
	Entry *models.QueueEntry `json:"queueEntry"`
	Table *models.Table      `json:"table"`
}

type SeatingService struct {
	repo   repository.Repository
	clock  Clock
	loc    *time.Location
	emails *emailer
}

func NewSeatingService(repo repository.Repository, notifier notify.Notifier, clock Clock, loc *time.Location, baseURL string) *SeatingService {
	if loc == nil {
		loc = time.UTC
	}
	return &SeatingService{
		repo:   repo,
		clock:  clock,
		loc:    loc,
		emails: &emailer{repo: repo, notifier: notifier, clock: clock, baseURL: baseURL},
	}
}

// Seat seats a waiting or called entry. With tableID the table must be active and available;
// without it the tightest available table is chosen, and the party is seated without a table
// when none fits.
func (s *SeatingService) Seat(ctx context.Context, restaurantID, entryID, tableID string) (*SeatResult, error) {
	return s.seat(ctx, restaurantID, entryID, tableID, true)
}

func (s *SeatingService) seat(ctx context.Context, restaurantID, entryID, tableID string, autoAssign bool) (*SeatResult, error) {
	var (
		result     SeatResult
		restaurant *models.Restaurant
		assignment string
	)

	err := s.repo.RunInTx(ctx, func(tx repository.Repository) error {
		assignment = assignNone

		r, err := tx.GetRestaurant(ctx, restaurantID)
		if err != nil {
			return lookupErr(err, "Restaurant not found")
		}

		entry, err := tx.GetQueueEntry(ctx, entryID)
		if err != nil {
			return lookupErr(err, "Queue entry not found")
		}
		if entry.RestaurantID != restaurantID {
			return notFound("Queue entry not found")
		}
		if entry.Status != models.QueueWaiting && entry.Status != models.QueueCalled {
			return conflict("Queue entry already processed")
		}

		var table *models.Table
		switch {
		case tableID != "":
			table, err = tx.GetTable(ctx, tableID)
			if errors.Is(err, repository.ErrNotFound) {
				return conflict("Table not available")
			}
			if err != nil {
				return err
			}
			if table.RestaurantID != restaurantID || !table.IsActive || table.Status != models.TableAvailable {
				return conflict("Table not available")
			}
			assignment = assignExplicit
		case autoAssign:
			candidates, err := tx.ListTables(ctx, restaurantID, repository.TableFilter{ActiveOnly: true, Status: models.TableAvailable})
			if err != nil {
				return err
			}
			if table = BestFit(candidates, entry.PartySize); table != nil {
				assignment = assignAuto
			}
		}

		now := s.clock.Now()
		wait := int(math.Round(now.Sub(entry.CreatedAt).Minutes()))
		if wait < 0 {
			wait = 0
		}

		entry.Status = models.QueueSeated
		entry.ActualWaitMinutes = &wait
		entry.SeatedAt = &now
		if table != nil {
			entry.TableID = &table.ID
		}
		if err := tx.UpdateQueueEntry(ctx, entry, models.ActiveQueueStatuses...); err != nil {
			return staleErr(err, "Queue entry already processed")
		}

		if table != nil {
			table.Occupy(entry.PartySize, entry.CustomerName, now)
			if err := tx.UpdateTable(ctx, table, models.TableAvailable); err != nil {
				return staleErr(err, "Table not available")
			}
		}

		if err := tx.AppendHistory(ctx, models.NewQueueHistory(entry, now, s.loc)); err != nil {
			return err
		}

		result = SeatResult{Entry: entry, Table: table}
		restaurant = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncSeating(assignment)
	utils.InfoLogger.WithField("queue_id", entryID).Infof("Party seated (table assignment: %s)", assignment)

	s.emails.tableReady(ctx, restaurant, result.Entry, result.Table)
	return &result, nil
}

func lookupErr(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("%s", message)
	}
	return err
}

// staleErr reports a lost compare-and-set as a conflict the client can retry.
func staleErr(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrStale):
		return conflict("%s", message)
	case errors.Is(err, repository.ErrNotFound):
		return notFound("%s", message)
	}
	return err
}
