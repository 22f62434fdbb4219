package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-waitlist/metrics"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/notify"
	"github.com/yeremiapane/restaurant-waitlist/repository"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

// dedupWindow is how long an active entry absorbs repeated joins with the same email.
const dedupWindow = 2 * time.Hour

type JoinResult struct {
	Entry    *models.QueueEntry `json:"queueEntry"`
	Position int                `json:"position"`
	Created  bool               `json:"created"`
}

// StatusView is what the customer status page shows for an entry.
type StatusView struct {
	ID                   string     `json:"id"`
	RestaurantName       string     `json:"restaurantName"`
	CustomerName         string     `json:"customerName"`
	PartySize            int        `json:"partySize"`
	Status               string     `json:"status"`
	Position             int        `json:"position"`
	EstimatedWaitMinutes int        `json:"estimatedWaitMinutes"`
	StatusMessage        string     `json:"statusMessage"`
	TableNumber          string     `json:"tableNumber,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	SeatedAt             *time.Time `json:"seatedAt,omitempty"`
}

type QueueService struct {
	repo      repository.Repository
	seating   *SeatingService
	estimator *Estimator
	clock     Clock
	emails    *emailer
}

func NewQueueService(repo repository.Repository, seating *SeatingService, notifier notify.Notifier, clock Clock, baseURL string) *QueueService {
	return &QueueService{
		repo:      repo,
		seating:   seating,
		estimator: NewEstimator(clock),
		clock:     clock,
		emails:    &emailer{repo: repo, notifier: notifier, clock: clock, baseURL: baseURL},
	}
}

// NormalizeEmail is the form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Join adds a party to the queue. A second join with the same email inside the dedup window
// returns the existing entry with Created=false.
func (s *QueueService) Join(ctx context.Context, restaurantID, customerName, customerEmail string, partySize int) (*JoinResult, error) {
	customerName = strings.TrimSpace(customerName)
	customerEmail = NormalizeEmail(customerEmail)

	if customerName == "" {
		return nil, invalid("Customer name is required")
	}
	if !validEmail(customerEmail) {
		return nil, invalid("A valid email address is required")
	}
	if partySize < 1 {
		return nil, invalid("Party size must be at least 1")
	}

	restaurant, err := s.repo.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, lookupErr(err, "Restaurant not found")
	}
	if limit := restaurant.Settings.MaxParty(); partySize > limit {
		return nil, invalid("Party size too large. Maximum: %d", limit)
	}

	var result JoinResult
	err = s.repo.RunInTx(ctx, func(tx repository.Repository) error {
		if err := tx.LockRestaurant(ctx, restaurantID); err != nil {
			return lookupErr(err, "Restaurant not found")
		}

		now := s.clock.Now()
		existing, err := tx.FindActiveEntry(ctx, restaurantID, customerEmail, now.Add(-dedupWindow))
		switch {
		case err == nil:
			pos, err := position(ctx, tx, existing)
			if err != nil {
				return err
			}
			result = JoinResult{Entry: existing, Position: pos}
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		estimate, err := s.estimator.Estimate(ctx, tx, restaurant, partySize)
		if err != nil {
			return err
		}

		entry := &models.QueueEntry{
			ID:                   repository.NewID(),
			RestaurantID:         restaurantID,
			CustomerName:         customerName,
			CustomerEmail:        customerEmail,
			PartySize:            partySize,
			EstimatedWaitMinutes: estimate,
			Status:               models.QueueWaiting,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := tx.CreateQueueEntry(ctx, entry); err != nil {
			return err
		}

		pos, err := position(ctx, tx, entry)
		if err != nil {
			return err
		}
		result = JoinResult{Entry: entry, Position: pos, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncJoin(result.Created)
	if result.Created {
		utils.InfoLogger.WithField("queue_id", result.Entry.ID).Infof("Party of %d joined %s at position %d", partySize, restaurant.Slug, result.Position)
		s.emails.queueJoined(ctx, restaurant, result.Entry, result.Position)
	}
	return &result, nil
}

// Position is the 1-based place of the entry among waiting entries of its restaurant.
func (s *QueueService) Position(ctx context.Context, entryID string) (int, error) {
	entry, err := s.repo.GetQueueEntry(ctx, entryID)
	if err != nil {
		return 0, lookupErr(err, "Queue entry not found")
	}
	return position(ctx, s.repo, entry)
}

func position(ctx context.Context, repo repository.Repository, entry *models.QueueEntry) (int, error) {
	count, err := repo.CountWaitingAhead(ctx, entry.RestaurantID, entry.CreatedAt, entry.ID)
	if err != nil {
		return 0, err
	}
	if count < 1 {
		return 1, nil
	}
	return int(count), nil
}

// Transition moves an entry forward. Seating goes through the seating service, which assigns
// the best table only when the restaurant has auto assignment enabled.
func (s *QueueService) Transition(ctx context.Context, restaurantID, entryID, status string) (*models.QueueEntry, error) {
	if !models.ValidQueueStatus(status) {
		return nil, invalid("Invalid queue status: %s", status)
	}

	entry, err := s.repo.GetQueueEntry(ctx, entryID)
	if err != nil {
		return nil, lookupErr(err, "Queue entry not found")
	}
	if entry.RestaurantID != restaurantID {
		return nil, notFound("Queue entry not found")
	}
	if !entry.CanTransition(status) {
		return nil, conflict("Cannot change status from %s to %s", entry.Status, status)
	}

	if status == models.QueueSeated {
		restaurant, err := s.repo.GetRestaurant(ctx, restaurantID)
		if err != nil {
			return nil, lookupErr(err, "Restaurant not found")
		}
		res, err := s.seating.seat(ctx, restaurantID, entryID, "", restaurant.Settings.AutoAssignTables)
		if err != nil {
			return nil, err
		}
		return res.Entry, nil
	}

	prev := entry.Status
	entry.Status = status
	if status == models.QueueCancelled || status == models.QueueNoShow {
		now := s.clock.Now()
		entry.CompletedAt = &now
	}
	if err := s.repo.UpdateQueueEntry(ctx, entry, prev); err != nil {
		return nil, staleErr(err, "Queue entry changed, please retry")
	}

	utils.InfoLogger.WithField("queue_id", entry.ID).Infof("Queue entry moved from %s to %s", prev, status)
	return entry, nil
}

// Cancel is the customer leaving the queue from the status page.
func (s *QueueService) Cancel(ctx context.Context, entryID string) (*models.QueueEntry, error) {
	entry, err := s.repo.GetQueueEntry(ctx, entryID)
	if err != nil {
		return nil, lookupErr(err, "Queue entry not found")
	}
	return s.Transition(ctx, entry.RestaurantID, entryID, models.QueueCancelled)
}

// ListActive returns waiting and called entries in queue order.
func (s *QueueService) ListActive(ctx context.Context, restaurantID string) ([]*models.QueueEntry, error) {
	return s.repo.ListQueueEntries(ctx, restaurantID, models.ActiveQueueStatuses...)
}

func (s *QueueService) Status(ctx context.Context, entryID string) (*StatusView, error) {
	entry, err := s.repo.GetQueueEntry(ctx, entryID)
	if err != nil {
		return nil, lookupErr(err, "Queue entry not found")
	}

	restaurant, err := s.repo.GetRestaurant(ctx, entry.RestaurantID)
	if err != nil {
		return nil, lookupErr(err, "Restaurant not found")
	}

	view := &StatusView{
		ID:             entry.ID,
		RestaurantName: restaurant.Name,
		CustomerName:   entry.CustomerName,
		PartySize:      entry.PartySize,
		Status:         entry.Status,
		CreatedAt:      entry.CreatedAt,
		SeatedAt:       entry.SeatedAt,
	}

	if entry.TableID != nil {
		table, err := s.repo.GetTable(ctx, *entry.TableID)
		switch {
		case err == nil:
			view.TableNumber = table.TableNumber
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	// Called and seated entries still report a position, counted against the parties waiting.
	if entry.Status != models.QueueCancelled && entry.Status != models.QueueNoShow {
		pos, err := position(ctx, s.repo, entry)
		if err != nil {
			return nil, err
		}
		view.Position = pos
	}

	switch entry.Status {
	case models.QueueWaiting:
		pos := view.Position
		view.EstimatedWaitMinutes = PositionEstimate(pos)
		if pos == 1 {
			view.StatusMessage = "You are next!"
		} else {
			view.StatusMessage = fmt.Sprintf("%d parties ahead of you", pos-1)
		}
	case models.QueueCalled:
		number := view.TableNumber
		if number == "" {
			number = "TBD"
		}
		view.StatusMessage = "Your table is ready! Table " + number
	case models.QueueSeated:
		view.StatusMessage = "You have been seated. Enjoy your meal!"
	case models.QueueCancelled:
		view.StatusMessage = "You have left the queue"
	case models.QueueNoShow:
		view.StatusMessage = "Your reservation was marked as a no-show"
	}
	return view, nil
}
