package services

import (
	"context"
	"math"
	"time"

	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/repository"
)

const (
	historyWindow      = 30 * 24 * time.Hour
	minEstimateMinutes = 5
	minutesPerPosition = 15
	loadWeight         = 0.4
	historyWeight      = 0.6
)

// EstimateWait blends the current queue load with the historical average for the party size.
// Without history the load-based figure is used alone. The result is never below 5 minutes.
func EstimateWait(queueLoad int64, serviceMinutes int, hist repository.WaitStats) int {
	base := float64(queueLoad) * float64(serviceMinutes)
	estimate := base
	if hist.Count > 0 {
		estimate = math.Round(base*loadWeight + hist.Average*historyWeight)
	}
	if estimate < minEstimateMinutes {
		return minEstimateMinutes
	}
	return int(estimate)
}

// PositionEstimate is the figure shown on the status page while waiting.
func PositionEstimate(position int) int {
	if est := position * minutesPerPosition; est > minEstimateMinutes {
		return est
	}
	return minEstimateMinutes
}

type Estimator struct {
	clock Clock
}

func NewEstimator(clock Clock) *Estimator {
	return &Estimator{clock: clock}
}

// Estimate reads through repo so it can run inside the join transaction.
func (e *Estimator) Estimate(ctx context.Context, repo repository.Repository, restaurant *models.Restaurant, partySize int) (int, error) {
	load, err := repo.CountQueueEntries(ctx, restaurant.ID, models.QueueWaiting)
	if err != nil {
		return 0, err
	}

	hist, err := repo.AverageWait(ctx, restaurant.ID, partySize, e.clock.Now().Add(-historyWindow))
	if err != nil {
		return 0, err
	}

	return EstimateWait(load, restaurant.ServiceMinutes(), hist), nil
}
