package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/repository"
	"github.com/yeremiapane/restaurant-waitlist/services"
)

func TestEstimateWait(t *testing.T) {
	tests := []struct {
		name    string
		load    int64
		service int
		hist    repository.WaitStats
		want    int
	}{
		{"load only", 2, 45, repository.WaitStats{}, 90},
		{"blended with history", 2, 45, repository.WaitStats{Average: 60, Count: 3}, 72},
		{"empty queue floors at five", 0, 45, repository.WaitStats{}, 5},
		{"empty queue with short history", 0, 45, repository.WaitStats{Average: 4, Count: 1}, 5},
		{"history pulls estimate up", 1, 10, repository.WaitStats{Average: 20, Count: 1}, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.EstimateWait(tt.load, tt.service, tt.hist))
		})
	}
}

func TestPositionEstimate(t *testing.T) {
	assert.Equal(t, 5, services.PositionEstimate(0))
	assert.Equal(t, 15, services.PositionEstimate(1))
	assert.Equal(t, 45, services.PositionEstimate(3))
}

func TestEstimatorUsesRecentHistoryForPartySize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "estimates", models.RestaurantSettings{})

	env.join(t, restaurant.ID, "alice", 2)
	env.join(t, restaurant.ID, "bob", 4)

	appendHistory := func(partySize, wait int, joined time.Time) {
		require.NoError(t, env.repo.AppendHistory(ctx, &models.QueueHistory{
			RestaurantID:      restaurant.ID,
			QueueEntryID:      "history-entry",
			CustomerName:      "Past Guest",
			CustomerEmail:     "past@example.com",
			PartySize:         partySize,
			ActualWaitMinutes: wait,
			Status:            models.QueueSeated,
			CreatedAt:         joined,
			SeatedAt:          joined.Add(time.Duration(wait) * time.Minute),
		}))
	}
	appendHistory(2, 50, env.clock.Now().Add(-24*time.Hour))
	appendHistory(2, 70, env.clock.Now().Add(-48*time.Hour))
	// Outside the 30 day window and a different party size; both ignored.
	appendHistory(2, 500, env.clock.Now().Add(-31*24*time.Hour))
	appendHistory(6, 500, env.clock.Now().Add(-time.Hour))

	estimator := services.NewEstimator(env.clock)

	got, err := estimator.Estimate(ctx, env.repo, restaurant, 2)
	require.NoError(t, err)
	assert.Equal(t, 72, got)

	got, err = estimator.Estimate(ctx, env.repo, restaurant, 4)
	require.NoError(t, err)
	assert.Equal(t, 90, got)
}
