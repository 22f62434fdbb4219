package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/services"
)

func TestJoinCreatesEntryWithEstimate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "join", models.RestaurantSettings{})

	first := env.join(t, restaurant.ID, "alice", 2)
	assert.True(t, first.Created)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, models.QueueWaiting, first.Entry.Status)
	assert.Equal(t, 5, first.Entry.EstimatedWaitMinutes)

	second := env.join(t, restaurant.ID, "bob", 3)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, 45, second.Entry.EstimatedWaitMinutes)

	stored, err := env.repo.GetQueueEntry(ctx, second.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", stored.CustomerEmail)
	assert.Equal(t, 3, stored.PartySize)
}

func TestJoinSendsConfirmationEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "confirm", models.RestaurantSettings{})

	res := env.join(t, restaurant.ID, "alice", 2)

	sent := env.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, "Welcome to Bistro confirm - Queue Position #1", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "http://waitlist.test/queue/"+res.Entry.ID)

	stored, err := env.repo.GetQueueEntry(ctx, res.Entry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastNotificationSent)
}

func TestJoinSurvivesNotificationFailure(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.fail = true
	restaurant := env.createRestaurant(t, "mailfail", models.RestaurantSettings{})

	res := env.join(t, restaurant.ID, "alice", 2)
	assert.True(t, res.Created)
	assert.Nil(t, res.Entry.LastNotificationSent)
}

func TestJoinDeduplicatesWithinWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "dedup", models.RestaurantSettings{})

	first, err := env.queue.Join(ctx, restaurant.ID, "Alice", "alice@example.com", 2)
	require.NoError(t, err)
	env.clock.Advance(30 * time.Minute)

	again, err := env.queue.Join(ctx, restaurant.ID, "Alice", "  ALICE@example.com ", 4)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.Entry.ID, again.Entry.ID)
	assert.Equal(t, 2, again.Entry.PartySize)
	assert.Len(t, env.notifier.Sent(), 1)

	env.clock.Advance(2 * time.Hour)
	later, err := env.queue.Join(ctx, restaurant.ID, "Alice", "alice@example.com", 2)
	require.NoError(t, err)
	assert.True(t, later.Created)
	assert.NotEqual(t, first.Entry.ID, later.Entry.ID)
}

func TestJoinAfterLeavingCreatesNewEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "rejoin", models.RestaurantSettings{})

	first := env.join(t, restaurant.ID, "alice", 2)
	_, err := env.queue.Cancel(ctx, first.Entry.ID)
	require.NoError(t, err)

	second := env.join(t, restaurant.ID, "alice", 2)
	assert.True(t, second.Created)
	assert.NotEqual(t, first.Entry.ID, second.Entry.ID)
}

func TestJoinValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "validate", models.RestaurantSettings{MaxPartySize: 6})

	tests := []struct {
		name    string
		cust    string
		email   string
		party   int
		message string
	}{
		{"empty name", "  ", "a@example.com", 2, "Customer name is required"},
		{"bad email", "Alice", "not-an-email", 2, "A valid email address is required"},
		{"zero party", "Alice", "a@example.com", 0, "Party size must be at least 1"},
		{"party too large", "Alice", "a@example.com", 7, "Party size too large. Maximum: 6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.queue.Join(ctx, restaurant.ID, tt.cust, tt.email, tt.party)
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrValidation)
			assert.EqualError(t, err, tt.message)
		})
	}

	_, err := env.queue.Join(ctx, "missing", "Alice", "a@example.com", 2)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestJoinAtSameInstantKeepsArrivalOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "sameinstant", models.RestaurantSettings{})

	names := []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	ids := make([]string, 0, len(names))
	for i, name := range names {
		res, err := env.queue.Join(ctx, restaurant.ID, name, name+"@example.com", 2)
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Position, name)
		ids = append(ids, res.Entry.ID)
	}

	for i, id := range ids {
		pos, err := env.queue.Position(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i+1, pos, names[i])
	}

	entries, err := env.queue.ListActive(ctx, restaurant.ID)
	require.NoError(t, err)
	require.Len(t, entries, len(ids))
	for i, e := range entries {
		assert.Equal(t, ids[i], e.ID)
	}
}

func TestPositionSkipsEntriesThatLeft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "position", models.RestaurantSettings{})

	a := env.join(t, restaurant.ID, "alice", 2)
	b := env.join(t, restaurant.ID, "bob", 2)
	c := env.join(t, restaurant.ID, "carol", 2)

	pos, err := env.queue.Position(ctx, c.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)

	_, err = env.queue.Transition(ctx, restaurant.ID, a.Entry.ID, models.QueueCalled)
	require.NoError(t, err)
	_, err = env.queue.Cancel(ctx, b.Entry.ID)
	require.NoError(t, err)

	pos, err = env.queue.Position(ctx, c.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	_, err = env.queue.Position(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestTransitionRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "transitions", models.RestaurantSettings{})
	other := env.createRestaurant(t, "elsewhere", models.RestaurantSettings{})

	entry := env.join(t, restaurant.ID, "alice", 2).Entry

	_, err := env.queue.Transition(ctx, restaurant.ID, entry.ID, "eating")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = env.queue.Transition(ctx, other.ID, entry.ID, models.QueueCalled)
	assert.ErrorIs(t, err, services.ErrNotFound)

	called, err := env.queue.Transition(ctx, restaurant.ID, entry.ID, models.QueueCalled)
	require.NoError(t, err)
	assert.Equal(t, models.QueueCalled, called.Status)

	_, err = env.queue.Transition(ctx, restaurant.ID, entry.ID, models.QueueWaiting)
	assert.ErrorIs(t, err, services.ErrConflict)
	_, err = env.queue.Transition(ctx, restaurant.ID, entry.ID, models.QueueCalled)
	assert.ErrorIs(t, err, services.ErrConflict)

	noShow, err := env.queue.Transition(ctx, restaurant.ID, entry.ID, models.QueueNoShow)
	require.NoError(t, err)
	assert.Equal(t, models.QueueNoShow, noShow.Status)
	require.NotNil(t, noShow.CompletedAt)

	_, err = env.queue.Transition(ctx, restaurant.ID, entry.ID, models.QueueCancelled)
	assert.ErrorIs(t, err, services.ErrConflict)
	_, err = env.queue.Transition(ctx, restaurant.ID, entry.ID, models.QueueSeated)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestTransitionToSeatedWithoutAutoAssign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "manual", models.RestaurantSettings{})
	table := env.addTable(t, restaurant.ID, "1", 4)

	entry := env.join(t, restaurant.ID, "alice", 2).Entry
	env.clock.Advance(20 * time.Minute)

	seated, err := env.queue.Transition(ctx, restaurant.ID, entry.ID, models.QueueSeated)
	require.NoError(t, err)
	assert.Equal(t, models.QueueSeated, seated.Status)
	assert.Nil(t, seated.TableID)
	require.NotNil(t, seated.ActualWaitMinutes)
	assert.Equal(t, 21, *seated.ActualWaitMinutes)

	stored, err := env.repo.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, stored.Status)

	history, err := env.repo.ListHistory(ctx, restaurant.ID, t0.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 21, history[0].ActualWaitMinutes)
}

func TestTransitionToSeatedWithAutoAssign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "autoassign", models.RestaurantSettings{AutoAssignTables: true})
	env.addTable(t, restaurant.ID, "1", 6)
	small := env.addTable(t, restaurant.ID, "2", 2)

	entry := env.join(t, restaurant.ID, "alice", 2).Entry

	seated, err := env.queue.Transition(ctx, restaurant.ID, entry.ID, models.QueueSeated)
	require.NoError(t, err)
	require.NotNil(t, seated.TableID)
	assert.Equal(t, small.ID, *seated.TableID)
}

func TestStatusMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "status", models.RestaurantSettings{})
	table := env.addTable(t, restaurant.ID, "7", 4)

	a := env.join(t, restaurant.ID, "alice", 2).Entry
	b := env.join(t, restaurant.ID, "bob", 2).Entry
	c := env.join(t, restaurant.ID, "carol", 2).Entry

	view, err := env.queue.Status(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bistro status", view.RestaurantName)
	assert.Equal(t, 1, view.Position)
	assert.Equal(t, 15, view.EstimatedWaitMinutes)
	assert.Equal(t, "You are next!", view.StatusMessage)

	view, err = env.queue.Status(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Position)
	assert.Equal(t, 45, view.EstimatedWaitMinutes)
	assert.Equal(t, "2 parties ahead of you", view.StatusMessage)

	_, err = env.queue.Transition(ctx, restaurant.ID, b.ID, models.QueueCalled)
	require.NoError(t, err)
	view, err = env.queue.Status(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Your table is ready! Table TBD", view.StatusMessage)
	assert.Equal(t, 0, view.EstimatedWaitMinutes)
	assert.Equal(t, 1, view.Position)

	_, err = env.seating.Seat(ctx, restaurant.ID, a.ID, table.ID)
	require.NoError(t, err)
	view, err = env.queue.Status(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "You have been seated. Enjoy your meal!", view.StatusMessage)
	assert.Equal(t, "7", view.TableNumber)
	assert.NotNil(t, view.SeatedAt)
	assert.Equal(t, 1, view.Position)

	_, err = env.queue.Cancel(ctx, c.ID)
	require.NoError(t, err)
	view, err = env.queue.Status(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "You have left the queue", view.StatusMessage)
	assert.Equal(t, 0, view.Position)

	_, err = env.queue.Transition(ctx, restaurant.ID, b.ID, models.QueueNoShow)
	require.NoError(t, err)
	view, err = env.queue.Status(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Your reservation was marked as a no-show", view.StatusMessage)

	_, err = env.queue.Status(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestListActiveOrdersByJoinTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.createRestaurant(t, "dashboard", models.RestaurantSettings{})

	a := env.join(t, restaurant.ID, "alice", 2).Entry
	b := env.join(t, restaurant.ID, "bob", 2).Entry
	c := env.join(t, restaurant.ID, "carol", 2).Entry

	_, err := env.queue.Transition(ctx, restaurant.ID, a.ID, models.QueueCalled)
	require.NoError(t, err)
	_, err = env.queue.Cancel(ctx, b.ID)
	require.NoError(t, err)

	entries, err := env.queue.ListActive(ctx, restaurant.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, a.ID, entries[0].ID)
	assert.Equal(t, c.ID, entries[1].ID)
}
