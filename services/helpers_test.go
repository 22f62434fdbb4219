package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/repository"
	"github.com/yeremiapane/restaurant-waitlist/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2024, time.March, 8, 18, 0, 0, 0, time.UTC)

type sentEmail struct {
	To      string
	Subject string
	HTML    string
}

// fakeNotifier records every email and reports the configured outcome.
type fakeNotifier struct {
	mu   sync.Mutex
	fail bool
	sent []sentEmail
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, html string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return false
	}
	n.sent = append(n.sent, sentEmail{To: to, Subject: subject, HTML: html})
	return true
}

func (n *fakeNotifier) Sent() []sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEmail(nil), n.sent...)
}

type testEnv struct {
	repo     repository.Repository
	clock    *services.FixedClock
	notifier *fakeNotifier

	restaurants *services.RestaurantService
	tables      *services.TableService
	seating     *services.SeatingService
	queue       *services.QueueService
	users       *services.UserService
	exporter    *services.HistoryExporter
}

// setupTestRepo membuka SQLite in-memory yang terpisah untuk setiap test.
func setupTestRepo(t *testing.T) repository.Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := repository.NewGormRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return repo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := setupTestRepo(t)
	clock := &services.FixedClock{T: t0}
	notifier := &fakeNotifier{}
	seating := services.NewSeatingService(repo, notifier, clock, time.UTC, "http://waitlist.test")

	return &testEnv{
		repo:        repo,
		clock:       clock,
		notifier:    notifier,
		restaurants: services.NewRestaurantService(repo),
		tables:      services.NewTableService(repo),
		seating:     seating,
		queue:       services.NewQueueService(repo, seating, notifier, clock, "http://waitlist.test"),
		users:       services.NewUserService(repo),
		exporter:    services.NewHistoryExporter(repo, clock, time.UTC),
	}
}

func (e *testEnv) createRestaurant(t *testing.T, slug string, settings models.RestaurantSettings) *models.Restaurant {
	t.Helper()

	restaurant := &models.Restaurant{
		Name:                  "Bistro " + slug,
		Slug:                  slug,
		AvgServiceTimeMinutes: 45,
		Settings:              settings,
	}
	require.NoError(t, e.restaurants.Create(context.Background(), restaurant))
	return restaurant
}

func (e *testEnv) addTable(t *testing.T, restaurantID, number string, seats int) *models.Table {
	t.Helper()

	table, err := e.tables.Add(context.Background(), restaurantID, number, seats, "")
	require.NoError(t, err)
	return table
}

// join adds a party and moves the clock one minute so queue order is deterministic.
func (e *testEnv) join(t *testing.T, restaurantID, name string, partySize int) *services.JoinResult {
	t.Helper()

	email := fmt.Sprintf("%s@example.com", name)
	res, err := e.queue.Join(context.Background(), restaurantID, name, email, partySize)
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	return res
}
