package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/restaurant-waitlist/models"
	"gorm.io/gorm"
)

// GormRepository stores the waitlist in a relational database (MySQL in production, SQLite in
// development and tests).
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) DB() *gorm.DB {
	return r.db
}

// Migrate creates or updates the schema.
func (r *GormRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&models.Restaurant{},
		&models.Table{},
		&models.QueueEntry{},
		&models.QueueHistory{},
		&models.User{},
	)
}

func (r *GormRepository) RunInTx(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

func (r *GormRepository) LockRestaurant(ctx context.Context, restaurantID string) error {
	res := r.db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("id = ?", restaurantID).
		UpdateColumn("join_version", gorm.Expr("join_version + 1"))
	if res.Error != nil {
		return fmt.Errorf("lock restaurant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	stamp(&restaurant.ID, &restaurant.CreatedAt)
	restaurant.UpdatedAt = restaurant.CreatedAt
	if err := r.db.WithContext(ctx).Create(restaurant).Error; err != nil {
		return translate("create restaurant", err)
	}
	return nil
}

func (r *GormRepository) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, translate("get restaurant", err)
	}
	return &restaurant, nil
}

func (r *GormRepository) GetRestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "slug = ?", slug).Error; err != nil {
		return nil, translate("get restaurant by slug", err)
	}
	return &restaurant, nil
}

func (r *GormRepository) UpdateRestaurantSettings(ctx context.Context, id string, settings models.RestaurantSettings) error {
	res := r.db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"settings":   settings,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return translate("update restaurant settings", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) CreateTable(ctx context.Context, table *models.Table) error {
	stamp(&table.ID, &table.CreatedAt)
	table.UpdatedAt = table.CreatedAt
	if err := r.db.WithContext(ctx).Create(table).Error; err != nil {
		return translate("create table", err)
	}
	return nil
}

func (r *GormRepository) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).First(&table, "id = ?", id).Error; err != nil {
		return nil, translate("get table", err)
	}
	return &table, nil
}

func (r *GormRepository) ListTables(ctx context.Context, restaurantID string, filter TableFilter) ([]*models.Table, error) {
	q := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var tables []*models.Table
	if err := q.Order("id ASC").Find(&tables).Error; err != nil {
		return nil, translate("list tables", err)
	}
	return tables, nil
}

func (r *GormRepository) UpdateTable(ctx context.Context, table *models.Table, expectStatus ...string) error {
	table.UpdatedAt = time.Now().UTC()
	q := r.db.WithContext(ctx).Model(&models.Table{}).Where("id = ?", table.ID)
	if len(expectStatus) > 0 {
		q = q.Where("status IN ?", expectStatus)
	}
	if table.Status == models.TableOccupied {
		q = q.Where("is_active = ?", true)
	}

	res := q.Updates(map[string]interface{}{
		"table_number":          table.TableNumber,
		"seat_count":            table.SeatCount,
		"table_type":            table.TableType,
		"status":                table.Status,
		"occupied_at":           table.OccupiedAt,
		"current_party_size":    table.CurrentPartySize,
		"current_customer_name": table.CurrentCustomerName,
		"is_active":             table.IsActive,
		"updated_at":            table.UpdatedAt,
	})
	if res.Error != nil {
		return translate("update table", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrStale(ctx, &models.Table{}, table.ID)
	}
	return nil
}

func (r *GormRepository) CreateQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	stamp(&entry.ID, &entry.CreatedAt)
	entry.UpdatedAt = entry.CreatedAt
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return translate("create queue entry", err)
	}
	return nil
}

func (r *GormRepository) GetQueueEntry(ctx context.Context, id string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, translate("get queue entry", err)
	}
	return &entry, nil
}

func (r *GormRepository) FindActiveEntry(ctx context.Context, restaurantID, email string, since time.Time) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND customer_email = ?", restaurantID, email).
		Where("status IN ?", models.ActiveQueueStatuses).
		Where("created_at >= ?", since.UTC()).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		return nil, translate("find active entry", err)
	}
	return &entry, nil
}

func (r *GormRepository) ListQueueEntries(ctx context.Context, restaurantID string, statuses ...string) ([]*models.QueueEntry, error) {
	q := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var entries []*models.QueueEntry
	if err := q.Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, translate("list queue entries", err)
	}
	return entries, nil
}

func (r *GormRepository) CountQueueEntries(ctx context.Context, restaurantID, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("restaurant_id = ? AND status = ?", restaurantID, status).
		Count(&count).Error
	if err != nil {
		return 0, translate("count queue entries", err)
	}
	return count, nil
}

func (r *GormRepository) CountWaitingAhead(ctx context.Context, restaurantID string, createdAt time.Time, id string) (int64, error) {
	at := createdAt.UTC()
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("restaurant_id = ? AND status = ?", restaurantID, models.QueueWaiting).
		Where("created_at < ? OR (created_at = ? AND id <= ?)", at, at, id).
		Count(&count).Error
	if err != nil {
		return 0, translate("count waiting ahead", err)
	}
	return count, nil
}

func (r *GormRepository) UpdateQueueEntry(ctx context.Context, entry *models.QueueEntry, expectStatus ...string) error {
	entry.UpdatedAt = time.Now().UTC()
	q := r.db.WithContext(ctx).Model(&models.QueueEntry{}).Where("id = ?", entry.ID)
	if len(expectStatus) > 0 {
		q = q.Where("status IN ?", expectStatus)
	}

	res := q.Updates(map[string]interface{}{
		"table_id":               entry.TableID,
		"status":                 entry.Status,
		"actual_wait_minutes":    entry.ActualWaitMinutes,
		"last_notification_sent": entry.LastNotificationSent,
		"seated_at":              entry.SeatedAt,
		"completed_at":           entry.CompletedAt,
		"updated_at":             entry.UpdatedAt,
	})
	if res.Error != nil {
		return translate("update queue entry", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrStale(ctx, &models.QueueEntry{}, entry.ID)
	}
	return nil
}

func (r *GormRepository) MarkNotified(ctx context.Context, entryID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("id = ?", entryID).
		UpdateColumn("last_notification_sent", at.UTC())
	if res.Error != nil {
		return translate("mark notified", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) AppendHistory(ctx context.Context, history *models.QueueHistory) error {
	stamp(&history.ID, &history.CreatedAt)
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return translate("append history", err)
	}
	return nil
}

func (r *GormRepository) AverageWait(ctx context.Context, restaurantID string, partySize int, since time.Time) (WaitStats, error) {
	var row struct {
		AvgWait sql.NullFloat64
		Total   int64
	}
	err := r.db.WithContext(ctx).Model(&models.QueueHistory{}).
		Select("AVG(actual_wait_minutes) AS avg_wait, COUNT(*) AS total").
		Where("restaurant_id = ? AND party_size = ? AND created_at >= ?", restaurantID, partySize, since.UTC()).
		Scan(&row).Error
	if err != nil {
		return WaitStats{}, translate("average wait", err)
	}
	if row.Total == 0 || !row.AvgWait.Valid {
		return WaitStats{}, nil
	}
	return WaitStats{Average: row.AvgWait.Float64, Count: row.Total}, nil
}

func (r *GormRepository) ListHistory(ctx context.Context, restaurantID string, since time.Time) ([]*models.QueueHistory, error) {
	var rows []*models.QueueHistory
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND created_at >= ?", restaurantID, since.UTC()).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate("list history", err)
	}
	return rows, nil
}

func (r *GormRepository) CreateUser(ctx context.Context, user *models.User) error {
	stamp(&user.ID, &user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate("create user", err)
	}
	return nil
}

func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepository) Close(_ context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *GormRepository) missOrStale(ctx context.Context, model interface{}, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate("check record", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStale
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}
