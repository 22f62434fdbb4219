package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/restaurant-waitlist/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colRestaurants = "restaurants"
	colTables      = "tables"
	colQueue       = "queue_entries"
	colHistory     = "queue_history"
	colUsers       = "users"
)

// MongoRepository stores the waitlist as MongoDB documents. Transactions need a replica set.
type MongoRepository struct {
	client *mongo.Client
	db     *mongo.Database
	// sc is set on the copy handed to RunInTx callbacks.
	sc mongo.SessionContext
}

func NewMongoRepository(client *mongo.Client, database string) *MongoRepository {
	return &MongoRepository{client: client, db: client.Database(database)}
}

// ctx routes every call made inside a transaction through its session.
func (r *MongoRepository) ctx(ctx context.Context) context.Context {
	if r.sc != nil {
		return r.sc
	}
	return ctx
}

func (r *MongoRepository) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colRestaurants: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colTables: {
			{Keys: bson.D{{Key: "restaurantId", Value: 1}, {Key: "isActive", Value: 1}}},
		},
		colQueue: {
			{Keys: bson.D{{Key: "restaurantId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "restaurantId", Value: 1}, {Key: "customerEmail", Value: 1}}},
		},
		colHistory: {
			{Keys: bson.D{{Key: "restaurantId", Value: 1}, {Key: "partySize", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for col, idx := range indexes {
		if _, err := r.db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", col, err)
		}
	}
	return nil
}

func (r *MongoRepository) RunInTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.sc != nil {
		return fn(r)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&MongoRepository{client: r.client, db: r.db, sc: sc})
	})
	return err
}

func (r *MongoRepository) LockRestaurant(ctx context.Context, restaurantID string) error {
	res, err := r.db.Collection(colRestaurants).UpdateOne(r.ctx(ctx),
		bson.M{"_id": restaurantID},
		bson.M{"$inc": bson.M{"joinVersion": 1}},
	)
	if err != nil {
		return fmt.Errorf("lock restaurant: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	stamp(&restaurant.ID, &restaurant.CreatedAt)
	restaurant.UpdatedAt = restaurant.CreatedAt
	return r.insert(ctx, colRestaurants, "create restaurant", restaurant)
}

func (r *MongoRepository) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.findOne(ctx, colRestaurants, bson.M{"_id": id}, &restaurant); err != nil {
		return nil, mongoErr("get restaurant", err)
	}
	return &restaurant, nil
}

func (r *MongoRepository) GetRestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.findOne(ctx, colRestaurants, bson.M{"slug": slug}, &restaurant); err != nil {
		return nil, mongoErr("get restaurant by slug", err)
	}
	return &restaurant, nil
}

func (r *MongoRepository) UpdateRestaurantSettings(ctx context.Context, id string, settings models.RestaurantSettings) error {
	res, err := r.db.Collection(colRestaurants).UpdateOne(r.ctx(ctx),
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"settings": settings, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return mongoErr("update restaurant settings", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) CreateTable(ctx context.Context, table *models.Table) error {
	stamp(&table.ID, &table.CreatedAt)
	table.UpdatedAt = table.CreatedAt
	return r.insert(ctx, colTables, "create table", table)
}

func (r *MongoRepository) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	if err := r.findOne(ctx, colTables, bson.M{"_id": id}, &table); err != nil {
		return nil, mongoErr("get table", err)
	}
	return &table, nil
}

func (r *MongoRepository) ListTables(ctx context.Context, restaurantID string, filter TableFilter) ([]*models.Table, error) {
	query := bson.M{"restaurantId": restaurantID}
	if filter.ActiveOnly {
		query["isActive"] = true
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	var tables []*models.Table
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := r.findMany(ctx, colTables, query, opts, &tables); err != nil {
		return nil, mongoErr("list tables", err)
	}
	return tables, nil
}

func (r *MongoRepository) UpdateTable(ctx context.Context, table *models.Table, expectStatus ...string) error {
	table.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"tableNumber":         table.TableNumber,
		"seatCount":           table.SeatCount,
		"tableType":           table.TableType,
		"status":              table.Status,
		"occupiedAt":          table.OccupiedAt,
		"currentPartySize":    table.CurrentPartySize,
		"currentCustomerName": table.CurrentCustomerName,
		"isActive":            table.IsActive,
		"updatedAt":           table.UpdatedAt,
	}
	var guard bson.M
	if table.Status == models.TableOccupied {
		guard = bson.M{"isActive": true}
	}
	return r.casUpdate(ctx, colTables, "update table", table.ID, set, expectStatus, guard)
}

func (r *MongoRepository) CreateQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	stamp(&entry.ID, &entry.CreatedAt)
	entry.UpdatedAt = entry.CreatedAt
	return r.insert(ctx, colQueue, "create queue entry", entry)
}

func (r *MongoRepository) GetQueueEntry(ctx context.Context, id string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := r.findOne(ctx, colQueue, bson.M{"_id": id}, &entry); err != nil {
		return nil, mongoErr("get queue entry", err)
	}
	return &entry, nil
}

func (r *MongoRepository) FindActiveEntry(ctx context.Context, restaurantID, email string, since time.Time) (*models.QueueEntry, error) {
	query := bson.M{
		"restaurantId":  restaurantID,
		"customerEmail": email,
		"status":        bson.M{"$in": models.ActiveQueueStatuses},
		"createdAt":     bson.M{"$gte": since.UTC()},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var entry models.QueueEntry
	if err := r.db.Collection(colQueue).FindOne(r.ctx(ctx), query, opts).Decode(&entry); err != nil {
		return nil, mongoErr("find active entry", err)
	}
	return &entry, nil
}

func (r *MongoRepository) ListQueueEntries(ctx context.Context, restaurantID string, statuses ...string) ([]*models.QueueEntry, error) {
	query := bson.M{"restaurantId": restaurantID}
	if len(statuses) > 0 {
		query["status"] = bson.M{"$in": statuses}
	}

	var entries []*models.QueueEntry
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if err := r.findMany(ctx, colQueue, query, opts, &entries); err != nil {
		return nil, mongoErr("list queue entries", err)
	}
	return entries, nil
}

func (r *MongoRepository) CountQueueEntries(ctx context.Context, restaurantID, status string) (int64, error) {
	count, err := r.db.Collection(colQueue).CountDocuments(r.ctx(ctx), bson.M{
		"restaurantId": restaurantID,
		"status":       status,
	})
	if err != nil {
		return 0, mongoErr("count queue entries", err)
	}
	return count, nil
}

func (r *MongoRepository) CountWaitingAhead(ctx context.Context, restaurantID string, createdAt time.Time, id string) (int64, error) {
	at := createdAt.UTC()
	count, err := r.db.Collection(colQueue).CountDocuments(r.ctx(ctx), bson.M{
		"restaurantId": restaurantID,
		"status":       models.QueueWaiting,
		"$or": bson.A{
			bson.M{"createdAt": bson.M{"$lt": at}},
			bson.M{"createdAt": at, "_id": bson.M{"$lte": id}},
		},
	})
	if err != nil {
		return 0, mongoErr("count waiting ahead", err)
	}
	return count, nil
}

func (r *MongoRepository) UpdateQueueEntry(ctx context.Context, entry *models.QueueEntry, expectStatus ...string) error {
	entry.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"tableId":              entry.TableID,
		"status":               entry.Status,
		"actualWaitMinutes":    entry.ActualWaitMinutes,
		"lastNotificationSent": entry.LastNotificationSent,
		"seatedAt":             entry.SeatedAt,
		"completedAt":          entry.CompletedAt,
		"updatedAt":            entry.UpdatedAt,
	}
	return r.casUpdate(ctx, colQueue, "update queue entry", entry.ID, set, expectStatus, nil)
}

func (r *MongoRepository) MarkNotified(ctx context.Context, entryID string, at time.Time) error {
	res, err := r.db.Collection(colQueue).UpdateOne(r.ctx(ctx),
		bson.M{"_id": entryID},
		bson.M{"$set": bson.M{"lastNotificationSent": at.UTC()}},
	)
	if err != nil {
		return mongoErr("mark notified", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) AppendHistory(ctx context.Context, history *models.QueueHistory) error {
	stamp(&history.ID, &history.CreatedAt)
	return r.insert(ctx, colHistory, "append history", history)
}

func (r *MongoRepository) AverageWait(ctx context.Context, restaurantID string, partySize int, since time.Time) (WaitStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"restaurantId": restaurantID,
			"partySize":    partySize,
			"createdAt":    bson.M{"$gte": since.UTC()},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$actualWaitMinutes"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cur, err := r.db.Collection(colHistory).Aggregate(r.ctx(ctx), pipeline)
	if err != nil {
		return WaitStats{}, mongoErr("average wait", err)
	}
	defer cur.Close(r.ctx(ctx))

	var rows []struct {
		Avg   float64 `bson:"avg"`
		Count int64   `bson:"count"`
	}
	if err := cur.All(r.ctx(ctx), &rows); err != nil {
		return WaitStats{}, mongoErr("average wait", err)
	}
	if len(rows) == 0 || rows[0].Count == 0 {
		return WaitStats{}, nil
	}
	return WaitStats{Average: rows[0].Avg, Count: rows[0].Count}, nil
}

func (r *MongoRepository) ListHistory(ctx context.Context, restaurantID string, since time.Time) ([]*models.QueueHistory, error) {
	query := bson.M{
		"restaurantId": restaurantID,
		"createdAt":    bson.M{"$gte": since.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	var rows []*models.QueueHistory
	if err := r.findMany(ctx, colHistory, query, opts, &rows); err != nil {
		return nil, mongoErr("list history", err)
	}
	return rows, nil
}

func (r *MongoRepository) CreateUser(ctx context.Context, user *models.User) error {
	stamp(&user.ID, &user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	return r.insert(ctx, colUsers, "create user", user)
}

func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.findOne(ctx, colUsers, bson.M{"email": email}, &user); err != nil {
		return nil, mongoErr("get user", err)
	}
	return &user, nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) insert(ctx context.Context, col, op string, doc interface{}) error {
	if _, err := r.db.Collection(col).InsertOne(r.ctx(ctx), doc); err != nil {
		return mongoErr(op, err)
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, col string, query bson.M, out interface{}) error {
	return r.db.Collection(col).FindOne(r.ctx(ctx), query).Decode(out)
}

func (r *MongoRepository) findMany(ctx context.Context, col string, query bson.M, opts *options.FindOptions, out interface{}) error {
	cur, err := r.db.Collection(col).Find(r.ctx(ctx), query, opts)
	if err != nil {
		return err
	}
	return cur.All(r.ctx(ctx), out)
}

func (r *MongoRepository) casUpdate(ctx context.Context, col, op, id string, set bson.M, expectStatus []string, guard bson.M) error {
	query := bson.M{"_id": id}
	if len(expectStatus) > 0 {
		query["status"] = bson.M{"$in": expectStatus}
	}
	for k, v := range guard {
		query[k] = v
	}

	res, err := r.db.Collection(col).UpdateOne(r.ctx(ctx), query, bson.M{"$set": set})
	if err != nil {
		return mongoErr(op, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	exists, err := r.db.Collection(col).CountDocuments(r.ctx(ctx), bson.M{"_id": id})
	if err != nil {
		return mongoErr(op, err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrStale
}

func mongoErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}
