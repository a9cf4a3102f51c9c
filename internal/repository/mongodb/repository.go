package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/repository"
)

const (
	receiptsCollection     = "stock_receipts"
	consumptionsCollection = "stock_consumptions"
	inventoryCollection    = "current_inventory"
	auditCollection        = "audit_logs"
)

// MongoDBRepository is the remote record store backed by MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// CreateReceipt inserts a new receipt.
func (r *MongoDBRepository) CreateReceipt(ctx context.Context, record models.ReceiptRecord) error {
	return r.insert(ctx, receiptsCollection, record)
}

// UpdateReceipt replaces the receipt with the given id.
func (r *MongoDBRepository) UpdateReceipt(ctx context.Context, id string, record models.ReceiptRecord) error {
	record.ID = id
	return r.replace(ctx, receiptsCollection, id, record)
}

// ListReceipts returns receipts matching the filter.
func (r *MongoDBRepository) ListReceipts(ctx context.Context, filter models.ListFilter) ([]models.ReceiptRecord, error) {
	var out []models.ReceiptRecord
	if err := r.find(ctx, receiptsCollection, buildFilter(filter, "delivery_date"), filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConsumption inserts a new consumption.
func (r *MongoDBRepository) CreateConsumption(ctx context.Context, record models.ConsumptionRecord) error {
	return r.insert(ctx, consumptionsCollection, record)
}

// UpdateConsumption replaces the consumption with the given id.
func (r *MongoDBRepository) UpdateConsumption(ctx context.Context, id string, record models.ConsumptionRecord) error {
	record.ID = id
	return r.replace(ctx, consumptionsCollection, id, record)
}

// ListConsumptions returns consumptions matching the filter.
func (r *MongoDBRepository) ListConsumptions(ctx context.Context, filter models.ListFilter) ([]models.ConsumptionRecord, error) {
	var out []models.ConsumptionRecord
	if err := r.find(ctx, consumptionsCollection, buildFilter(filter, "date"), filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceInventory rewrites the materialized current inventory collection.
func (r *MongoDBRepository) ReplaceInventory(ctx context.Context, items []models.InventoryItem) error {
	coll := r.db.Collection(inventoryCollection)
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear current inventory: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		docs = append(docs, item)
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert current inventory: %w", err)
	}
	return nil
}

// ListInventory reads the materialized current inventory collection.
func (r *MongoDBRepository) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	cursor, err := r.db.Collection(inventoryCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query current inventory: %w", err)
	}
	var out []models.InventoryItem
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode current inventory: %w", err)
	}
	return out, nil
}

// SaveAuditLog stores an audit entry.
func (r *MongoDBRepository) SaveAuditLog(ctx context.Context, entry models.AuditLog) error {
	return r.insert(ctx, auditCollection, entry)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) insert(ctx context.Context, collection string, doc interface{}) error {
	if _, err := r.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert into %s: %w", collection, repository.ErrDuplicateID)
		}
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return nil
}

func (r *MongoDBRepository) replace(ctx context.Context, collection, id string, doc interface{}) error {
	res, err := r.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s %s: %w", collection, id, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoDBRepository) find(ctx context.Context, collection string, query bson.M, filter models.ListFilter, out interface{}) error {
	cursor, err := r.db.Collection(collection).Find(ctx, query, options.Find().SetSort(sortSpec(filter)))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("query %s timed out: %w", collection, err)
		}
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

func buildFilter(filter models.ListFilter, dateField string) bson.M {
	query := bson.M{}
	if filter.ItemCode != "" {
		query["item_code"] = filter.ItemCode
	}

	dateRange := bson.M{}
	if filter.Range.From != "" {
		dateRange["$gte"] = filter.Range.From
	}
	if filter.Range.To != "" {
		dateRange["$lte"] = filter.Range.To
	}
	if len(dateRange) > 0 {
		query[dateField] = dateRange
	}
	return query
}

func sortSpec(filter models.ListFilter) bson.D {
	field := filter.OrderBy
	if field == "" {
		field = "created_at"
	}
	order := 1
	if filter.Descending {
		order = -1
	}
	return bson.D{{Key: field, Value: order}, {Key: "_id", Value: order}}
}
