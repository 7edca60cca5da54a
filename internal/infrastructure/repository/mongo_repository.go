package repository

import (
	"context"
	"fmt"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/repository/entity"
	"shopify-insights-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// webhookRetention bounds how long audit documents are kept
const webhookRetention = 30 * 24 * time.Hour

// MongoWebhookLog implements WebhookAuditLog using MongoDB
type MongoWebhookLog struct {
	webhooksCollection *mongo.Collection
}

var _ ports.WebhookAuditLog = (*MongoWebhookLog)(nil)

// NewMongoWebhookLog creates a new MongoDB webhook audit log
func NewMongoWebhookLog(db *mongo.Database) *MongoWebhookLog {
	return &MongoWebhookLog{
		webhooksCollection: db.Collection("webhook_events"),
	}
}

// EnsureIndexes creates the lookup and TTL indexes
func (r *MongoWebhookLog) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "shop", Value: 1}, {Key: "receivedAt", Value: -1}}},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(webhookRetention.Seconds())),
		},
	}
	if _, err := r.webhooksCollection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create webhook indexes: %w", err)
	}
	return nil
}

// LogWebhook logs a webhook event
func (r *MongoWebhookLog) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	doc := entity.MongoWebhookDocFromDomain(event)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err := r.webhooksCollection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}

	return nil
}

// ListRecent returns the latest deliveries for a shop, newest first
func (r *MongoWebhookLog) ListRecent(ctx context.Context, shop string, limit int64) ([]*domain.WebhookEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "receivedAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.webhooksCollection.Find(ctx, bson.M{"shop": shop}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*domain.WebhookEvent
	for cursor.Next(ctx) {
		var doc entity.MongoWebhookDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode webhook: %w", err)
		}
		events = append(events, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return events, nil
}
