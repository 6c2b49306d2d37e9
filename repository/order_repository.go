package repository

import (
	"context"
	"fmt"
	"time"

	"order-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// OrderRepository persists orders. On the checkout path Create must be
// called with a transaction context from UnitOfWork so the insert commits
// together with the stock decrements.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
}

// MongoOrderRepository implements OrderRepository on the orders collection.
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(col *mongo.Collection) *MongoOrderRepository {
	return &MongoOrderRepository{col: col}
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	res, err := r.col.InsertOne(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}
	return order, nil
}
