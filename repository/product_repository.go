package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductRepository is the only component allowed to mutate product stock.
type ProductRepository interface {
	// Reserve decrements stock by quantity iff the product is active and
	// carries at least that much stock, as one atomic conditional update.
	// Returns *ProductNotFoundError or *InsufficientStockError on failure.
	Reserve(ctx context.Context, productID string, quantity int) (*models.StockUpdate, error)
	// Release re-increments stock by the previously reserved amounts. Used
	// only for manual compensation outside the transaction boundary.
	Release(ctx context.Context, updates []models.StockUpdate) error
	// FindByID is a plain, non-reserving read of an active product.
	FindByID(ctx context.Context, productID string) (*models.Product, error)
}

// MongoProductRepository implements ProductRepository against the catalog's
// products collection.
type MongoProductRepository struct {
	col *mongo.Collection
}

func NewMongoProductRepository(col *mongo.Collection) *MongoProductRepository {
	return &MongoProductRepository{col: col}
}

// Reserve performs the conditional decrement as a single findOneAndUpdate so
// two concurrent checkouts can never both take the last unit. When the update
// matches nothing, a follow-up lookup distinguishes a missing/inactive
// product from insufficient stock; that lookup is for error reporting only,
// the conditional update remains the authority on availability.
func (r *MongoProductRepository) Reserve(ctx context.Context, productID string, quantity int) (*models.StockUpdate, error) {
	filter := bson.M{
		"_id":    productID,
		"active": true,
		"stock":  bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"name": 1, "stock": 1, "price": 1})

	var updated models.Product
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("reserve stock for %s: %w", productID, err)
		}

		var product models.Product
		err = r.col.FindOne(ctx, bson.M{"_id": productID, "active": true},
			options.FindOne().SetProjection(bson.M{"name": 1, "stock": 1})).Decode(&product)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, &ProductNotFoundError{ProductID: productID}
			}
			return nil, fmt.Errorf("look up product %s: %w", productID, err)
		}

		return nil, &InsufficientStockError{
			ProductID: productID,
			Name:      product.Name,
			Available: product.Stock,
			Requested: quantity,
		}
	}

	return &models.StockUpdate{
		ProductID:     productID,
		ProductName:   updated.Name,
		PreviousStock: updated.Stock + quantity,
		NewStock:      updated.Stock,
		Reserved:      quantity,
	}, nil
}

func (r *MongoProductRepository) Release(ctx context.Context, updates []models.StockUpdate) error {
	for _, u := range updates {
		_, err := r.col.UpdateOne(ctx,
			bson.M{"_id": u.ProductID},
			bson.M{"$inc": bson.M{"stock": u.Reserved}},
		)
		if err != nil {
			return fmt.Errorf("release stock for %s: %w", u.ProductID, err)
		}
	}
	return nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := r.col.FindOne(ctx, bson.M{"_id": productID, "active": true},
		options.FindOne().SetProjection(bson.M{"name": 1, "stock": 1, "price": 1})).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, fmt.Errorf("find product %s: %w", productID, err)
	}
	product.ID = productID
	return &product, nil
}
