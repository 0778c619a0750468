package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rescueplate/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoListingRepository is a MongoDB implementation of ListingRepository.
type MongoListingRepository struct {
	coll  *mongo.Collection
	users UserRepository
}

// NewMongoListingRepository creates a repository over the "listings" collection of db.
func NewMongoListingRepository(db *mongo.Database, users UserRepository) *MongoListingRepository {
	return &MongoListingRepository{
		coll:  db.Collection("listings"),
		users: users,
	}
}

// EnsureIndexes creates the vendor and recency indexes used by the list queries.
func (r *MongoListingRepository) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "vendorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create listings indexes: %w", err)
	}
	return nil
}

// GetAll retrieves all listings, newest first.
func (r *MongoListingRepository) GetAll() ([]models.Listing, error) {
	return r.find(bson.M{})
}

// GetByID retrieves a single listing by its ID.
func (r *MongoListingRepository) GetByID(id string) (*models.Listing, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	var listing models.Listing
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&listing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("listing with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get listing by ID %s: %w", id, err)
	}

	one := []models.Listing{listing}
	if err := attachVendors(r.users, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// GetByVendor retrieves the listings owned by vendorID, newest first.
func (r *MongoListingRepository) GetByVendor(vendorID string) ([]models.Listing, error) {
	return r.find(bson.M{"vendorId": vendorID})
}

// Create inserts a new listing document.
func (r *MongoListingRepository) Create(listing *models.Listing) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, listing); err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a listing owned by listing.VendorID.
func (r *MongoListingRepository) Update(listing *models.Listing) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{
		"title":       listing.Title,
		"description": listing.Description,
		"price":       listing.Price,
		"category":    listing.Category,
		"quantity":    listing.Quantity,
		"pickupTime":  listing.PickupTime,
		"updatedAt":   now,
	}
	update := bson.M{"$set": set}
	if listing.OriginalPrice != nil {
		set["originalPrice"] = *listing.OriginalPrice
	} else {
		update["$unset"] = bson.M{"originalPrice": ""}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": listing.ID, "vendorId": listing.VendorID}, update)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("listing with ID %s for update: %w", listing.ID, models.ErrNotFound)
	}
	listing.UpdatedAt = now
	return nil
}

// Delete deletes a listing by its ID.
func (r *MongoListingRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("listing with ID %s for deletion: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *MongoListingRepository) find(filter bson.M) ([]models.Listing, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	listings := make([]models.Listing, 0)
	if err := cur.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	if err := attachVendors(r.users, listings); err != nil {
		return nil, err
	}
	return listings, nil
}
