package repositories

import (
	"errors"
	"fmt"
	"time"

	"rescueplate/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMListingRepository is a GORM implementation of ListingRepository.
type GORMListingRepository struct {
	db    *gorm.DB
	users UserRepository
}

// NewGORMListingRepository creates a new instance of GORMListingRepository.
// users is used to resolve the vendor of each listing read.
func NewGORMListingRepository(db *gorm.DB, users UserRepository) *GORMListingRepository {
	return &GORMListingRepository{
		db:    db,
		users: users,
	}
}

// GetAll retrieves all listings, newest first.
func (r *GORMListingRepository) GetAll() ([]models.Listing, error) {
	listings := make([]models.Listing, 0)
	if err := r.db.Order("created_at desc").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to get all listings: %w", err)
	}
	if err := attachVendors(r.users, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetByID retrieves a single listing by its ID.
func (r *GORMListingRepository) GetByID(id string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
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
func (r *GORMListingRepository) GetByVendor(vendorID string) ([]models.Listing, error) {
	listings := make([]models.Listing, 0)
	if err := r.db.Where("vendor_id = ?", vendorID).Order("created_at desc").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to get listings of vendor %s: %w", vendorID, err)
	}
	if err := attachVendors(r.users, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Create creates a new listing in the database.
func (r *GORMListingRepository) Create(listing *models.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if err := r.db.Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a listing owned by listing.VendorID.
func (r *GORMListingRepository) Update(listing *models.Listing) error {
	now := time.Now()
	res := r.db.Model(&models.Listing{}).
		Where("id = ? AND vendor_id = ?", listing.ID, listing.VendorID).
		Updates(map[string]interface{}{
			"title":          listing.Title,
			"description":    listing.Description,
			"price":          listing.Price,
			"original_price": listing.OriginalPrice,
			"category":       string(listing.Category),
			"quantity":       listing.Quantity,
			"pickup_time":    listing.PickupTime,
			"updated_at":     now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("listing with ID %s for update: %w", listing.ID, models.ErrNotFound)
	}
	listing.UpdatedAt = now
	return nil
}

// Delete deletes a listing by its ID.
func (r *GORMListingRepository) Delete(id string) error {
	res := r.db.Delete(&models.Listing{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("listing with ID %s for deletion: %w", id, models.ErrNotFound)
	}
	return nil
}
