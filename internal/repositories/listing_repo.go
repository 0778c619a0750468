package repositories

import "rescueplate/internal/models"

// ListingRepository defines the interface for listing data access.
// Reads attach the vendor summary; GetAll and GetByVendor return the newest first.
type ListingRepository interface {
	GetAll() ([]models.Listing, error)
	GetByID(id string) (*models.Listing, error)
	GetByVendor(vendorID string) ([]models.Listing, error)
	Create(listing *models.Listing) error
	// Update writes every mutable field of listing, but only if a row with
	// the same ID and VendorID exists.
	Update(listing *models.Listing) error
	Delete(id string) error
}
