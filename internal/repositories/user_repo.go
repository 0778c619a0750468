package repositories

import "rescueplate/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	// GetSummaries returns the display fields of the given users keyed by ID.
	// Unknown IDs are skipped.
	GetSummaries(ids []string) (map[string]models.VendorSummary, error)
}
