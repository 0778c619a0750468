package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"rescueplate/internal/models"

	"github.com/google/uuid"
)

// InMemoryListingRepository is an in-memory implementation of ListingRepository.
type InMemoryListingRepository struct {
	listings map[string]models.Listing
	users    UserRepository
	mu       sync.RWMutex
}

// NewInMemoryListingRepository creates a new instance of InMemoryListingRepository.
func NewInMemoryListingRepository(users UserRepository) *InMemoryListingRepository {
	return &InMemoryListingRepository{
		listings: make(map[string]models.Listing),
		users:    users,
	}
}

// GetAll returns all listings, newest first.
func (r *InMemoryListingRepository) GetAll() ([]models.Listing, error) {
	return r.collect(func(models.Listing) bool { return true })
}

// GetByID returns a listing by its ID.
func (r *InMemoryListingRepository) GetByID(id string) (*models.Listing, error) {
	r.mu.RLock()
	listing, ok := r.listings[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("listing with ID %s: %w", id, models.ErrNotFound)
	}

	one := []models.Listing{listing}
	if err := attachVendors(r.users, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// GetByVendor returns the listings of one vendor, newest first.
func (r *InMemoryListingRepository) GetByVendor(vendorID string) ([]models.Listing, error) {
	return r.collect(func(l models.Listing) bool { return l.VendorID == vendorID })
}

// Create adds a new listing.
func (r *InMemoryListingRepository) Create(listing *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	stored := *listing
	stored.Vendor = nil
	r.listings[listing.ID] = stored
	return nil
}

// Update replaces a listing if it exists and belongs to listing.VendorID.
func (r *InMemoryListingRepository) Update(listing *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.listings[listing.ID]
	if !ok || existing.VendorID != listing.VendorID {
		return fmt.Errorf("listing with ID %s for update: %w", listing.ID, models.ErrNotFound)
	}
	listing.CreatedAt = existing.CreatedAt
	listing.UpdatedAt = time.Now()
	stored := *listing
	stored.Vendor = nil
	r.listings[listing.ID] = stored
	return nil
}

// Delete removes a listing by its ID.
func (r *InMemoryListingRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return fmt.Errorf("listing with ID %s for deletion: %w", id, models.ErrNotFound)
	}
	delete(r.listings, id)
	return nil
}

func (r *InMemoryListingRepository) collect(keep func(models.Listing) bool) ([]models.Listing, error) {
	r.mu.RLock()
	list := make([]models.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if keep(l) {
			list = append(list, l)
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if err := attachVendors(r.users, list); err != nil {
		return nil, err
	}
	return list, nil
}
