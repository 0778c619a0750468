package services

import (
	"fmt"
	"log"
	"time"

	"rescueplate/internal/models"
	"rescueplate/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// EventPublisher delivers listing change notifications.
type EventPublisher interface {
	PublishListingEvent(event models.ListingEvent) error
}

// ListingService guards listing writes with existence and ownership checks.
type ListingService struct {
	repo      repositories.ListingRepository
	publisher EventPublisher // nil disables events
	validate  *validator.Validate
}

// NewListingService creates a new ListingService.
func NewListingService(repo repositories.ListingRepository, publisher EventPublisher) *ListingService {
	return &ListingService{
		repo:      repo,
		publisher: publisher,
		validate:  NewValidator(),
	}
}

// FindAll retrieves every listing, newest first.
func (s *ListingService) FindAll() ([]models.Listing, error) {
	return s.repo.GetAll()
}

// FindOne retrieves a single listing by its ID.
func (s *ListingService) FindOne(id string) (*models.Listing, error) {
	return s.repo.GetByID(id)
}

// FindByVendor retrieves the listings owned by callerID.
func (s *ListingService) FindByVendor(callerID string) ([]models.Listing, error) {
	return s.repo.GetByVendor(callerID)
}

// Create stores a new listing owned by callerID.
func (s *ListingService) Create(input models.CreateListingInput, callerID string) (*models.Listing, error) {
	if err := ValidateStruct(s.validate, input); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		Title:         input.Title,
		Description:   input.Description,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Category:      input.Category,
		Quantity:      input.Quantity,
		PickupTime:    input.PickupTime,
		VendorID:      callerID,
	}
	if err := s.repo.Create(listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.publish(models.EventListingCreated, listing)
	return listing, nil
}

// Update merges the non-nil fields of patch into a listing owned by callerID.
func (s *ListingService) Update(id string, patch models.UpdateListingInput, callerID string) (*models.Listing, error) {
	if err := ValidateStruct(s.validate, patch); err != nil {
		return nil, err
	}

	listing, err := s.ownedListing(id, callerID, "update")
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return listing, nil
	}

	patch.ApplyTo(listing)
	if err := s.repo.Update(listing); err != nil {
		return nil, fmt.Errorf("failed to update listing %s: %w", id, err)
	}

	s.publish(models.EventListingUpdated, listing)
	return listing, nil
}

// Remove deletes a listing owned by callerID.
func (s *ListingService) Remove(id string, callerID string) error {
	listing, err := s.ownedListing(id, callerID, "delete")
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}

	s.publish(models.EventListingDeleted, listing)
	return nil
}

func (s *ListingService) ownedListing(id, callerID, action string) (*models.Listing, error) {
	listing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if listing.VendorID != callerID {
		return nil, fmt.Errorf("you can only %s your own listings: %w", action, models.ErrForbidden)
	}
	return listing, nil
}

func (s *ListingService) publish(eventType string, listing *models.Listing) {
	if s.publisher == nil {
		return
	}

	event := models.ListingEvent{
		Type:       eventType,
		ListingID:  listing.ID,
		VendorID:   listing.VendorID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishListingEvent(event); err != nil {
		log.Printf("Warning: Failed to publish %s event for listing %s: %v", eventType, listing.ID, err)
	}
}
