package services_test

import (
	"errors"
	"fmt"
	"testing"

	"rescueplate/internal/models"
	"rescueplate/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func pizzaInput() models.CreateListingInput {
	return models.CreateListingInput{
		Title:         "5 Large Pizzas",
		Description:   "Unsold pizzas from tonight",
		Price:         12.99,
		OriginalPrice: floatPtr(45.00),
		Category:      models.CategoryHuman,
		Quantity:      "5 boxes",
		PickupTime:    "Today 9-10 PM",
	}
}

func pizzaListing() *models.Listing {
	return &models.Listing{
		ID:            "listing-1",
		Title:         "5 Large Pizzas",
		Description:   "Unsold pizzas from tonight",
		Price:         12.99,
		OriginalPrice: floatPtr(45.00),
		Category:      models.CategoryHuman,
		Quantity:      "5 boxes",
		PickupTime:    "Today 9-10 PM",
		VendorID:      "vendor-1",
	}
}

func TestListingService_FindAll(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := services.NewListingService(mockRepo, nil)

	expected := []models.Listing{*pizzaListing()}
	mockRepo.On("GetAll").Return(expected, nil).Once()

	listings, err := service.FindAll()
	assert.NoError(t, err)
	assert.Equal(t, expected, listings)
	mockRepo.AssertExpectations(t)
}

func TestListingService_FindOne(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := services.NewListingService(mockRepo, nil)

	mockRepo.On("GetByID", "listing-1").Return(pizzaListing(), nil).Once()
	listing, err := service.FindOne("listing-1")
	assert.NoError(t, err)
	assert.Equal(t, "5 Large Pizzas", listing.Title)

	mockRepo.On("GetByID", "missing").Return(nil, fmt.Errorf("listing missing: %w", models.ErrNotFound)).Once()
	listing, err = service.FindOne("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, listing)
	mockRepo.AssertExpectations(t)
}

func TestListingService_FindByVendor(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := services.NewListingService(mockRepo, nil)

	mine := []models.Listing{*pizzaListing()}
	mockRepo.On("GetByVendor", "vendor-1").Return(mine, nil).Once()

	listings, err := service.FindByVendor("vendor-1")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "vendor-1", listings[0].VendorID)
	mockRepo.AssertExpectations(t)
}

func TestListingService_Create_StampsCaller(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockPublisher := new(MockPublisher)
	service := services.NewListingService(mockRepo, mockPublisher)

	mockRepo.On("Create", mock.MatchedBy(func(l *models.Listing) bool {
		return l.VendorID == "vendor-1" && l.Title == "5 Large Pizzas"
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Listing).ID = "listing-1"
	}).Return(nil).Once()
	mockPublisher.On("PublishListingEvent", mock.MatchedBy(func(e models.ListingEvent) bool {
		return e.Type == models.EventListingCreated && e.ListingID == "listing-1" && e.VendorID == "vendor-1"
	})).Return(nil).Once()

	listing, err := service.Create(pizzaInput(), "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, "listing-1", listing.ID)
	assert.Equal(t, "vendor-1", listing.VendorID)
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestListingService_Create_Validation(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := services.NewListingService(mockRepo, nil)

	input := pizzaInput()
	input.Title = ""
	input.Price = -1
	input.Category = "PLANTS"

	_, err := service.Create(input, "vendor-1")
	require.Error(t, err)

	var validationErr *models.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Fields, "title")
	assert.Contains(t, validationErr.Fields, "price")
	assert.Contains(t, validationErr.Fields, "category")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestListingService_Create_PublisherFailureIgnored(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockPublisher := new(MockPublisher)
	service := services.NewListingService(mockRepo, mockPublisher)

	mockRepo.On("Create", mock.Anything).Return(nil).Once()
	mockPublisher.On("PublishListingEvent", mock.Anything).Return(fmt.Errorf("broker down")).Once()

	listing, err := service.Create(pizzaInput(), "vendor-1")
	assert.NoError(t, err)
	assert.NotNil(t, listing)
	mockPublisher.AssertExpectations(t)
}

func TestListingService_Update(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockPublisher := new(MockPublisher)
	service := services.NewListingService(mockRepo, mockPublisher)

	mockRepo.On("GetByID", "listing-1").Return(pizzaListing(), nil).Once()
	mockRepo.On("Update", mock.MatchedBy(func(l *models.Listing) bool {
		return l.Price == 9.99 && l.Title == "5 Large Pizzas" && l.VendorID == "vendor-1"
	})).Return(nil).Once()
	mockPublisher.On("PublishListingEvent", mock.MatchedBy(func(e models.ListingEvent) bool {
		return e.Type == models.EventListingUpdated
	})).Return(nil).Once()

	listing, err := service.Update("listing-1", models.UpdateListingInput{Price: floatPtr(9.99)}, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, 9.99, listing.Price)
	assert.Equal(t, "Unsold pizzas from tonight", listing.Description)
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestListingService_Update_EmptyPatch(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockPublisher := new(MockPublisher)
	service := services.NewListingService(mockRepo, mockPublisher)

	mockRepo.On("GetByID", "listing-1").Return(pizzaListing(), nil).Once()

	listing, err := service.Update("listing-1", models.UpdateListingInput{}, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, pizzaListing(), listing)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
	mockPublisher.AssertNotCalled(t, "PublishListingEvent", mock.Anything)
}

func TestListingService_Update_NotOwner(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := services.NewListingService(mockRepo, nil)

	mockRepo.On("GetByID", "listing-1").Return(pizzaListing(), nil).Once()

	listing, err := service.Update("listing-1", models.UpdateListingInput{Title: strPtr("Mine now")}, "vendor-2")
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Nil(t, listing)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestListingService_Update_NotFound(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := services.NewListingService(mockRepo, nil)

	mockRepo.On("GetByID", "missing").Return(nil, models.ErrNotFound).Once()

	_, err := service.Update("missing", models.UpdateListingInput{Title: strPtr("x")}, "vendor-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestListingService_Update_InvalidPatch(t *testing.T) {
	mockRepo := new(MockListingRepository)
	service := services.NewListingService(mockRepo, nil)

	_, err := service.Update("listing-1", models.UpdateListingInput{Price: floatPtr(0)}, "vendor-1")
	assert.ErrorIs(t, err, models.ErrValidation)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything)
}

func TestListingService_Remove(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockPublisher := new(MockPublisher)
	service := services.NewListingService(mockRepo, mockPublisher)

	// Test removal by a different vendor
	mockRepo.On("GetByID", "listing-1").Return(pizzaListing(), nil).Once()
	err := service.Remove("listing-1", "vendor-2")
	assert.ErrorIs(t, err, models.ErrForbidden)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything)

	// Test removal by the owner
	mockRepo.On("GetByID", "listing-1").Return(pizzaListing(), nil).Once()
	mockRepo.On("Delete", "listing-1").Return(nil).Once()
	mockPublisher.On("PublishListingEvent", mock.MatchedBy(func(e models.ListingEvent) bool {
		return e.Type == models.EventListingDeleted && e.ListingID == "listing-1"
	})).Return(nil).Once()
	err = service.Remove("listing-1", "vendor-1")
	assert.NoError(t, err)

	// Test removal of a missing listing
	mockRepo.On("GetByID", "missing").Return(nil, models.ErrNotFound).Once()
	err = service.Remove("missing", "vendor-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}
