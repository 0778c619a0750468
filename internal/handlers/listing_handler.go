package handlers

import (
	"rescueplate/internal/middleware"
	"rescueplate/internal/models"
	"rescueplate/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ListingHandler handles HTTP requests for listings.
type ListingHandler struct {
	service *services.ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(service *services.ListingService) *ListingHandler {
	return &ListingHandler{
		service: service,
	}
}

// RegisterRoutes registers the listing routes. Browsing is public; writes
// and the dashboard need a vendor token.
func (h *ListingHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	vendorOnly := middleware.RequireRole(models.RoleVendor)

	listingRoutes := router.Group("/listings")
	listingRoutes.Get("/", h.HandleGetListings)
	listingRoutes.Get("/my-listings", authRequired, vendorOnly, h.HandleGetMyListings)
	listingRoutes.Get("/:id", h.HandleGetListing)
	listingRoutes.Post("/", authRequired, vendorOnly, h.HandleCreateListing)
	listingRoutes.Patch("/:id", authRequired, vendorOnly, h.HandleUpdateListing)
	listingRoutes.Delete("/:id", authRequired, vendorOnly, h.HandleDeleteListing)
}

// HandleGetListings returns every listing with its vendor.
func (h *ListingHandler) HandleGetListings(c *fiber.Ctx) error {
	listings, err := h.service.FindAll()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listings)
}

// HandleGetMyListings returns the caller's own listings.
func (h *ListingHandler) HandleGetMyListings(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return respondError(c, models.ErrUnauthorized)
	}

	listings, err := h.service.FindByVendor(callerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listings)
}

// HandleGetListing returns a single listing.
func (h *ListingHandler) HandleGetListing(c *fiber.Ctx) error {
	listing, err := h.service.FindOne(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// HandleCreateListing creates a listing owned by the caller.
func (h *ListingHandler) HandleCreateListing(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return respondError(c, models.ErrUnauthorized)
	}

	var input models.CreateListingInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	listing, err := h.service.Create(input, callerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// HandleUpdateListing applies a partial update to one of the caller's listings.
func (h *ListingHandler) HandleUpdateListing(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return respondError(c, models.ErrUnauthorized)
	}

	var patch models.UpdateListingInput
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c, err)
	}

	listing, err := h.service.Update(c.Params("id"), patch, callerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// HandleDeleteListing deletes one of the caller's listings.
func (h *ListingHandler) HandleDeleteListing(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return respondError(c, models.ErrUnauthorized)
	}

	if err := h.service.Remove(c.Params("id"), callerID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Listing deleted successfully",
	})
}
