package handlers

import (
	"errors"
	"net/http"
	"strings"

	"unimarket/internal/common"
	"unimarket/internal/models"
	"unimarket/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Listing images are capped to keep uploads bounded.
const maxImageSize = 10 << 20

// ListingHandlers handles listing-related HTTP requests
type ListingHandlers struct {
	listingService services.ListingService
}

// NewListingHandlers creates a new listing handlers instance
func NewListingHandlers(listingService services.ListingService) *ListingHandlers {
	return &ListingHandlers{
		listingService: listingService,
	}
}

// ListListings handles getting all listings with seller details
func (h *ListingHandlers) ListListings(c echo.Context) error {
	ctx := c.Request().Context()

	views, err := h.listingService.ListAll(ctx)
	if err != nil {
		return common.HTTPError(err)
	}

	return c.JSON(http.StatusOK, views)
}

// CreateListingRequest represents the listing creation request payload
type CreateListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ListingType string   `json:"listing_type"`
	Price       *float64 `json:"price"`
}

// CreateListing handles creating a new listing for the requester
func (h *ListingHandlers) CreateListing(c echo.Context) error {
	ctx := c.Request().Context()

	email, ok := common.GetUserEmailFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Identity not resolved")
	}

	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Title == "" || req.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Title and description are required")
	}
	if req.Price == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Price is required")
	}

	listingType, err := models.ParseListingType(req.ListingType)
	if err != nil {
		return common.SendValidationError(c, "listing_type", "listing type must be SALE or RENTAL")
	}

	view, err := h.listingService.Create(ctx, services.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		ListingType: listingType,
		Price:       *req.Price,
	}, email)
	if err != nil {
		// An unknown requester is a client error here, not a 404: the
		// target resource is the listing collection, which exists.
		if errors.Is(err, common.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, common.ErrUserNotFound.Error())
		}
		return common.HTTPError(err)
	}

	return c.JSON(http.StatusCreated, view)
}

// DeleteListing handles deleting a listing owned by the requester
func (h *ListingHandlers) DeleteListing(c echo.Context) error {
	ctx := c.Request().Context()

	email, ok := common.GetUserEmailFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Identity not resolved")
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid listing ID format")
	}

	if err := h.listingService.Delete(ctx, listingID, email); err != nil {
		return common.HTTPError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// UploadListingImage handles attaching an image to a listing owned by
// the requester
func (h *ListingHandlers) UploadListingImage(c echo.Context) error {
	ctx := c.Request().Context()

	email, ok := common.GetUserEmailFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Identity not resolved")
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid listing ID format")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Image file is required")
	}
	if file.Size > maxImageSize {
		return echo.NewHTTPError(http.StatusBadRequest, "Image exceeds maximum size")
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, "File must be an image")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read image file")
	}
	defer src.Close()

	view, err := h.listingService.AttachImage(ctx, listingID, email, src, file.Size, contentType)
	if err != nil {
		return common.HTTPError(err)
	}

	return c.JSON(http.StatusOK, view)
}
