package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListingType distinguishes items offered for sale from items offered
// for rent.
type ListingType string

const (
	ListingTypeSale   ListingType = "SALE"
	ListingTypeRental ListingType = "RENTAL"
)

// ParseListingType validates a raw listing type value.
func ParseListingType(s string) (ListingType, error) {
	switch ListingType(s) {
	case ListingTypeSale, ListingTypeRental:
		return ListingType(s), nil
	default:
		return "", fmt.Errorf("invalid listing type %q", s)
	}
}

type Listing struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	SellerID    uuid.UUID   `json:"seller_id" db:"seller_id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	ListingType ListingType `json:"listing_type" db:"listing_type"`
	Price       float64     `json:"price" db:"price"`
	ImageURL    *string     `json:"image_url" db:"image_url"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// ListingView is the denormalized projection returned to clients: the
// listing fields plus the seller's display name, phone number and email.
type ListingView struct {
	ID                uuid.UUID   `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	ListingType       ListingType `json:"listing_type"`
	Price             float64     `json:"price"`
	ImageURL          *string     `json:"image_url,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	SellerName        string      `json:"seller_name"`
	SellerPhoneNumber string      `json:"seller_phone_number"`
	SellerEmail       string      `json:"seller_email"`
}

// NewListingView projects a listing and its resolved seller into a view.
func NewListingView(listing *Listing, seller *User) *ListingView {
	return &ListingView{
		ID:                listing.ID,
		Title:             listing.Title,
		Description:       listing.Description,
		ListingType:       listing.ListingType,
		Price:             listing.Price,
		ImageURL:          listing.ImageURL,
		CreatedAt:         listing.CreatedAt,
		SellerName:        seller.FullName(),
		SellerPhoneNumber: seller.PhoneNumber,
		SellerEmail:       seller.Email,
	}
}
