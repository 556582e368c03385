package repositories

import (
	"context"
	"errors"
	"fmt"

	"unimarket/internal/common"
	"unimarket/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	List(ctx context.Context) ([]*models.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error
}

type listingRepo struct {
	db Database
}

func NewListingRepo(db Database) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) Create(ctx context.Context, listing *models.Listing) error {
	query := `
		INSERT INTO listings (id, seller_id, title, description, listing_type, price, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, listing.ID, listing.SellerID, listing.Title, listing.Description, listing.ListingType, listing.Price, listing.ImageURL, listing.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (r *listingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing := &models.Listing{}
	query := `
		SELECT id, seller_id, title, description, listing_type, price, image_url, created_at
		FROM listings
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&listing.ID, &listing.SellerID, &listing.Title, &listing.Description, &listing.ListingType, &listing.Price, &listing.ImageURL, &listing.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (r *listingRepo) List(ctx context.Context) ([]*models.Listing, error) {
	// Creation order, id as tie-breaker, so the listing feed is stable.
	query := `
		SELECT id, seller_id, title, description, listing_type, price, image_url, created_at
		FROM listings
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		listing := &models.Listing{}
		if err := rows.Scan(&listing.ID, &listing.SellerID, &listing.Title, &listing.Description, &listing.ListingType, &listing.Price, &listing.ImageURL, &listing.CreatedAt); err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func (r *listingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM listings WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost a race with a concurrent delete.
		return common.ErrListingNotFound
	}
	return nil
}

func (r *listingRepo) SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	query := `UPDATE listings SET image_url = $1 WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, imageURL, id)
	if err != nil {
		return fmt.Errorf("failed to set listing image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrListingNotFound
	}
	return nil
}
