package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"unimarket/internal/caching"
	"unimarket/internal/common"
	"unimarket/internal/models"
	"unimarket/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const listingsCacheTTL = 30 * time.Second

// CreateListingInput carries the listing creation fields.
type CreateListingInput struct {
	Title       string
	Description string
	ListingType models.ListingType
	Price       float64
}

type ListingService interface {
	ListAll(ctx context.Context) ([]*models.ListingView, error)
	Create(ctx context.Context, input CreateListingInput, requesterEmail string) (*models.ListingView, error)
	Delete(ctx context.Context, listingID uuid.UUID, requesterEmail string) error
	AttachImage(ctx context.Context, listingID uuid.UUID, requesterEmail string, reader io.Reader, size int64, contentType string) (*models.ListingView, error)
}

type listingService struct {
	listingRepo repositories.ListingRepository
	userRepo    repositories.UserRepository
	cacheSvc    caching.CacheService
	storage     ObjectStorage
	bucket      string
}

func NewListingService(listingRepo repositories.ListingRepository, userRepo repositories.UserRepository, cacheSvc caching.CacheService, storage ObjectStorage, bucket string) ListingService {
	return &listingService{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		cacheSvc:    cacheSvc,
		storage:     storage,
		bucket:      bucket,
	}
}

// ListAll returns every listing joined with its seller's display fields,
// in creation order. The assembled feed is cached briefly; cache failures
// never fail the request.
func (s *listingService) ListAll(ctx context.Context) ([]*models.ListingView, error) {
	if cached, err := s.cacheSvc.GetListings(ctx); err != nil {
		log.Warn().Err(err).Msg("listing cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	listings, err := s.listingRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	// Sellers repeat across listings, resolve each one once.
	sellers := make(map[uuid.UUID]*models.User)
	views := make([]*models.ListingView, 0, len(listings))
	for _, listing := range listings {
		seller, ok := sellers[listing.SellerID]
		if !ok {
			seller, err = s.userRepo.GetByID(ctx, listing.SellerID)
			if err != nil {
				return nil, fmt.Errorf("resolve seller for listing %s: %w", listing.ID, err)
			}
			sellers[listing.SellerID] = seller
		}
		views = append(views, models.NewListingView(listing, seller))
	}

	if err := s.cacheSvc.SetListings(ctx, views, listingsCacheTTL); err != nil {
		log.Warn().Err(err).Msg("listing cache write failed")
	}
	return views, nil
}

// Create persists a listing owned by the requester.
func (s *listingService) Create(ctx context.Context, input CreateListingInput, requesterEmail string) (*models.ListingView, error) {
	seller, err := s.userRepo.GetByEmail(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		ID:          uuid.New(),
		SellerID:    seller.ID,
		Title:       input.Title,
		Description: input.Description,
		ListingType: input.ListingType,
		Price:       input.Price,
		CreatedAt:   time.Now(),
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)
	return models.NewListingView(listing, seller), nil
}

// Delete removes a listing after verifying the requester is its seller.
// Precedence: unknown requester, then missing listing, then ownership.
func (s *listingService) Delete(ctx context.Context, listingID uuid.UUID, requesterEmail string) error {
	requester, err := s.userRepo.GetByEmail(ctx, requesterEmail)
	if err != nil {
		return err
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return err
	}

	if listing.SellerID != requester.ID {
		return common.ErrNotAuthorized
	}

	if err := s.listingRepo.Delete(ctx, listing.ID); err != nil {
		return err
	}

	s.invalidateListings(ctx)
	return nil
}

// AttachImage uploads a listing image to object storage and records its
// URL. Same resolution and ownership chain as Delete.
func (s *listingService) AttachImage(ctx context.Context, listingID uuid.UUID, requesterEmail string, reader io.Reader, size int64, contentType string) (*models.ListingView, error) {
	requester, err := s.userRepo.GetByEmail(ctx, requesterEmail)
	if err != nil {
		return nil, err
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.SellerID != requester.ID {
		return nil, common.ErrNotAuthorized
	}

	objectName := listing.ID.String()
	url, err := s.storage.UploadImage(ctx, s.bucket, objectName, reader, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload listing image: %w", err)
	}

	if err := s.listingRepo.SetImageURL(ctx, listing.ID, url); err != nil {
		return nil, err
	}
	listing.ImageURL = &url

	s.invalidateListings(ctx)
	return models.NewListingView(listing, requester), nil
}

func (s *listingService) invalidateListings(ctx context.Context) {
	if err := s.cacheSvc.InvalidateListings(ctx); err != nil {
		log.Warn().Err(err).Msg("listing cache invalidation failed")
	}
}
