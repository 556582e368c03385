package caching

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"unimarket/internal/models"
)

const listingsKey = "unimarket:listings"

type CacheService interface {
	// Listing feed caching
	GetListings(ctx context.Context) ([]*models.ListingView, error)
	SetListings(ctx context.Context, views []*models.ListingView, ttl time.Duration) error
	InvalidateListings(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis ping failed on initialization")
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetListings(ctx context.Context) ([]*models.ListingView, error) {
	data, err := r.client.Get(ctx, listingsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var views []*models.ListingView
	if err := json.Unmarshal(data, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *redisCacheService) SetListings(ctx context.Context, views []*models.ListingView, ttl time.Duration) error {
	data, err := json.Marshal(views)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, listingsKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidateListings(ctx context.Context) error {
	return r.client.Del(ctx, listingsKey).Err()
}
