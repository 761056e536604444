package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/cache"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// AbandonedThreshold is how long a non-empty cart may sit untouched before
// it counts as abandoned and is surfaced for recovery.
const AbandonedThreshold = 24 * time.Hour

type Service struct {
	repo  CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewService(repo CartRepository, cache cache.CartCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// singleflight collapses concurrent cache misses for the same user
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil && errors.Is(errGet, ErrCartNotFound) {
			return &domain.Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *Service) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	if item.FreeQuantity > item.Quantity {
		item.FreeQuantity = item.Quantity
	}
	errAdd := s.repo.AddItem(ctx, userID, item)
	if errAdd != nil {
		log.Printf("repo add item error: %v", errAdd)
		return errAdd
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int64) error {
	errUpdate := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity)
	if errUpdate != nil {
		log.Printf("repo update item quantity error: %v", errUpdate)
		return errUpdate
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, userID string, productID int64) error {
	errRemove := s.repo.RemoveItem(ctx, userID, productID)
	if errRemove != nil {
		log.Printf("repo remove item error: %v", errRemove)
		return errRemove
	}

	s.invalidateCache(userID)
	return nil
}

// ClearCart empties the user's cart. The checkout flow calls this exactly
// once, after the backend confirms order creation.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	errDelete := s.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, ErrCartNotFound) {
		log.Printf("repo delete cart error: %v", errDelete)
		return errDelete
	}

	s.invalidateCache(userID)
	return nil
}

// ListAbandoned surfaces carts untouched past the threshold for the
// recovery UI.
func (s *Service) ListAbandoned(ctx context.Context, limit int64) ([]domain.Cart, error) {
	cutoff := time.Now().Add(-AbandonedThreshold)
	return s.repo.ListAbandoned(ctx, cutoff, limit)
}

// Reorder replaces the user's active cart with the given items, used to
// recover an abandoned cart or repeat a past order.
func (s *Service) Reorder(ctx context.Context, userID string, items []domain.CartItem) error {
	now := time.Now()
	for i := range items {
		if items[i].FreeQuantity > items[i].Quantity {
			items[i].FreeQuantity = items[i].Quantity
		}
		items[i].AddedAt = now
	}

	cart := &domain.Cart{
		UserID: userID,
		Items:  items,
	}
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		log.Printf("repo reorder upsert error: %v", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, userID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v", errInvalidate)
	}
}
