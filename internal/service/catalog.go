package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bitewave/go-food-ordering-api/internal/dto"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
)

// CatalogService serves menu reads through a redis cache. The cache
// sits on the browse path only; checkout always prices from the
// database.
type CatalogService struct {
	restaurantRepo repository.RestaurantRepository
	productRepo    repository.ProductRepository
	cache          *redis.Client
	cacheTTL       time.Duration
	log            *slog.Logger
}

func NewCatalogService(restaurantRepo repository.RestaurantRepository, productRepo repository.ProductRepository, cache *redis.Client, cacheTTL time.Duration, log *slog.Logger) *CatalogService {
	return &CatalogService{
		restaurantRepo: restaurantRepo,
		productRepo:    productRepo,
		cache:          cache,
		cacheTTL:       cacheTTL,
		log:            log,
	}
}

func (s *CatalogService) Restaurants(ctx context.Context) ([]dto.RestaurantResponse, error) {
	restaurants, err := s.restaurantRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	resp := make([]dto.RestaurantResponse, 0, len(restaurants))
	for i := range restaurants {
		resp = append(resp, dto.ToRestaurantResponse(&restaurants[i]))
	}
	return resp, nil
}

func (s *CatalogService) Branches(ctx context.Context, restaurantID uuid.UUID) ([]dto.BranchResponse, error) {
	branches, err := s.restaurantRepo.ListBranches(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	resp := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		resp = append(resp, dto.ToBranchResponse(&branches[i]))
	}
	return resp, nil
}

func (s *CatalogService) Branch(ctx context.Context, branchID uuid.UUID) (*dto.BranchResponse, error) {
	branch, err := s.restaurantRepo.GetBranchByID(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}
	if branch == nil {
		return nil, ErrBranchNotFound
	}
	resp := dto.ToBranchResponse(branch)
	return &resp, nil
}

// Menu returns the restaurant's categories with their available
// products, grouped in display order.
func (s *CatalogService) Menu(ctx context.Context, restaurantID uuid.UUID) (*dto.MenuResponse, error) {
	key := "menu:" + restaurantID.String()
	var cached dto.MenuResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	categories, err := s.productRepo.ListCategories(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("menu: %w", err)
	}
	products, err := s.productRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("menu: %w", err)
	}

	byCategory := make(map[uuid.UUID][]dto.ProductResponse)
	for i := range products {
		if products[i].CategoryID == nil {
			continue
		}
		id := *products[i].CategoryID
		byCategory[id] = append(byCategory[id], dto.ToProductResponse(&products[i]))
	}

	menu := &dto.MenuResponse{RestaurantID: restaurantID.String()}
	for _, category := range categories {
		menu.Categories = append(menu.Categories, dto.CategoryResponse{
			ID:       category.ID.String(),
			Name:     category.Name,
			Slug:     category.Slug,
			Products: byCategory[category.ID],
		})
	}

	s.cacheSet(ctx, key, menu)
	return menu, nil
}

func (s *CatalogService) Product(ctx context.Context, productID uuid.UUID) (*dto.ProductResponse, error) {
	key := "product:" + productID.String()
	var cached dto.ProductResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	resp := dto.ToProductResponse(product)
	s.cacheSet(ctx, key, resp)
	return &resp, nil
}

func (s *CatalogService) ProductOptions(ctx context.Context, productID uuid.UUID) ([]dto.ProductOptionResponse, error) {
	key := "product_options:" + productID.String()
	var cached []dto.ProductOptionResponse
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	views, err := s.productRepo.ListOptionsForProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product options: %w", err)
	}
	resp := make([]dto.ProductOptionResponse, 0, len(views))
	for _, view := range views {
		resp = append(resp, dto.ToProductOptionResponse(view))
	}
	s.cacheSet(ctx, key, resp)
	return resp, nil
}

// Cache failures degrade to database reads, never to request errors.
func (s *CatalogService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Warn("cache entry corrupt", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
