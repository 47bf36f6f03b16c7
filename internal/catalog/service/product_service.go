package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/catalog/entity"
	"github.com/onpaj/heblo/internal/catalog/repository"
	whentity "github.com/onpaj/heblo/internal/warehouse/entity"
	whservice "github.com/onpaj/heblo/internal/warehouse/service"
)

var _ whservice.CatalogResolver = (*ProductService)(nil)

type ProductService struct {
	repo *repository.ProductRepository
}

func NewProductService(repo *repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

type CreateProductInput struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Type       string `json:"type" binding:"required"`
	Unit       string `json:"unit"`
	LotTracked bool   `json:"lot_tracked"`
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput, userID string) (*entity.Product, error) {
	switch in.Type {
	case entity.ProductTypeRaw, entity.ProductTypeGiftPackage, entity.ProductTypeFinished:
	default:
		return nil, fmt.Errorf("unknown product type %q", in.Type)
	}
	existing, err := s.repo.GetByCode(ctx, in.Code)
	if err != nil {
		return nil, fmt.Errorf("check product code: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("product code %s already exists", in.Code)
	}
	unit := in.Unit
	if unit == "" {
		unit = "pcs"
	}
	p := &entity.Product{
		ID:         uuid.New().String(),
		Code:       in.Code,
		Name:       in.Name,
		Type:       in.Type,
		Unit:       unit,
		LotTracked: in.LotTracked,
		CreatedBy:  userID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*entity.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, whentity.ErrNotFound
	}
	return p, err
}

func (s *ProductService) List(ctx context.Context, params repository.ProductListParams) ([]entity.Product, int64, error) {
	return s.repo.List(ctx, params)
}

// Resolve implements the warehouse catalog lookup. Unknown codes map to
// ErrUnknownProduct so movement validation can reject them uniformly.
func (s *ProductService) Resolve(ctx context.Context, code string) (*entity.Product, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve product %s: %w", code, err)
	}
	if p == nil {
		return nil, fmt.Errorf("product %s: %w", code, whentity.ErrUnknownProduct)
	}
	return p, nil
}
