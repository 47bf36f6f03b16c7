package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/onpaj/heblo/internal/catalog/entity"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByCode returns (nil, nil) when no product carries the code.
func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).Where("code = ? AND deleted_at IS NULL", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

type ProductListParams struct {
	Type    string
	Keyword string
	Page    int
	Size    int
}

func (r *ProductRepository) List(ctx context.Context, params ProductListParams) ([]entity.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Product{}).Where("deleted_at IS NULL")
	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}

	var total int64
	query.Count(&total)

	page, size := params.Page, params.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var products []entity.Product
	err := query.Order("code").Offset((page - 1) * size).Limit(size).Find(&products).Error
	return products, total, err
}
