package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	catentity "github.com/onpaj/heblo/internal/catalog/entity"
	"github.com/onpaj/heblo/internal/warehouse/entity"
	"github.com/onpaj/heblo/internal/warehouse/service"
)

var _ service.CatalogResolver = (*CatalogResolver)(nil)

// CatalogResolver is an in-memory product registry.
type CatalogResolver struct {
	mu       sync.RWMutex
	products map[string]*catentity.Product
}

func NewCatalogResolver() *CatalogResolver {
	return &CatalogResolver{products: make(map[string]*catentity.Product)}
}

// Register adds a product under its code, overwriting any previous entry.
func (r *CatalogResolver) Register(p *catentity.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	r.products[p.Code] = p
}

func (r *CatalogResolver) Resolve(_ context.Context, code string) (*catentity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[code]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", code, entity.ErrUnknownProduct)
	}
	clone := *p
	return &clone, nil
}
