package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CatalogService interface {
	ListProducts(filter repository.ProductFilter) ([]model.Product, int64, error)
	GetProductBySlug(slug string, includeInactive bool) (*model.Product, error)
	GetProduct(id uuid.UUID) (*model.Product, error)

	// Admin
	CreateProduct(req *ProductRequest, adminID uuid.UUID) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *ProductRequest, adminID uuid.UUID) (*model.Product, error)
	SetActive(id uuid.UUID, active bool, adminID uuid.UUID) (*model.Product, error)
	AdjustStock(productID uuid.UUID, req *StockAdjustRequest, adminID uuid.UUID) (*model.StockMovement, error)
	ListStockMovements(productID uuid.UUID, page repository.Page) ([]model.StockMovement, int64, error)
}

// ProductRequest is the admin create/update payload. Stock is only read on
// create; afterwards it moves through AdjustStock and orders.
type ProductRequest struct {
	Name           string            `json:"name" validate:"required,max=255"`
	Slug           string            `json:"slug" validate:"required,max=255"`
	Description    string            `json:"description"`
	Type           model.ProductType `json:"type" validate:"required,oneof=VOICE_PACK PHYSICAL_GOODS BUNDLE"`
	Price          int64             `json:"price" validate:"gte=0,lte=10000000000"`
	Stock          *int              `json:"stock" validate:"omitempty,gte=0"`
	IsActive       *bool             `json:"is_active"`
	ThumbnailURL   *string           `json:"thumbnail_url"`
	DigitalFileURL *string           `json:"digital_file_url"`
}

type StockAdjustRequest struct {
	Type     model.MovementType `json:"type" validate:"required,oneof=IN OUT"`
	Quantity int                `json:"quantity" validate:"required,gt=0"`
	Note     string             `json:"note" validate:"max=255"`
}

type catalogService struct {
	store  repository.Store
	events EventLogger
}

func NewCatalogService(store repository.Store, events EventLogger) CatalogService {
	return &catalogService{store: store, events: events}
}

func (s *catalogService) ListProducts(filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.store.Products().FindAll(filter)
}

func (s *catalogService) GetProductBySlug(slug string, includeInactive bool) (*model.Product, error) {
	product, err := s.store.Products().FindBySlug(slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *catalogService) GetProduct(id uuid.UUID) (*model.Product, error) {
	product, err := s.store.Products().FindByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

func normalizeProductRequest(req *ProductRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if err := validate(req); err != nil {
		return err
	}
	if !slugPattern.MatchString(req.Slug) {
		return ErrInvalidSlug
	}
	return nil
}

func (s *catalogService) checkSlugFree(repo repository.ProductRepository, slug string, self uuid.UUID) error {
	existing, err := repo.FindBySlug(slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return ErrSlugExists
	}
	return nil
}

func (s *catalogService) CreateProduct(req *ProductRequest, adminID uuid.UUID) (*model.Product, error) {
	if err := normalizeProductRequest(req); err != nil {
		return nil, err
	}
	if err := s.checkSlugFree(s.store.Products(), req.Slug, uuid.Nil); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		Type:           req.Type,
		Price:          req.Price,
		Stock:          req.Stock,
		IsActive:       true,
		ThumbnailURL:   req.ThumbnailURL,
		DigitalFileURL: req.DigitalFileURL,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	// Voice packs are files; they never run out.
	if !product.IsPhysical() {
		product.Stock = nil
	}
	product.CreatedBy = adminID.String()
	product.UpdatedBy = adminID.String()

	if err := s.store.Products().Create(product); err != nil {
		return nil, err
	}

	s.events.Log(model.EventProductCreated,
		fmt.Sprintf("상품 등록: %s", product.Name),
		map[string]interface{}{
			"product_id": product.ID,
			"slug":       product.Slug,
			"type":       product.Type,
			"price":      product.Price,
			"stock":      product.Stock,
		},
		nil, &adminID)
	return product, nil
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *ProductRequest, adminID uuid.UUID) (*model.Product, error) {
	if err := normalizeProductRequest(req); err != nil {
		return nil, err
	}

	var updated *model.Product
	err := s.store.Transaction(func(tx repository.Store) error {
		existing, err := tx.Products().FindByIDForUpdate(id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		if err := s.checkSlugFree(tx.Products(), req.Slug, existing.ID); err != nil {
			return err
		}

		existing.Name = req.Name
		existing.Slug = req.Slug
		existing.Description = req.Description
		existing.Price = req.Price
		existing.ThumbnailURL = req.ThumbnailURL
		if req.DigitalFileURL != nil {
			existing.DigitalFileURL = req.DigitalFileURL
		}
		if req.IsActive != nil {
			existing.IsActive = *req.IsActive
		}
		if req.Type != existing.Type {
			existing.Type = req.Type
			if !existing.IsPhysical() {
				existing.Stock = nil
			}
		}
		existing.UpdatedBy = adminID.String()

		if err := tx.Products().Update(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logProductUpdated(updated, adminID)
	return updated, nil
}

func (s *catalogService) SetActive(id uuid.UUID, active bool, adminID uuid.UUID) (*model.Product, error) {
	var updated *model.Product
	err := s.store.Transaction(func(tx repository.Store) error {
		existing, err := tx.Products().FindByIDForUpdate(id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		existing.IsActive = active
		existing.UpdatedBy = adminID.String()
		if err := tx.Products().Update(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logProductUpdated(updated, adminID)
	return updated, nil
}

func (s *catalogService) logProductUpdated(product *model.Product, adminID uuid.UUID) {
	s.events.Log(model.EventProductUpdated,
		fmt.Sprintf("상품 수정: %s", product.Name),
		map[string]interface{}{
			"product_id": product.ID,
			"slug":       product.Slug,
			"price":      product.Price,
			"is_active":  product.IsActive,
			"stock":      product.Stock,
		},
		nil, &adminID)
}

// AdjustStock records a manual receipt or write-off for a tracked product.
func (s *catalogService) AdjustStock(productID uuid.UUID, req *StockAdjustRequest, adminID uuid.UUID) (*model.StockMovement, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var movement *model.StockMovement
	var product *model.Product
	err := s.store.Transaction(func(tx repository.Store) error {
		var err error
		product, err = tx.Products().FindByIDForUpdate(productID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		if !product.TracksStock() {
			return ErrStockNotTracked
		}

		var remaining int
		if req.Type == model.MovementIn {
			remaining, err = tx.Products().IncrementStock(product.ID, req.Quantity)
		} else {
			remaining, err = tx.Products().DecrementStock(product.ID, req.Quantity)
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
			}
		}
		if err != nil {
			return err
		}
		product.Stock = &remaining

		movement = &model.StockMovement{
			ProductID:  product.ID,
			Type:       req.Type,
			Reason:     model.ReasonAdjustment,
			Quantity:   req.Quantity,
			StockAfter: remaining,
			Note:       strings.TrimSpace(req.Note),
		}
		movement.CreatedBy = adminID.String()
		movement.UpdatedBy = adminID.String()
		return tx.StockMovements().Create(movement)
	})
	if err != nil {
		return nil, err
	}

	verb := "입고"
	if req.Type == model.MovementOut {
		verb = "출고"
	}
	s.events.Log(model.EventStockAdjusted,
		fmt.Sprintf("재고 %s: %s %d개 (잔여 %d)", verb, product.Name, req.Quantity, movement.StockAfter),
		map[string]interface{}{
			"product_id":  product.ID,
			"movement_id": movement.ID,
			"type":        req.Type,
			"quantity":    req.Quantity,
			"stock_after": movement.StockAfter,
			"note":        movement.Note,
		},
		nil, &adminID)
	return movement, nil
}

func (s *catalogService) ListStockMovements(productID uuid.UUID, page repository.Page) ([]model.StockMovement, int64, error) {
	if _, err := s.GetProduct(productID); err != nil {
		return nil, 0, err
	}
	return s.store.StockMovements().FindByProduct(productID, page)
}
