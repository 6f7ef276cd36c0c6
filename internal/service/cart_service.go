package service

import (
	"errors"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"

	"github.com/google/uuid"
)

type CartService interface {
	AddItem(userID, productID uuid.UUID, qty int) (*model.CartItem, error)
	UpdateQuantity(userID, itemID uuid.UUID, qty int) (*model.CartItem, error)
	RemoveItem(userID, itemID uuid.UUID) error
	Clear(userID uuid.UUID) error
	Get(userID uuid.UUID) (*CartView, error)
}

// CartView is the cart with the totals checkout would charge right now.
type CartView struct {
	Items       []model.CartItem `json:"items"`
	Subtotal    int64            `json:"subtotal"`
	ShippingFee int64            `json:"shipping_fee"`
	Total       int64            `json:"total"`
	HasPhysical bool             `json:"has_physical"`
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity"`
}

type cartService struct {
	store   repository.Store
	pricing Pricing
}

func NewCartService(store repository.Store, pricing Pricing) CartService {
	return &cartService{store: store, pricing: pricing}
}

// checkProduct re-reads the live product and checks it can be bought in qty.
func (s *cartService) checkProduct(productID uuid.UUID, qty int) (*model.Product, error) {
	product, err := s.store.Products().FindByID(productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrInactiveProduct
	}
	if !product.HasStockFor(qty) {
		return nil, ErrOutOfStock
	}
	return product, nil
}

func (s *cartService) AddItem(userID, productID uuid.UUID, qty int) (*model.CartItem, error) {
	if !validQuantity(qty) {
		return nil, ErrInvalidQuantity
	}

	existing, err := s.store.Carts().FindByUserAndProduct(userID, productID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// Re-adding a product merges into the existing line.
	if existing != nil {
		if qty > MaxLineQuantity-existing.Quantity {
			return nil, ErrInvalidQuantity
		}
		newQty := existing.Quantity + qty
		product, err := s.checkProduct(productID, newQty)
		if err != nil {
			return nil, err
		}
		if err := s.store.Carts().UpdateQuantity(existing.ID, newQty); err != nil {
			return nil, err
		}
		existing.Quantity = newQty
		existing.Product = product
		return existing, nil
	}

	product, err := s.checkProduct(productID, qty)
	if err != nil {
		return nil, err
	}
	item := &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}
	if err := s.store.Carts().Create(item); err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// ownedItem loads a cart line and checks it belongs to userID.
func (s *cartService) ownedItem(userID, itemID uuid.UUID) (*model.CartItem, error) {
	item, err := s.store.Carts().FindByID(itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrForbidden
	}
	return item, nil
}

func (s *cartService) UpdateQuantity(userID, itemID uuid.UUID, qty int) (*model.CartItem, error) {
	if !validQuantity(qty) {
		return nil, ErrInvalidQuantity
	}

	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.checkProduct(item.ProductID, qty)
	if err != nil {
		return nil, err
	}

	if err := s.store.Carts().UpdateQuantity(item.ID, qty); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	item.Quantity = qty
	item.Product = product
	return item, nil
}

func (s *cartService) RemoveItem(userID, itemID uuid.UUID) error {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}
	return s.store.Carts().Delete(item.ID)
}

func (s *cartService) Clear(userID uuid.UUID) error {
	return s.store.Carts().DeleteByUser(userID)
}

func (s *cartService) Get(userID uuid.UUID) (*CartView, error) {
	items, err := s.store.Carts().FindByUser(userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: items}
	if view.Items == nil {
		view.Items = []model.CartItem{}
	}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		view.Subtotal += item.Product.Price * int64(item.Quantity)
		if item.Product.IsPhysical() {
			view.HasPhysical = true
		}
	}
	view.ShippingFee = s.pricing.ShippingFeeFor(view.Subtotal, view.HasPhysical)
	view.Total = view.Subtotal + view.ShippingFee
	return view, nil
}
