package service

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/pkg/clock"

	"github.com/google/uuid"
)

const maxOrderNumberAttempts = 5

type OrderService interface {
	CreateOrder(userID uuid.UUID, req *CreateOrderRequest) (*model.Order, error)
	CheckoutCart(userID uuid.UUID, req *CheckoutRequest) (*model.Order, error)
	CancelOrder(orderID, userID uuid.UUID, reason string) (*model.Order, error)
	GetOrder(orderID, userID uuid.UUID) (*model.Order, error)
	ListMyOrders(userID uuid.UUID, page repository.Page) ([]model.Order, int64, error)

	// Admin
	GetOrderByID(orderID uuid.UUID) (*model.Order, error)
	ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error)
	UpdateStatus(orderID uuid.UUID, req *UpdateStatusRequest, adminID uuid.UUID) (*model.Order, error)
	UpdateItemStatus(orderID, itemID uuid.UUID, status model.OrderStatus, adminID uuid.UUID) (*model.Order, error)
	UpdateAdminMemo(orderID uuid.UUID, memo string, adminID uuid.UUID) (*model.Order, error)
}

// MaxLineQuantity caps a single cart or order line.
const MaxLineQuantity = 999

func validQuantity(qty int) bool {
	return qty >= 1 && qty <= MaxLineQuantity
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0,lte=999"`
}

type BuyerInfo struct {
	Name          string `json:"name" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"omitempty,max=30"`
	DepositorName string `json:"depositor_name" validate:"omitempty,max=100"`
}

type ShippingInfo struct {
	Recipient     string `json:"recipient" validate:"required,max=100"`
	Phone         string `json:"phone" validate:"required,max=30"`
	PostalCode    string `json:"postal_code" validate:"required,max=10"`
	Address       string `json:"address" validate:"required"`
	AddressDetail string `json:"address_detail"`
	Memo          string `json:"memo" validate:"max=500"`
}

type CreateOrderRequest struct {
	Items    []OrderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
	Buyer    BuyerInfo          `json:"buyer"`
	Shipping *ShippingInfo      `json:"shipping"`
}

type CheckoutRequest struct {
	Buyer    BuyerInfo     `json:"buyer"`
	Shipping *ShippingInfo `json:"shipping"`
}

type UpdateStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required"`
	Reason string            `json:"reason" validate:"max=500"`
}

type orderService struct {
	store   repository.Store
	events  EventLogger
	numbers OrderNumberGenerator
	pricing Pricing
	clock   clock.Clock
}

func NewOrderService(store repository.Store, events EventLogger, numbers OrderNumberGenerator, pricing Pricing, clk clock.Clock) OrderService {
	return &orderService{
		store:   store,
		events:  events,
		numbers: numbers,
		pricing: pricing,
		clock:   clk,
	}
}

func (s *orderService) CreateOrder(userID uuid.UUID, req *CreateOrderRequest) (*model.Order, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var order *model.Order
	err := s.store.Transaction(func(tx repository.Store) error {
		var err error
		order, err = s.placeOrder(tx, userID, req.Items, req.Buyer, req.Shipping)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logCreated(order, false)
	return order, nil
}

func (s *orderService) CheckoutCart(userID uuid.UUID, req *CheckoutRequest) (*model.Order, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var order *model.Order
	err := s.store.Transaction(func(tx repository.Store) error {
		cart, err := tx.Carts().FindByUser(userID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return ErrCartEmpty
		}

		lines := make([]OrderItemRequest, 0, len(cart))
		for _, item := range cart {
			lines = append(lines, OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		order, err = s.placeOrder(tx, userID, lines, req.Buyer, req.Shipping)
		if err != nil {
			return err
		}
		return tx.Carts().DeleteByUser(userID)
	})
	if err != nil {
		return nil, err
	}

	s.logCreated(order, true)
	return order, nil
}

// mergeLines folds duplicate products together and sorts by product id so
// concurrent orders lock product rows in the same order.
func mergeLines(lines []OrderItemRequest) []OrderItemRequest {
	qty := make(map[uuid.UUID]int, len(lines))
	merged := make([]OrderItemRequest, 0, len(lines))
	for _, line := range lines {
		if _, seen := qty[line.ProductID]; !seen {
			merged = append(merged, OrderItemRequest{ProductID: line.ProductID})
		}
		qty[line.ProductID] += line.Quantity
	}
	for i := range merged {
		merged[i].Quantity = qty[merged[i].ProductID]
	}
	sort.Slice(merged, func(i, j int) bool {
		return bytes.Compare(merged[i].ProductID[:], merged[j].ProductID[:]) < 0
	})
	return merged
}

// placeOrder runs inside tx: any error rolls back the order, its items, the
// stock decrements and the stock ledger together.
func (s *orderService) placeOrder(tx repository.Store, userID uuid.UUID, lines []OrderItemRequest, buyer BuyerInfo, shipping *ShippingInfo) (*model.Order, error) {
	lines = mergeLines(lines)
	for _, line := range lines {
		if !validQuantity(line.Quantity) {
			return nil, ErrInvalidQuantity
		}
	}

	// 1. Load and check every product before writing anything.
	products := make([]*model.Product, len(lines))
	for i, line := range lines {
		product, err := tx.Products().FindByIDForUpdate(line.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrInactiveProduct, product.Name)
		}
		if !product.HasStockFor(line.Quantity) {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
		}
		products[i] = product
	}

	// 2. Snapshot items and compute totals.
	order := &model.Order{
		UserID:        userID,
		Status:        model.StatusPending,
		BuyerName:     strings.TrimSpace(buyer.Name),
		BuyerEmail:    strings.TrimSpace(buyer.Email),
		BuyerPhone:    strings.TrimSpace(buyer.Phone),
		DepositorName: strings.TrimSpace(buyer.DepositorName),
		Items:         make([]model.OrderItem, 0, len(lines)),
	}
	if order.DepositorName == "" {
		order.DepositorName = order.BuyerName
	}
	order.CreatedBy = userID.String()
	order.UpdatedBy = userID.String()

	for i, line := range lines {
		p := products[i]
		subtotal := p.Price * int64(line.Quantity)
		order.Items = append(order.Items, model.OrderItem{
			ProductID:     p.ID,
			ProductName:   p.Name,
			ProductType:   p.Type,
			PriceSnapshot: p.Price,
			Quantity:      line.Quantity,
			Subtotal:      subtotal,
			ItemStatus:    model.StatusPending,
		})
		order.Subtotal += subtotal
	}

	hasPhysical := order.HasPhysicalItems()
	if hasPhysical {
		if shipping == nil {
			return nil, ErrShippingRequired
		}
		applyShipping(order, shipping)
	}
	order.ShippingFee = s.pricing.ShippingFeeFor(order.Subtotal, hasPhysical)
	order.TotalPrice = order.Subtotal + order.ShippingFee

	// 3. Allocate an order number customers can quote in the transfer memo.
	number, err := s.allocateOrderNumber(tx)
	if err != nil {
		return nil, err
	}
	order.OrderNumber = number

	// 4. Insert order and items.
	if err := tx.Orders().Create(order); err != nil {
		return nil, err
	}

	// 5. Take stock with conditional updates; a concurrent order that won
	// the race turns into InsufficientStock here and rolls everything back.
	for i, line := range lines {
		p := products[i]
		if !p.TracksStock() {
			continue
		}
		remaining, err := tx.Products().DecrementStock(p.ID, line.Quantity)
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
		}
		if err != nil {
			return nil, err
		}
		orderID := order.ID
		if err := tx.StockMovements().Create(&model.StockMovement{
			ProductID:  p.ID,
			Type:       model.MovementOut,
			Reason:     model.ReasonOrder,
			Quantity:   line.Quantity,
			StockAfter: remaining,
			OrderID:    &orderID,
			Note:       order.OrderNumber,
		}); err != nil {
			return nil, err
		}
	}

	return order, nil
}

func applyShipping(order *model.Order, shipping *ShippingInfo) {
	str := func(v string) *string {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		return &v
	}
	order.ShippingRecipient = str(shipping.Recipient)
	order.ShippingPhone = str(shipping.Phone)
	order.ShippingPostalCode = str(shipping.PostalCode)
	order.ShippingAddress = str(shipping.Address)
	order.ShippingAddressDetail = str(shipping.AddressDetail)
	order.ShippingMemo = str(shipping.Memo)
}

func (s *orderService) allocateOrderNumber(tx repository.Store) (string, error) {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number, err := s.numbers.Generate(s.clock.Now())
		if err != nil {
			return "", err
		}
		exists, err := tx.Orders().ExistsByOrderNumber(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", ErrOrderNumberExhausted
}

func (s *orderService) logCreated(order *model.Order, fromCart bool) {
	userID := order.UserID
	s.events.Log(model.EventOrderCreated,
		fmt.Sprintf("주문 생성: %s (%d원)", order.OrderNumber, order.TotalPrice),
		map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"total_price":  order.TotalPrice,
			"shipping_fee": order.ShippingFee,
			"item_count":   len(order.Items),
			"from_cart":    fromCart,
		},
		&userID, nil)
}

func (s *orderService) loadOrder(repo repository.OrderRepository, orderID uuid.UUID) (*model.Order, error) {
	order, err := repo.FindByID(orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *orderService) CancelOrder(orderID, userID uuid.UUID, reason string) (*model.Order, error) {
	var order *model.Order
	var from model.OrderStatus
	err := s.store.Transaction(func(tx repository.Store) error {
		var err error
		order, err = s.loadOrder(tx.Orders(), orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return ErrForbidden
		}
		from = order.Status
		return s.cancel(tx, order, reason, userID.String())
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(model.EventOrderCancelled, order, from, &userID, nil)
	return order, nil
}

// cancel leaves through the cancellation exit: status, items and stock are
// reverted in tx. A voice pack that was already delivered blocks it.
func (s *orderService) cancel(tx repository.Store, order *model.Order, reason, actor string) error {
	if !order.Status.IsCancellable() {
		return ErrOrderCannotCancel
	}
	for _, item := range order.Items {
		if item.ItemStatus == model.StatusDone {
			return ErrOrderAlreadyDelivered
		}
	}

	now := s.clock.Now()
	reason = strings.TrimSpace(reason)
	change := repository.StatusChange{
		From:        order.Status,
		To:          model.StatusCancelled,
		CancelledAt: &now,
		UpdatedBy:   actor,
	}
	if reason != "" {
		change.CancelReason = &reason
	}
	if err := tx.Orders().UpdateStatus(order.ID, change); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrStatusConflict
		}
		return err
	}
	order.Status = model.StatusCancelled
	order.CancelledAt = change.CancelledAt
	order.CancelReason = change.CancelReason

	if err := s.cascadeItems(tx, order); err != nil {
		return err
	}

	// Give back exactly what this order took.
	movements, err := tx.StockMovements().FindByOrder(order.ID)
	if err != nil {
		return err
	}
	for _, m := range movements {
		if m.Type != model.MovementOut || m.Reason != model.ReasonOrder {
			continue
		}
		remaining, err := tx.Products().IncrementStock(m.ProductID, m.Quantity)
		if errors.Is(err, repository.ErrConflict) {
			// product no longer tracks stock
			continue
		}
		if err != nil {
			return err
		}
		orderID := order.ID
		if err := tx.StockMovements().Create(&model.StockMovement{
			ProductID:  m.ProductID,
			Type:       model.MovementIn,
			Reason:     model.ReasonCancel,
			Quantity:   m.Quantity,
			StockAfter: remaining,
			OrderID:    &orderID,
			Note:       order.OrderNumber,
		}); err != nil {
			return err
		}
	}
	return nil
}

// cascadeItems moves every line along with the order's new status.
func (s *orderService) cascadeItems(tx repository.Store, order *model.Order) error {
	for i := range order.Items {
		item := &order.Items[i]
		next, changed := item.CascadeStatus(order.Status)
		if !changed {
			continue
		}
		if err := tx.Orders().UpdateItemStatus(item.ID, item.ItemStatus, next); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrStatusConflict
			}
			return err
		}
		item.ItemStatus = next
	}
	return nil
}

func (s *orderService) logTransition(eventType model.EventType, order *model.Order, from model.OrderStatus, userID, adminID *uuid.UUID) {
	owner := order.UserID
	if userID == nil {
		userID = &owner
	}
	meta := map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"old_status":   from,
		"new_status":   order.Status,
	}
	if order.CancelReason != nil {
		meta["reason"] = *order.CancelReason
	}
	actor := "customer"
	if adminID != nil {
		actor = "admin"
		meta["admin_id"] = *adminID
	}
	meta["actor"] = actor

	s.events.Log(eventType,
		fmt.Sprintf("주문 %s 상태 변경: %s → %s", order.OrderNumber, from, order.Status),
		meta, userID, adminID)
}

func (s *orderService) GetOrder(orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.loadOrder(s.store.Orders(), orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *orderService) ListMyOrders(userID uuid.UUID, page repository.Page) ([]model.Order, int64, error) {
	return s.store.Orders().FindAll(repository.OrderFilter{UserID: &userID, Page: page})
}

func (s *orderService) GetOrderByID(orderID uuid.UUID) (*model.Order, error) {
	return s.loadOrder(s.store.Orders(), orderID)
}

func (s *orderService) ListOrders(filter repository.OrderFilter) ([]model.Order, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.store.Orders().FindAll(filter)
}

func (s *orderService) UpdateStatus(orderID uuid.UUID, req *UpdateStatusRequest, adminID uuid.UUID) (*model.Order, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if !req.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	var order *model.Order
	var from model.OrderStatus
	err := s.store.Transaction(func(tx repository.Store) error {
		var err error
		order, err = s.loadOrder(tx.Orders(), orderID)
		if err != nil {
			return err
		}
		from = order.Status

		if order.Status.IsTerminal() {
			return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, order.Status)
		}
		if req.Status == model.StatusCancelled {
			return s.cancel(tx, order, req.Reason, adminID.String())
		}
		if !model.CanTransition(order.Status, req.Status, order.HasPhysicalItems()) {
			return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, order.Status, req.Status)
		}

		err = tx.Orders().UpdateStatus(order.ID, repository.StatusChange{
			From:      order.Status,
			To:        req.Status,
			UpdatedBy: adminID.String(),
		})
		if errors.Is(err, repository.ErrConflict) {
			return ErrStatusConflict
		}
		if err != nil {
			return err
		}
		order.Status = req.Status
		return s.cascadeItems(tx, order)
	})
	if err != nil {
		return nil, err
	}

	eventType := model.EventOrderStatusChanged
	if order.Status == model.StatusCancelled {
		eventType = model.EventOrderCancelled
	}
	s.logTransition(eventType, order, from, nil, &adminID)
	return order, nil
}

// UpdateItemStatus fulfils one line independently, e.g. delivering the voice
// pack of a mixed order while its goods are still being made.
func (s *orderService) UpdateItemStatus(orderID, itemID uuid.UUID, status model.OrderStatus, adminID uuid.UUID) (*model.Order, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	var order *model.Order
	var item *model.OrderItem
	var from model.OrderStatus
	err := s.store.Transaction(func(tx repository.Store) error {
		var err error
		order, err = s.loadOrder(tx.Orders(), orderID)
		if err != nil {
			return err
		}
		item = order.FindItem(itemID)
		if item == nil {
			return ErrOrderItemNotFound
		}
		from = item.ItemStatus

		// Unpaid and closed orders are not fulfilled line by line, and
		// cancellation only happens for the whole order.
		if order.Status == model.StatusPending || order.Status.IsTerminal() || status == model.StatusCancelled {
			return fmt.Errorf("%w: item update on %s order", ErrInvalidTransition, order.Status)
		}
		if !model.CanTransition(item.ItemStatus, status, item.IsPhysical()) {
			return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, item.ItemStatus, status)
		}

		err = tx.Orders().UpdateItemStatus(item.ID, item.ItemStatus, status)
		if errors.Is(err, repository.ErrConflict) {
			return ErrStatusConflict
		}
		if err != nil {
			return err
		}
		item.ItemStatus = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	userID := order.UserID
	s.events.Log(model.EventItemStatusChanged,
		fmt.Sprintf("주문 %s 상품 '%s' 상태 변경: %s → %s", order.OrderNumber, item.ProductName, from, status),
		map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"item_id":      item.ID,
			"old_status":   from,
			"new_status":   status,
			"actor":        "admin",
			"admin_id":     adminID,
		},
		&userID, &adminID)
	return order, nil
}

func (s *orderService) UpdateAdminMemo(orderID uuid.UUID, memo string, adminID uuid.UUID) (*model.Order, error) {
	order, err := s.loadOrder(s.store.Orders(), orderID)
	if err != nil {
		return nil, err
	}
	memo = strings.TrimSpace(memo)
	if err := s.store.Orders().UpdateAdminMemo(order.ID, memo, adminID.String()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	order.AdminMemo = memo

	userID := order.UserID
	s.events.Log(model.EventAdminMemoUpdated,
		fmt.Sprintf("주문 %s 관리자 메모 수정", order.OrderNumber),
		map[string]interface{}{"order_id": order.ID, "order_number": order.OrderNumber},
		&userID, &adminID)
	return order, nil
}
