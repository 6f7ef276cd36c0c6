// Package testutil provides an in-memory repository.Store and fixtures so
// service and handler tests run without Postgres.
package testutil

import (
	"errors"
	"sort"
	"sync"
	"time"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"

	"github.com/google/uuid"
)

var ErrInjected = errors.New("injected failure")

type memData struct {
	products  []*model.Product
	carts     []*model.CartItem
	orders    []*model.Order
	movements []model.StockMovement
	events    []model.EventLog
}

// MemoryStore implements repository.Store. Transactions take a store-wide
// lock and restore a snapshot when fn fails.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
	seq  *int64

	// Failure injection.
	FailEvents          bool
	ConflictOnDecrement uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	var seq int64
	return &MemoryStore{mu: &sync.Mutex{}, data: &memData{}, seq: &seq}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// now returns strictly increasing timestamps so "newest first" ordering is
// deterministic.
func (s *MemoryStore) now() time.Time {
	*s.seq++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(*s.seq) * time.Millisecond)
}

func (s *MemoryStore) Products() repository.ProductRepository { return &memProducts{s} }
func (s *MemoryStore) Carts() repository.CartRepository       { return &memCarts{s} }
func (s *MemoryStore) Orders() repository.OrderRepository     { return &memOrders{s} }
func (s *MemoryStore) StockMovements() repository.StockMovementRepository {
	return &memMovements{s}
}
func (s *MemoryStore) Events() repository.EventLogRepository { return &memEvents{s} }

func (s *MemoryStore) Transaction(fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := *s
	tx.inTx = true
	if err := fn(&tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// Inspection helpers for assertions.

func (s *MemoryStore) OrderCount() int {
	defer s.lock()()
	return len(s.data.orders)
}

func (s *MemoryStore) EventLogs() []model.EventLog {
	defer s.lock()()
	return append([]model.EventLog(nil), s.data.events...)
}

func (s *MemoryStore) Movements() []model.StockMovement {
	defer s.lock()()
	return append([]model.StockMovement(nil), s.data.movements...)
}

func (s *MemoryStore) StockOf(id uuid.UUID) *int {
	defer s.lock()()
	for _, p := range s.data.products {
		if p.ID == id {
			if p.Stock == nil {
				return nil
			}
			v := *p.Stock
			return &v
		}
	}
	return nil
}

func (d *memData) clone() *memData {
	c := &memData{
		movements: append([]model.StockMovement(nil), d.movements...),
		events:    append([]model.EventLog(nil), d.events...),
	}
	for _, p := range d.products {
		c.products = append(c.products, copyProduct(p))
	}
	for _, item := range d.carts {
		cp := *item
		c.carts = append(c.carts, &cp)
	}
	for _, o := range d.orders {
		c.orders = append(c.orders, copyOrder(o))
	}
	return c
}

func copyProduct(p *model.Product) *model.Product {
	cp := *p
	if p.Stock != nil {
		v := *p.Stock
		cp.Stock = &v
	}
	return &cp
}

func copyOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp
}

func paginate[T any](items []T, page repository.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type memProducts struct{ s *MemoryStore }

func (r *memProducts) find(id uuid.UUID) *model.Product {
	for _, p := range r.s.data.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *memProducts) Create(product *model.Product) error {
	defer r.s.lock()()
	for _, p := range r.s.data.products {
		if p.Slug == product.Slug {
			return errors.New("duplicate key value violates unique constraint \"idx_products_slug\"")
		}
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = r.s.now()
	product.UpdatedAt = product.CreatedAt
	r.s.data.products = append(r.s.data.products, copyProduct(product))
	return nil
}

func (r *memProducts) FindAll(filter repository.ProductFilter) ([]model.Product, int64, error) {
	defer r.s.lock()()
	var out []model.Product
	for i := len(r.s.data.products) - 1; i >= 0; i-- {
		p := r.s.data.products[i]
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		out = append(out, *copyProduct(p))
	}
	return paginate(out, filter.Page), int64(len(out)), nil
}

func (r *memProducts) FindByID(id uuid.UUID) (*model.Product, error) {
	defer r.s.lock()()
	if p := r.find(id); p != nil {
		return copyProduct(p), nil
	}
	return nil, repository.ErrNotFound
}

func (r *memProducts) FindByIDForUpdate(id uuid.UUID) (*model.Product, error) {
	return r.FindByID(id)
}

func (r *memProducts) FindBySlug(slug string) (*model.Product, error) {
	defer r.s.lock()()
	for _, p := range r.s.data.products {
		if p.Slug == slug {
			return copyProduct(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memProducts) Update(product *model.Product) error {
	defer r.s.lock()()
	for i, p := range r.s.data.products {
		if p.ID == product.ID {
			product.UpdatedAt = r.s.now()
			r.s.data.products[i] = copyProduct(product)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memProducts) DecrementStock(id uuid.UUID, qty int) (int, error) {
	defer r.s.lock()()
	if r.s.ConflictOnDecrement == id {
		return 0, repository.ErrConflict
	}
	p := r.find(id)
	if p == nil || p.Stock == nil || *p.Stock < qty {
		return 0, repository.ErrConflict
	}
	v := *p.Stock - qty
	p.Stock = &v
	return v, nil
}

func (r *memProducts) IncrementStock(id uuid.UUID, qty int) (int, error) {
	defer r.s.lock()()
	p := r.find(id)
	if p == nil || p.Stock == nil {
		return 0, repository.ErrConflict
	}
	v := *p.Stock + qty
	p.Stock = &v
	return v, nil
}

func (r *memProducts) CountLowStock(threshold int) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, p := range r.s.data.products {
		if p.IsActive && p.Stock != nil && *p.Stock < threshold {
			n++
		}
	}
	return n, nil
}

type memCarts struct{ s *MemoryStore }

func (r *memCarts) withProduct(item *model.CartItem) model.CartItem {
	cp := *item
	for _, p := range r.s.data.products {
		if p.ID == item.ProductID {
			cp.Product = copyProduct(p)
		}
	}
	return cp
}

func (r *memCarts) FindByUser(userID uuid.UUID) ([]model.CartItem, error) {
	defer r.s.lock()()
	var out []model.CartItem
	for _, item := range r.s.data.carts {
		if item.UserID == userID {
			out = append(out, r.withProduct(item))
		}
	}
	return out, nil
}

func (r *memCarts) FindByID(id uuid.UUID) (*model.CartItem, error) {
	defer r.s.lock()()
	for _, item := range r.s.data.carts {
		if item.ID == id {
			cp := r.withProduct(item)
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCarts) FindByUserAndProduct(userID, productID uuid.UUID) (*model.CartItem, error) {
	defer r.s.lock()()
	for _, item := range r.s.data.carts {
		if item.UserID == userID && item.ProductID == productID {
			cp := *item
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCarts) Create(item *model.CartItem) error {
	defer r.s.lock()()
	for _, existing := range r.s.data.carts {
		if existing.UserID == item.UserID && existing.ProductID == item.ProductID {
			return errors.New("duplicate key value violates unique constraint \"idx_cart_user_product\"")
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = r.s.now()
	item.UpdatedAt = item.CreatedAt
	cp := *item
	cp.Product = nil
	r.s.data.carts = append(r.s.data.carts, &cp)
	return nil
}

func (r *memCarts) UpdateQuantity(id uuid.UUID, qty int) error {
	defer r.s.lock()()
	for _, item := range r.s.data.carts {
		if item.ID == id {
			item.Quantity = qty
			item.UpdatedAt = r.s.now()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memCarts) Delete(id uuid.UUID) error {
	defer r.s.lock()()
	kept := r.s.data.carts[:0]
	for _, item := range r.s.data.carts {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	r.s.data.carts = kept
	return nil
}

func (r *memCarts) DeleteByUser(userID uuid.UUID) error {
	defer r.s.lock()()
	kept := r.s.data.carts[:0]
	for _, item := range r.s.data.carts {
		if item.UserID != userID {
			kept = append(kept, item)
		}
	}
	r.s.data.carts = kept
	return nil
}

type memOrders struct{ s *MemoryStore }

func (r *memOrders) find(id uuid.UUID) *model.Order {
	for _, o := range r.s.data.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (r *memOrders) Create(order *model.Order) error {
	defer r.s.lock()()
	for _, o := range r.s.data.orders {
		if o.OrderNumber == order.OrderNumber {
			return errors.New("duplicate key value violates unique constraint \"idx_orders_order_number\"")
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = r.s.now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = order.CreatedAt
		order.Items[i].UpdatedAt = order.CreatedAt
	}
	r.s.data.orders = append(r.s.data.orders, copyOrder(order))
	return nil
}

func (r *memOrders) FindByID(id uuid.UUID) (*model.Order, error) {
	defer r.s.lock()()
	if o := r.find(id); o != nil {
		return copyOrder(o), nil
	}
	return nil, repository.ErrNotFound
}

func (r *memOrders) FindAll(filter repository.OrderFilter) ([]model.Order, int64, error) {
	defer r.s.lock()()
	var out []model.Order
	for _, o := range r.s.data.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.OrderNumber != "" && o.OrderNumber != filter.OrderNumber {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Page), int64(len(out)), nil
}

func (r *memOrders) ExistsByOrderNumber(orderNumber string) (bool, error) {
	defer r.s.lock()()
	for _, o := range r.s.data.orders {
		if o.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *memOrders) UpdateStatus(id uuid.UUID, change repository.StatusChange) error {
	defer r.s.lock()()
	o := r.find(id)
	if o == nil || o.Status != change.From {
		return repository.ErrConflict
	}
	o.Status = change.To
	o.UpdatedBy = change.UpdatedBy
	if change.CancelReason != nil {
		reason := *change.CancelReason
		o.CancelReason = &reason
	}
	if change.CancelledAt != nil {
		at := *change.CancelledAt
		o.CancelledAt = &at
	}
	o.UpdatedAt = r.s.now()
	return nil
}

func (r *memOrders) findItem(itemID uuid.UUID) *model.OrderItem {
	for _, o := range r.s.data.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				return &o.Items[i]
			}
		}
	}
	return nil
}

func (r *memOrders) UpdateItemStatus(itemID uuid.UUID, from, to model.OrderStatus) error {
	defer r.s.lock()()
	item := r.findItem(itemID)
	if item == nil || item.ItemStatus != from {
		return repository.ErrConflict
	}
	item.ItemStatus = to
	return nil
}

func (r *memOrders) UpdateAdminMemo(id uuid.UUID, memo, updatedBy string) error {
	defer r.s.lock()()
	o := r.find(id)
	if o == nil {
		return repository.ErrNotFound
	}
	o.AdminMemo = memo
	o.UpdatedBy = updatedBy
	return nil
}

func (r *memOrders) RecordDownload(itemID uuid.UUID, at time.Time) error {
	defer r.s.lock()()
	item := r.findItem(itemID)
	if item == nil {
		return repository.ErrNotFound
	}
	item.DownloadCount++
	item.LastDownloadedAt = &at
	return nil
}

func (r *memOrders) CountByStatus() (map[model.OrderStatus]int64, error) {
	defer r.s.lock()()
	counts := map[model.OrderStatus]int64{}
	for _, o := range r.s.data.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (r *memOrders) SumRevenue() (int64, error) {
	defer r.s.lock()()
	var sum int64
	for _, o := range r.s.data.orders {
		if o.Status != model.StatusPending && o.Status != model.StatusCancelled {
			sum += o.TotalPrice
		}
	}
	return sum, nil
}

func (r *memOrders) GetDailySales(startDate, endDate time.Time) ([]repository.SalesData, error) {
	defer r.s.lock()()
	byDay := map[string]*repository.SalesData{}
	var days []string
	for _, o := range r.s.data.orders {
		if o.Status == model.StatusPending || o.Status == model.StatusCancelled {
			continue
		}
		if o.CreatedAt.Before(startDate) || o.CreatedAt.After(endDate) {
			continue
		}
		day := o.CreatedAt.Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = &repository.SalesData{Date: day}
			days = append(days, day)
		}
		byDay[day].Orders++
		byDay[day].Revenue += o.TotalPrice
	}
	sort.Strings(days)
	out := make([]repository.SalesData, 0, len(days))
	for _, d := range days {
		out = append(out, *byDay[d])
	}
	return out, nil
}

type memMovements struct{ s *MemoryStore }

func (r *memMovements) Create(movement *model.StockMovement) error {
	defer r.s.lock()()
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	movement.CreatedAt = r.s.now()
	cp := *movement
	cp.Product = nil
	r.s.data.movements = append(r.s.data.movements, cp)
	return nil
}

func (r *memMovements) FindByProduct(productID uuid.UUID, page repository.Page) ([]model.StockMovement, int64, error) {
	defer r.s.lock()()
	var out []model.StockMovement
	for i := len(r.s.data.movements) - 1; i >= 0; i-- {
		if r.s.data.movements[i].ProductID == productID {
			out = append(out, r.s.data.movements[i])
		}
	}
	return paginate(out, page), int64(len(out)), nil
}

func (r *memMovements) FindByOrder(orderID uuid.UUID) ([]model.StockMovement, error) {
	defer r.s.lock()()
	var out []model.StockMovement
	for _, m := range r.s.data.movements {
		if m.OrderID != nil && *m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovements) GetStockMovement(startDate, endDate time.Time) ([]repository.StockMovementData, error) {
	defer r.s.lock()()
	byDay := map[string]*repository.StockMovementData{}
	var days []string
	for _, m := range r.s.data.movements {
		if m.CreatedAt.Before(startDate) || m.CreatedAt.After(endDate) {
			continue
		}
		day := m.CreatedAt.Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = &repository.StockMovementData{Date: day}
			days = append(days, day)
		}
		if m.Type == model.MovementIn {
			byDay[day].Inbound += m.Quantity
		} else {
			byDay[day].Outbound += m.Quantity
		}
	}
	sort.Strings(days)
	out := make([]repository.StockMovementData, 0, len(days))
	for _, d := range days {
		out = append(out, *byDay[d])
	}
	return out, nil
}

type memEvents struct{ s *MemoryStore }

func (r *memEvents) Create(entry *model.EventLog) error {
	defer r.s.lock()()
	if r.s.FailEvents {
		return ErrInjected
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = r.s.now()
	r.s.data.events = append(r.s.data.events, *entry)
	return nil
}

func (r *memEvents) FindAll(filter repository.EventLogFilter) ([]model.EventLog, int64, error) {
	defer r.s.lock()()
	var out []model.EventLog
	for i := len(r.s.data.events) - 1; i >= 0; i-- {
		e := r.s.data.events[i]
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		out = append(out, e)
	}
	return paginate(out, filter.Page), int64(len(out)), nil
}
