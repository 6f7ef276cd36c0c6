package repository

import (
	"lucent-shop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindByUser(userID uuid.UUID) ([]model.CartItem, error)
	FindByID(id uuid.UUID) (*model.CartItem, error)
	FindByUserAndProduct(userID, productID uuid.UUID) (*model.CartItem, error)
	Create(item *model.CartItem) error
	UpdateQuantity(id uuid.UUID, qty int) error
	Delete(id uuid.UUID) error
	DeleteByUser(userID uuid.UUID) error
}

type cartRepo struct {
	db *gorm.DB
}

func NewCartRepo(db *gorm.DB) CartRepository {
	return &cartRepo{db}
}

func (r *cartRepo) FindByUser(userID uuid.UUID) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *cartRepo) FindByID(id uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.Preload("Product").First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *cartRepo) FindByUserAndProduct(userID, productID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *cartRepo) Create(item *model.CartItem) error {
	return r.db.Omit("Product").Create(item).Error
}

func (r *cartRepo) UpdateQuantity(id uuid.UUID, qty int) error {
	res := r.db.Model(&model.CartItem{}).Where("id = ?", id).Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.CartItem{}, "id = ?", id).Error
}

func (r *cartRepo) DeleteByUser(userID uuid.UUID) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error
}
