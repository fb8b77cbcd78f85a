package repository

import (
	"context"

	"storefront/internal/model"

	"gorm.io/gorm"
)

type ShippingZoneRepository interface {
	Create(ctx context.Context, zone *model.ShippingZone) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.ShippingZone, error)
	List(ctx context.Context) ([]model.ShippingZone, error)
	InUse(ctx context.Context, id uint) (bool, error)
}

type shippingZoneRepository struct {
	db *gorm.DB
}

func NewShippingZoneRepository(db *gorm.DB) ShippingZoneRepository {
	return &shippingZoneRepository{db: db}
}

func (r *shippingZoneRepository) Create(ctx context.Context, zone *model.ShippingZone) error {
	return GetDB(ctx, r.db).Create(zone).Error
}

func (r *shippingZoneRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ShippingZone{}).Error
}

func (r *shippingZoneRepository) FindByID(ctx context.Context, id uint) (*model.ShippingZone, error) {
	var zone model.ShippingZone
	if err := GetDB(ctx, r.db).First(&zone, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *shippingZoneRepository) List(ctx context.Context) ([]model.ShippingZone, error) {
	var zones []model.ShippingZone
	if err := GetDB(ctx, r.db).Order("name asc").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

// InUse reports whether any shipping rule is restricted to the zone
func (r *shippingZoneRepository) InUse(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ShippingRule{}).Where("shipping_zone_id = ?", id).Count(&count).Error
	return count > 0, err
}
