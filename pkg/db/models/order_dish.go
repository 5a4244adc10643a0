package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Toite-app/api-sub001/pkg/enums"
)

// OrderDish is a single quantity-bearing line of a dish within an order. The
// dish name is denormalized at add time so later menu edits never rewrite
// historical orders. Lines are soft-deleted, never removed.
type OrderDish struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID        `gorm:"column:order_id;type:uuid;not null"`
	DishID           uuid.UUID        `gorm:"column:dish_id;type:uuid;not null"`
	Name             string           `gorm:"column:name;not null"`
	Status           enums.DishStatus `gorm:"column:status;type:dish_status;not null;default:'pending'"`
	Quantity         int              `gorm:"column:quantity;not null"`
	QuantityReturned int              `gorm:"column:quantity_returned;not null;default:0"`
	Price            decimal.Decimal  `gorm:"column:price;type:numeric(14,2);not null;default:0"`
	DiscountPercent  decimal.Decimal  `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	DiscountAmount   decimal.Decimal  `gorm:"column:discount_amount;type:numeric(14,2);not null;default:0"`
	SurchargePercent decimal.Decimal  `gorm:"column:surcharge_percent;type:numeric(5,2);not null;default:0"`
	SurchargeAmount  decimal.Decimal  `gorm:"column:surcharge_amount;type:numeric(14,2);not null;default:0"`
	FinalPrice       decimal.Decimal  `gorm:"column:final_price;type:numeric(14,2);not null;default:0"`
	IsRemoved        bool             `gorm:"column:is_removed;not null;default:false"`
	IsAdditional     bool             `gorm:"column:is_additional;not null;default:false"`
	CookingAt        *time.Time       `gorm:"column:cooking_at"`
	ReadyAt          *time.Time       `gorm:"column:ready_at"`
	CompletedAt      *time.Time       `gorm:"column:completed_at"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// IsLive reports whether the line participates in totals and kitchen checks.
func (d OrderDish) IsLive() bool {
	return !d.IsRemoved && d.Quantity > 0
}
