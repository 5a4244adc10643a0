package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Toite-app/api-sub001/pkg/enums"
)

// Order is the aggregate root for a restaurant order. Its status and monetary
// totals are derived from the contained dishes; totals are only rewritten by
// the recalculation path inside a transaction holding the order row.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID    uuid.UUID         `gorm:"column:restaurant_id;type:uuid;not null"`
	OwnerID         uuid.UUID         `gorm:"column:owner_id;type:uuid;not null"`
	Number          int64             `gorm:"column:number;not null"`
	Type            enums.OrderType   `gorm:"column:type;type:order_type;not null;default:'dine_in'"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	GuestsCount     int               `gorm:"column:guests_count;not null;default:1"`
	TableNumber     *string           `gorm:"column:table_number"`
	Note            *string           `gorm:"column:note"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(14,2);not null;default:0"`
	SurchargeAmount decimal.Decimal   `gorm:"column:surcharge_amount;type:numeric(14,2);not null;default:0"`
	DiscountAmount  decimal.Decimal   `gorm:"column:discount_amount;type:numeric(14,2);not null;default:0"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(14,2);not null;default:0"`
	Dishes          []OrderDish       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CookingAt       *time.Time        `gorm:"column:cooking_at"`
	ReadyAt         *time.Time        `gorm:"column:ready_at"`
	DeliveredAt     *time.Time        `gorm:"column:delivered_at"`
	ArchivedAt      *time.Time        `gorm:"column:archived_at"`
	RemovedAt       *time.Time        `gorm:"column:removed_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// IsRemoved reports whether the order has been soft-deleted.
func (o Order) IsRemoved() bool {
	return o.RemovedAt != nil
}
