package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Toite-app/api-sub001/pkg/enums"
)

// Worker is a back-office actor (waiter, cook, cashier, owner, ...).
type Worker struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Login        string           `gorm:"column:login;uniqueIndex;not null"`
	Name         string           `gorm:"column:name;not null"`
	Role         enums.WorkerRole `gorm:"column:role;type:worker_role;not null"`
	RestaurantID *uuid.UUID       `gorm:"column:restaurant_id;type:uuid"`
	IsBlocked    bool             `gorm:"column:is_blocked;not null;default:false"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
