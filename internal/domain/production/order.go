package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusOpen       OrderStatus = "open"
	OrderStatusInProgress OrderStatus = "inProgress"
	OrderStatusCompleted  OrderStatus = "completed"
)

// Order groups the articles of one production run for a factory code.
type Order struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber   string      `gorm:"column:order_number;uniqueIndex;not null" json:"orderNumber"`
	FactoryCode   string      `gorm:"column:factory_code;not null;index" json:"factoryCode"`
	TotalQuantity int         `gorm:"column:total_quantity;not null;default:0" json:"totalQuantity"`
	Status        OrderStatus `gorm:"column:status;not null;default:'open';index" json:"status"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Order) TableName() string { return "order" }
