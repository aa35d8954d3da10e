package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product owns the factory code articles map onto and the ordered process
// list the flow resolver consumes. Everything else about products (yarn,
// costing, sizes) belongs to other systems.
type Product struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	FactoryCode string                      `gorm:"column:factory_code;uniqueIndex;not null" json:"factoryCode"`
	Name        string                      `gorm:"column:name;not null" json:"name"`
	Processes   datatypes.JSONSlice[string] `gorm:"column:processes;type:jsonb" json:"processes"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "product" }
