package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArticleStatus is derived from ledger state after every mutation.
type ArticleStatus string

const (
	StatusPending          ArticleStatus = "pending"
	StatusInProgress       ArticleStatus = "inProgress"
	StatusCompleted        ArticleStatus = "completed"
	StatusQualityConfirmed ArticleStatus = "qualityConfirmed"
)

// Article is one produced lot within an order, moving across floors. The
// whole per-floor ledger lives in FloorQuantities and is read and written as
// one JSONB value; Version backs compare-and-set writes so concurrent
// mutations of the same article never interleave.
type Article struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"order_id"`
	Order         *Order        `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrderID;references:ID" json:"order,omitempty"`
	ArticleNumber string        `gorm:"column:article_number;not null;index" json:"articleNumber"`
	CurrentFloor  Floor         `gorm:"column:current_floor;not null;default:''" json:"currentFloor"`
	FloorLedger   FloorLedger   `gorm:"column:floor_quantities;type:jsonb" json:"floorQuantities"`
	Progress      float64       `gorm:"column:progress;not null;default:0" json:"progress"`
	Status        ArticleStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Version       int           `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Article) TableName() string { return "article" }
