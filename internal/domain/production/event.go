package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventKind tags a floor event for the audit trail and statistics queries.
type EventKind string

const (
	EventReceive  EventKind = "receive"
	EventComplete EventKind = "complete"
	EventTransfer EventKind = "transfer"
	EventQuality  EventKind = "quality"
	EventRepair   EventKind = "repair"
	EventHeal     EventKind = "heal"
)

// FloorEvent is the append-only record of one ledger mutation. Every
// successful operation writes its event in the same transaction as the
// ledger, so statistics always reconcile with bucket counters.
type FloorEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ArticleID uuid.UUID      `gorm:"type:uuid;not null;index:idx_floor_event_article" json:"article_id"`
	Article   *Article       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ArticleID;references:ID" json:"article,omitempty"`
	Kind      EventKind      `gorm:"column:kind;not null;index:idx_floor_event_kind_floor,priority:1" json:"kind"`
	Floor     Floor          `gorm:"column:floor;not null;index:idx_floor_event_kind_floor,priority:2" json:"floor"`
	FromFloor Floor          `gorm:"column:from_floor" json:"fromFloor,omitempty"`
	ToFloor   Floor          `gorm:"column:to_floor" json:"toFloor,omitempty"`
	Quantity  int            `gorm:"column:quantity;not null;default:0" json:"quantity"`
	Remarks   string         `gorm:"column:remarks;type:text" json:"remarks,omitempty"`
	Meta      datatypes.JSON `gorm:"column:meta;type:jsonb" json:"meta,omitempty"`
	ActorID   *uuid.UUID     `gorm:"type:uuid;column:actor_id" json:"actor_id,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (FloorEvent) TableName() string { return "floor_event" }
