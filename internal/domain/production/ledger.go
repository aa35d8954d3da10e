package production

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FloorLedger maps floor keys to their quantity buckets for one article. It
// persists as a single JSONB column so an article's whole ledger is always
// read and written atomically.
type FloorLedger map[Floor]FloorBucket

// Bucket returns the bucket at f, zero-valued when the floor has no entry.
func (l FloorLedger) Bucket(f Floor) FloorBucket {
	if l == nil {
		return FloorBucket{}
	}
	return l[f]
}

// SetBucket stores b at f with derived counters recomputed.
func (l FloorLedger) SetBucket(f Floor, b FloorBucket) {
	l[f] = b.normalized()
}

// Clone deep-copies the ledger. Engine operations work on a clone and swap it
// in only after validation succeeds, so a failed mutation leaves no trace.
func (l FloorLedger) Clone() FloorLedger {
	out := make(FloorLedger, len(l))
	for f, b := range l {
		out[f] = b
	}
	return out
}

// Value implements driver.Valuer for the JSONB column.
func (l FloorLedger) Value() (driver.Value, error) {
	if l == nil {
		l = FloorLedger{}
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for the JSONB column.
func (l *FloorLedger) Scan(src interface{}) error {
	if src == nil {
		*l = FloorLedger{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported floor ledger column type %T", src)
	}
	if len(raw) == 0 {
		*l = FloorLedger{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

// GormDataType tells GORM how to type the column.
func (FloorLedger) GormDataType() string { return "jsonb" }

// ComputeProgress derives the overall completion percentage: the share of the
// article's intake (first-floor received) that has arrived at the terminal
// floor of its resolved flow.
func ComputeProgress(l FloorLedger, flow Flow) float64 {
	if flow.Len() == 0 {
		return 0
	}
	intake := l.Bucket(flow.First()).Received
	if intake <= 0 {
		return 0
	}
	done := l.Bucket(flow.Terminal()).Received
	pct := float64(done) / float64(intake) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// DeriveStatus maps ledger state to the article lifecycle tag.
func DeriveStatus(l FloorLedger, flow Flow) ArticleStatus {
	if flow.Len() == 0 {
		return StatusPending
	}
	intake := l.Bucket(flow.First()).Received
	if intake <= 0 {
		return StatusPending
	}
	if l.Bucket(flow.Terminal()).Received >= intake {
		return StatusCompleted
	}
	return StatusInProgress
}
