package production

// RepairStatus values carried on inspection-floor buckets.
const (
	RepairRequired    = "Required"
	RepairNotRequired = "Not Required"
)

// FloorBucket holds the per-floor counters of one article. Counters are never
// negative; Remaining and M1Remaining are derived and recomputed after every
// mutation, never stored stale.
type FloorBucket struct {
	Received    int `json:"received"`
	Completed   int `json:"completed"`
	Transferred int `json:"transferred"`
	Remaining   int `json:"remaining"`

	// Grade buckets, populated only at inspection floors.
	M1Quantity    int    `json:"m1Quantity,omitempty"`
	M2Quantity    int    `json:"m2Quantity,omitempty"`
	M3Quantity    int    `json:"m3Quantity,omitempty"`
	M4Quantity    int    `json:"m4Quantity,omitempty"`
	M1Transferred int    `json:"m1Transferred,omitempty"`
	M1Remaining   int    `json:"m1Remaining,omitempty"`
	M2Transferred int    `json:"m2Transferred,omitempty"`
	RepairStatus  string `json:"repairStatus,omitempty"`
	RepairRemarks string `json:"repairRemarks,omitempty"`
}

// normalized recomputes the derived counters. Negative results clamp to zero;
// the detector reports the underlying inconsistency separately so the clamp
// never hides corruption.
func (b FloorBucket) normalized() FloorBucket {
	b.Remaining = clampNonNegative(b.Received - b.Transferred)
	b.M1Remaining = clampNonNegative(b.M1Quantity - b.M1Transferred)
	return b
}

// GradeSum is the total quantity already graded at an inspection floor.
func (b FloorBucket) GradeSum() int {
	return b.M1Quantity + b.M2Quantity + b.M3Quantity + b.M4Quantity
}

// Forwardable is the amount eligible to move to the next floor: at inspection
// floors only ungraded-forward M1 stock may proceed, elsewhere whatever has
// been completed and not yet transferred.
func (b FloorBucket) Forwardable(f Floor) int {
	if f.IsInspection() {
		return clampNonNegative(b.M1Quantity - b.M1Transferred)
	}
	available := b.Received - b.Transferred
	if headroom := b.Completed - b.Transferred; headroom < available {
		available = headroom
	}
	return clampNonNegative(available)
}

// RepairableM2 is the M2 quantity not yet sent backward for rework.
func (b FloorBucket) RepairableM2() int {
	return clampNonNegative(b.M2Quantity - b.M2Transferred)
}

// IsZero reports whether every counter of the bucket is zero-valued.
func (b FloorBucket) IsZero() bool {
	return b.Received == 0 && b.Completed == 0 && b.Transferred == 0 &&
		b.Remaining == 0 && b.GradeSum() == 0 &&
		b.M1Transferred == 0 && b.M1Remaining == 0 && b.M2Transferred == 0 &&
		b.RepairStatus == "" && b.RepairRemarks == ""
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
