package production

import "strings"

// Floor identifies one production stage. The set is closed: every process a
// product configures must resolve to exactly one of these values, and
// adjacency is never derived from the declaration order below — only from an
// article's resolved flow.
type Floor string

const (
	FloorKnitting          Floor = "knitting"
	FloorLinking           Floor = "linking"
	FloorChecking          Floor = "checking"
	FloorWashing           Floor = "washing"
	FloorBoarding          Floor = "boarding"
	FloorSilicon           Floor = "silicon"
	FloorSecondaryChecking Floor = "secondaryChecking"
	FloorFinalChecking     Floor = "finalChecking"
	FloorBranding          Floor = "branding"
	FloorWarehouse         Floor = "warehouse"
	FloorDispatch          Floor = "dispatch"
)

// AllFloors lists every known floor. Used for corruption scans (invariant:
// floors outside an article's resolved flow must hold all-zero buckets), not
// for sequencing.
var AllFloors = []Floor{
	FloorKnitting,
	FloorLinking,
	FloorChecking,
	FloorWashing,
	FloorBoarding,
	FloorSilicon,
	FloorSecondaryChecking,
	FloorFinalChecking,
	FloorBranding,
	FloorWarehouse,
	FloorDispatch,
}

var floorByKey = func() map[string]Floor {
	m := make(map[string]Floor, len(AllFloors))
	for _, f := range AllFloors {
		m[strings.ToLower(string(f))] = f
	}
	// Process names as configured on products. Spaces and hyphens are
	// tolerated so "Secondary Checking" and "secondary-checking" both map.
	m["secondary checking"] = FloorSecondaryChecking
	m["secondary-checking"] = FloorSecondaryChecking
	m["final checking"] = FloorFinalChecking
	m["final-checking"] = FloorFinalChecking
	return m
}()

// ParseFloor resolves a configured process name to a known floor.
func ParseFloor(raw string) (Floor, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	f, ok := floorByKey[key]
	return f, ok
}

// IsInspection reports whether quality grading (M1–M4) applies at f.
func (f Floor) IsInspection() bool {
	switch f {
	case FloorChecking, FloorSecondaryChecking, FloorFinalChecking:
		return true
	}
	return false
}

func (f Floor) String() string { return string(f) }

// Valid reports whether f is a member of the closed floor set.
func (f Floor) Valid() bool {
	_, ok := floorByKey[strings.ToLower(string(f))]
	return ok
}
