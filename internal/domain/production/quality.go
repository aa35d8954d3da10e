package production

// Grades carries one quality classification at an inspection floor. M1 is
// passing quality eligible to move forward, M2 is reworkable, M3/M4 are
// scrap grades.
type Grades struct {
	M1 int `json:"m1"`
	M2 int `json:"m2"`
	M3 int `json:"m3"`
	M4 int `json:"m4"`
}

func (g Grades) Sum() int { return g.M1 + g.M2 + g.M3 + g.M4 }

// ApplyQuality sets the four grade counters at an inspection floor. Grading
// never moves quantity onward; forwarding M1 stock is a separate transfer
// bounded by m1Remaining. Violating inputs are rejected, never clamped.
func ApplyQuality(ledger FloorLedger, flow Flow, floor Floor, grades Grades) (FloorLedger, error) {
	const op = "ledger.quality"

	if !flow.Contains(floor) {
		return nil, Errorf(CodeInvalidFloor, op, "floor %s is not part of the resolved flow", floor)
	}
	if !floor.IsInspection() {
		return nil, Errorf(CodeInvalidFloor, op, "floor %s is not an inspection floor", floor)
	}
	if grades.M1 < 0 || grades.M2 < 0 || grades.M3 < 0 || grades.M4 < 0 {
		return nil, Errorf(CodeValidation, op, "grade quantities must be non-negative: %+v", grades)
	}

	b := ledger.Bucket(floor)
	if grades.Sum() > b.Completed {
		return nil, Errorf(CodeQualityOverflow, op,
			"grade sum %d exceeds completed %d at floor %s", grades.Sum(), b.Completed, floor)
	}
	if grades.M1 < b.Transferred {
		return nil, Errorf(CodeValidation, op,
			"floor %s already transferred %d, m1 cannot be graded below it (got %d)",
			floor, b.Transferred, grades.M1)
	}
	if grades.M1 < b.M1Transferred {
		return nil, Errorf(CodeValidation, op,
			"floor %s already forwarded %d of m1, cannot regrade m1 to %d",
			floor, b.M1Transferred, grades.M1)
	}
	if grades.M2 < b.M2Transferred {
		return nil, Errorf(CodeValidation, op,
			"floor %s already sent %d of m2 for repair, cannot regrade m2 to %d",
			floor, b.M2Transferred, grades.M2)
	}

	next := ledger.Clone()
	b.M1Quantity = grades.M1
	b.M2Quantity = grades.M2
	b.M3Quantity = grades.M3
	b.M4Quantity = grades.M4
	if grades.M2 > 0 {
		b.RepairStatus = RepairRequired
	} else {
		b.RepairStatus = RepairNotRequired
	}
	next.SetBucket(floor, b)
	return next, nil
}
