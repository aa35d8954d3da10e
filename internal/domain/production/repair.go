package production

// RepairResult reports one backward rework movement.
type RepairResult struct {
	Checking Floor       `json:"checking"`
	Target   Floor       `json:"target"`
	Quantity int         `json:"quantity"`
	Ledger   FloorLedger `json:"-"`
}

// ApplyRepair moves M2-graded quantity backward from a checking floor to an
// earlier floor of the resolved flow for rework. When targetFloor is nil the
// floor immediately preceding checkingFloor is used. A supplied target must
// sit strictly earlier in the flow — rework never moves sideways or forward.
//
// The grade count itself is historical and stays untouched; only the
// transferred-for-repair counter advances, so m2Quantity-m2Transferred trends
// toward zero as repairs are issued.
func ApplyRepair(ledger FloorLedger, flow Flow, checkingFloor Floor, quantity int, targetFloor *Floor) (RepairResult, error) {
	const op = "ledger.repair"

	if quantity <= 0 {
		return RepairResult{}, Errorf(CodeValidation, op, "repair quantity must be positive, got %d", quantity)
	}
	if !flow.Contains(checkingFloor) {
		return RepairResult{}, Errorf(CodeInvalidFloor, op, "floor %s is not part of the resolved flow", checkingFloor)
	}
	if !checkingFloor.IsInspection() {
		return RepairResult{}, Errorf(CodeInvalidFloor, op, "floor %s is not an inspection floor", checkingFloor)
	}

	var target Floor
	if targetFloor == nil {
		prev, err := flow.Prev(checkingFloor)
		if err != nil {
			return RepairResult{}, Errorf(CodeInvalidTargetFloor, op,
				"floor %s has no predecessor to repair into", checkingFloor)
		}
		target = prev
	} else {
		target = *targetFloor
		if !flow.Before(target, checkingFloor) {
			return RepairResult{}, Errorf(CodeInvalidTargetFloor, op,
				"repair target %s must be strictly earlier than %s in the resolved flow", target, checkingFloor)
		}
	}

	b := ledger.Bucket(checkingFloor)
	repairable := b.RepairableM2()
	if quantity > repairable {
		return RepairResult{}, Errorf(CodeInsufficientQuantity, op,
			"floor %s has %d of m2 left to repair but %d requested (m2=%d m2Transferred=%d)",
			checkingFloor, repairable, quantity, b.M2Quantity, b.M2Transferred)
	}

	next := ledger.Clone()
	b.M2Transferred += quantity
	next.SetBucket(checkingFloor, b)

	dst := next.Bucket(target)
	dst.Received += quantity
	next.SetBucket(target, dst)

	return RepairResult{Checking: checkingFloor, Target: target, Quantity: quantity, Ledger: next}, nil
}
