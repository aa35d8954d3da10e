package production

// TransferResult reports one forward movement between adjacent floors of the
// resolved flow.
type TransferResult struct {
	From     Floor       `json:"from"`
	To       Floor       `json:"to"`
	Quantity int         `json:"quantity"`
	Ledger   FloorLedger `json:"-"`
}

// ApplyTransfer moves quantity from fromFloor's forwardable stock into the
// next floor of the resolved flow. The input ledger is never mutated: the
// result carries a new ledger, and any validation failure leaves the caller's
// state untouched.
func ApplyTransfer(ledger FloorLedger, flow Flow, fromFloor Floor, quantity int) (TransferResult, error) {
	const op = "ledger.transfer"

	if quantity <= 0 {
		return TransferResult{}, Errorf(CodeValidation, op, "transfer quantity must be positive, got %d", quantity)
	}
	toFloor, err := flow.Next(fromFloor)
	if err != nil {
		return TransferResult{}, err
	}

	src := ledger.Bucket(fromFloor)
	forwardable := src.Forwardable(fromFloor)
	if quantity > forwardable {
		return TransferResult{}, Errorf(CodeInsufficientQuantity, op,
			"floor %s has %d forwardable but %d requested (received=%d completed=%d transferred=%d)",
			fromFloor, forwardable, quantity, src.Received, src.Completed, src.Transferred)
	}

	next := ledger.Clone()
	src.Transferred += quantity
	if fromFloor.IsInspection() {
		src.M1Transferred += quantity
	}
	next.SetBucket(fromFloor, src)

	dst := next.Bucket(toFloor)
	dst.Received += quantity
	next.SetBucket(toFloor, dst)

	if violations := floorViolations(fromFloor, next.Bucket(fromFloor)); len(violations) > 0 {
		return TransferResult{}, Errorf(CodeCorruptionDetected, op,
			"transfer would leave floor %s inconsistent: %s", fromFloor, violations[0])
	}

	return TransferResult{From: fromFloor, To: toFloor, Quantity: quantity, Ledger: next}, nil
}

// ApplyReceive records genuinely new intake. Only the first floor of the
// resolved flow may receive stock from outside; every other floor's received
// counter moves exclusively through transfers and repair loopbacks.
func ApplyReceive(ledger FloorLedger, flow Flow, floor Floor, quantity int) (FloorLedger, error) {
	const op = "ledger.receive"

	if quantity <= 0 {
		return nil, Errorf(CodeValidation, op, "receive quantity must be positive, got %d", quantity)
	}
	if !flow.Contains(floor) {
		return nil, Errorf(CodeInvalidFloor, op, "floor %s is not part of the resolved flow", floor)
	}
	if floor != flow.First() {
		return nil, Errorf(CodeInvalidFloor, op,
			"floor %s only receives through transfers; new intake enters at %s", floor, flow.First())
	}

	next := ledger.Clone()
	b := next.Bucket(floor)
	b.Received += quantity
	next.SetBucket(floor, b)
	return next, nil
}

// ApplyComplete records production finishing at a floor, bounded by what the
// floor has received.
func ApplyComplete(ledger FloorLedger, flow Flow, floor Floor, quantity int) (FloorLedger, error) {
	const op = "ledger.complete"

	if quantity <= 0 {
		return nil, Errorf(CodeValidation, op, "complete quantity must be positive, got %d", quantity)
	}
	if !flow.Contains(floor) {
		return nil, Errorf(CodeInvalidFloor, op, "floor %s is not part of the resolved flow", floor)
	}

	b := ledger.Bucket(floor)
	if b.Completed+quantity > b.Received {
		return nil, Errorf(CodeInsufficientQuantity, op,
			"floor %s received %d, completing %d more would exceed it (completed=%d)",
			floor, b.Received, quantity, b.Completed)
	}

	next := ledger.Clone()
	b.Completed += quantity
	next.SetBucket(floor, b)
	return next, nil
}
