package production

import "testing"

func TestApplyTransferForward(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorLinking, FloorWashing)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorKnitting, FloorBucket{Received: 500, Completed: 500})

	res, err := ApplyTransfer(ledger, flow, FloorKnitting, 200)
	if err != nil {
		t.Fatalf("ApplyTransfer: %v", err)
	}
	if res.To != FloorLinking {
		t.Fatalf("expected transfer into linking, got %s", res.To)
	}

	src := res.Ledger.Bucket(FloorKnitting)
	if src.Transferred != 200 || src.Remaining != 300 {
		t.Fatalf("knitting after transfer: transferred=%d remaining=%d", src.Transferred, src.Remaining)
	}
	dst := res.Ledger.Bucket(FloorLinking)
	if dst.Received != 200 {
		t.Fatalf("linking should have received 200, got %d", dst.Received)
	}

	// Input ledger stays untouched.
	if ledger.Bucket(FloorKnitting).Transferred != 0 {
		t.Fatalf("input ledger was mutated")
	}
	if ledger.Bucket(FloorLinking).Received != 0 {
		t.Fatalf("input ledger was mutated at destination")
	}
}

func TestApplyTransferCreatesMissingDestinationBucket(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorLinking)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorKnitting, FloorBucket{Received: 50, Completed: 50})

	res, err := ApplyTransfer(ledger, flow, FloorKnitting, 50)
	if err != nil {
		t.Fatalf("ApplyTransfer: %v", err)
	}
	if got := res.Ledger.Bucket(FloorLinking).Received; got != 50 {
		t.Fatalf("destination bucket should be created with received=50, got %d", got)
	}
}

func TestApplyTransferBounds(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorLinking)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorKnitting, FloorBucket{Received: 100, Completed: 60, Transferred: 40})

	// Forwardable is completed-transferred = 20, not received-transferred = 60.
	if _, err := ApplyTransfer(ledger, flow, FloorKnitting, 30); !IsCode(err, CodeInsufficientQuantity) {
		t.Fatalf("expected insufficient quantity, got %v", err)
	}
	if _, err := ApplyTransfer(ledger, flow, FloorKnitting, 20); err != nil {
		t.Fatalf("transfer within bound should succeed: %v", err)
	}
	if _, err := ApplyTransfer(ledger, flow, FloorKnitting, 0); !IsCode(err, CodeValidation) {
		t.Fatalf("zero quantity must be rejected, got %v", err)
	}
	if _, err := ApplyTransfer(ledger, flow, FloorLinking, 1); !IsCode(err, CodeInvalidFloor) {
		t.Fatalf("terminal floor must be rejected, got %v", err)
	}
	if _, err := ApplyTransfer(ledger, flow, FloorWashing, 1); !IsCode(err, CodeInvalidFloor) {
		t.Fatalf("floor outside flow must be rejected, got %v", err)
	}
}

func TestApplyTransferInspectionBoundedByM1(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorChecking, FloorWashing)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorChecking, FloorBucket{
		Received: 100, Completed: 100,
		M1Quantity: 70, M2Quantity: 20, M3Quantity: 5, M4Quantity: 5,
	})

	if _, err := ApplyTransfer(ledger, flow, FloorChecking, 71); !IsCode(err, CodeInsufficientQuantity) {
		t.Fatalf("transfer beyond m1 must fail, got %v", err)
	}
	// State unchanged after the failed attempt.
	if ledger.Bucket(FloorChecking).Transferred != 0 {
		t.Fatalf("failed transfer must leave state unchanged")
	}

	res, err := ApplyTransfer(ledger, flow, FloorChecking, 70)
	if err != nil {
		t.Fatalf("transfer up to m1 should succeed: %v", err)
	}
	b := res.Ledger.Bucket(FloorChecking)
	if b.Transferred != 70 || b.M1Transferred != 70 || b.M1Remaining != 0 {
		t.Fatalf("checking after transfer: %+v", b)
	}
	if b.Transferred > b.M1Quantity {
		t.Fatalf("forward bound violated: transferred=%d m1=%d", b.Transferred, b.M1Quantity)
	}
}

func TestApplyTransferConservation(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorLinking, FloorWashing)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorKnitting, FloorBucket{Received: 300, Completed: 300})

	for _, qty := range []int{100, 50, 150} {
		res, err := ApplyTransfer(ledger, flow, FloorKnitting, qty)
		if err != nil {
			t.Fatalf("transfer %d: %v", qty, err)
		}
		ledger = res.Ledger
		out := ledger.Bucket(FloorKnitting).Transferred
		in := ledger.Bucket(FloorLinking).Received
		if out != in {
			t.Fatalf("conservation broken: transferred out %d, received in %d", out, in)
		}
	}
}

func TestApplyReceiveOnlyAtFirstFloor(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorLinking)
	ledger := FloorLedger{}

	next, err := ApplyReceive(ledger, flow, FloorKnitting, 120)
	if err != nil {
		t.Fatalf("ApplyReceive: %v", err)
	}
	if next.Bucket(FloorKnitting).Received != 120 {
		t.Fatalf("intake not recorded: %+v", next.Bucket(FloorKnitting))
	}
	if _, err := ApplyReceive(ledger, flow, FloorLinking, 10); !IsCode(err, CodeInvalidFloor) {
		t.Fatalf("intake at a non-first floor must fail, got %v", err)
	}
}

func TestApplyCompleteBoundedByReceived(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorLinking)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorKnitting, FloorBucket{Received: 80})

	next, err := ApplyComplete(ledger, flow, FloorKnitting, 80)
	if err != nil {
		t.Fatalf("ApplyComplete: %v", err)
	}
	if next.Bucket(FloorKnitting).Completed != 80 {
		t.Fatalf("completed not recorded: %+v", next.Bucket(FloorKnitting))
	}
	if _, err := ApplyComplete(next, flow, FloorKnitting, 1); !IsCode(err, CodeInsufficientQuantity) {
		t.Fatalf("completing beyond received must fail, got %v", err)
	}
}
