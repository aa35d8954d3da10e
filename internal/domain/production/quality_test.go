package production

import "testing"

func TestApplyQualitySetsGradesAndRepairStatus(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorChecking, FloorWashing)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorChecking, FloorBucket{Received: 500, Completed: 500})

	next, err := ApplyQuality(ledger, flow, FloorChecking, Grades{M1: 400, M2: 60, M3: 30, M4: 10})
	if err != nil {
		t.Fatalf("ApplyQuality: %v", err)
	}
	b := next.Bucket(FloorChecking)
	if b.M1Quantity != 400 || b.M2Quantity != 60 || b.M3Quantity != 30 || b.M4Quantity != 10 {
		t.Fatalf("grades not applied: %+v", b)
	}
	if b.M1Remaining != 400 {
		t.Fatalf("m1Remaining should equal m1Quantity before any forward, got %d", b.M1Remaining)
	}
	if b.RepairStatus != RepairRequired {
		t.Fatalf("m2 > 0 should mark repair required, got %q", b.RepairStatus)
	}

	clean, err := ApplyQuality(ledger, flow, FloorChecking, Grades{M1: 500})
	if err != nil {
		t.Fatalf("ApplyQuality (all m1): %v", err)
	}
	if got := clean.Bucket(FloorChecking).RepairStatus; got != RepairNotRequired {
		t.Fatalf("no m2 should mark repair not required, got %q", got)
	}
}

func TestApplyQualityOverflowRejected(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorChecking)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorChecking, FloorBucket{
		Received: 500, Completed: 500,
		M1Quantity: 100, M2Quantity: 50,
	})

	_, err := ApplyQuality(ledger, flow, FloorChecking, Grades{M1: 300, M2: 300, M3: 300, M4: 300})
	if !IsCode(err, CodeQualityOverflow) {
		t.Fatalf("expected quality overflow, got %v", err)
	}
	// Existing grade counters stay untouched.
	b := ledger.Bucket(FloorChecking)
	if b.M1Quantity != 100 || b.M2Quantity != 50 {
		t.Fatalf("failed classify must not clamp or mutate: %+v", b)
	}
}

func TestApplyQualityOnlyAtInspectionFloors(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorChecking)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorKnitting, FloorBucket{Received: 10, Completed: 10})

	if _, err := ApplyQuality(ledger, flow, FloorKnitting, Grades{M1: 10}); !IsCode(err, CodeInvalidFloor) {
		t.Fatalf("grading a non-inspection floor must fail, got %v", err)
	}
	if _, err := ApplyQuality(ledger, flow, FloorFinalChecking, Grades{M1: 10}); !IsCode(err, CodeInvalidFloor) {
		t.Fatalf("grading a floor outside the flow must fail, got %v", err)
	}
}

func TestApplyQualityCannotRegradeBelowForwarded(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorChecking, FloorWashing)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorChecking, FloorBucket{
		Received: 200, Completed: 200,
		M1Quantity: 150, M1Transferred: 120, Transferred: 120,
		M2Quantity: 40, M2Transferred: 10,
	})

	if _, err := ApplyQuality(ledger, flow, FloorChecking, Grades{M1: 100, M2: 40}); !IsCode(err, CodeValidation) {
		t.Fatalf("regrading m1 below forwarded amount must fail, got %v", err)
	}
	if _, err := ApplyQuality(ledger, flow, FloorChecking, Grades{M1: 150, M2: 5}); !IsCode(err, CodeValidation) {
		t.Fatalf("regrading m2 below repaired amount must fail, got %v", err)
	}
	if _, err := ApplyQuality(ledger, flow, FloorChecking, Grades{M1: 160, M2: 40}); err != nil {
		t.Fatalf("raising grades within completed must succeed: %v", err)
	}
}

func TestApplyQualityRejectsNegativeGrades(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorChecking)
	ledger := FloorLedger{}
	ledger.SetBucket(FloorChecking, FloorBucket{Received: 100, Completed: 100})

	if _, err := ApplyQuality(ledger, flow, FloorChecking, Grades{M1: -1}); !IsCode(err, CodeValidation) {
		t.Fatalf("negative grade must be rejected, got %v", err)
	}
}
