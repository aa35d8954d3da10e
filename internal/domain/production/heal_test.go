package production

import (
	"strings"
	"testing"
)

func TestDetectAndFixClampsTransferredToM1(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorChecking, FloorWashing)
	ledger := FloorLedger{
		FloorKnitting: {Received: 17994, Completed: 17994, Transferred: 17994},
		FloorChecking: {
			Received: 17994, Completed: 17994, Transferred: 15994,
			M1Quantity: 8997, M1Transferred: 8997,
			M2Quantity: 8997, Remaining: 2000,
		},
	}

	res := DetectAndFix(ledger, flow)
	if !res.Fixed {
		t.Fatalf("expected corruption to be detected")
	}
	if len(res.Fixes) != 1 {
		t.Fatalf("expected exactly one fix, got %v", res.Fixes)
	}
	if !strings.Contains(res.Fixes[0], "clamped transferred 15994 to m1Quantity 8997") {
		t.Fatalf("unexpected fix description: %s", res.Fixes[0])
	}

	b := res.Ledger.Bucket(FloorChecking)
	if b.Transferred != 8997 {
		t.Fatalf("transferred should be clamped to 8997, got %d", b.Transferred)
	}
	if b.Remaining != b.Received-8997 {
		t.Fatalf("remaining should be recomputed to %d, got %d", b.Received-8997, b.Remaining)
	}

	// Healing is idempotent: a second pass reports nothing.
	again := DetectAndFix(res.Ledger, flow)
	if again.Fixed {
		t.Fatalf("second heal run must report fixed=false, got fixes %v", again.Fixes)
	}
}

func TestDetectAndFixRaisesCompletedToTransferred(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorLinking)
	ledger := FloorLedger{
		FloorKnitting: {Received: 90, Completed: 50, Transferred: 80, Remaining: 10},
	}

	res := DetectAndFix(ledger, flow)
	if !res.Fixed {
		t.Fatalf("expected fix")
	}
	b := res.Ledger.Bucket(FloorKnitting)
	if b.Completed != 80 {
		t.Fatalf("completed should be raised to transferred, got %d", b.Completed)
	}
	if DetectAndFix(res.Ledger, flow).Fixed {
		t.Fatalf("heal must be idempotent")
	}
}

func TestDetectAndFixZeroesOutOfFlowBuckets(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorLinking)
	ledger := FloorLedger{
		FloorKnitting: {Received: 10, Completed: 10},
		FloorBranding: {Received: 7},
	}

	res := DetectAndFix(ledger, flow)
	if !res.Fixed {
		t.Fatalf("expected out-of-flow bucket to be flagged")
	}
	if !res.Ledger.Bucket(FloorBranding).IsZero() {
		t.Fatalf("out-of-flow bucket should be zeroed: %+v", res.Ledger.Bucket(FloorBranding))
	}
}

func TestDetectAndFixRecomputesStaleDeriveds(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorLinking)
	ledger := FloorLedger{
		FloorKnitting: {Received: 100, Completed: 100, Transferred: 40, Remaining: 99},
	}

	res := DetectAndFix(ledger, flow)
	if !res.Fixed || len(res.Fixes) != 1 {
		t.Fatalf("expected exactly one recompute fix, got %v", res.Fixes)
	}
	if !strings.Contains(res.Fixes[0], "stale derived") {
		t.Fatalf("unexpected fix description: %s", res.Fixes[0])
	}
	if got := res.Ledger.Bucket(FloorKnitting).Remaining; got != 60 {
		t.Fatalf("remaining should be 60, got %d", got)
	}
}

func TestDetectViolationsReportsWithoutFixing(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorChecking)
	ledger := FloorLedger{
		FloorKnitting: {Received: 100, Completed: 100, Transferred: 100},
		FloorChecking: {
			Received: 100, Completed: 40,
			M1Quantity: 30, M2Quantity: 30, Transferred: 35, M1Transferred: 35,
		},
	}

	violations := DetectViolations(ledger, flow)
	if len(violations) == 0 {
		t.Fatalf("expected violations")
	}
	// grade sum > completed, transferred > m1, m1Transferred > m1, stale deriveds.
	if ledger.Bucket(FloorChecking).Transferred != 35 {
		t.Fatalf("detector must not mutate the ledger")
	}

	clean := FloorLedger{}
	clean.SetBucket(FloorKnitting, FloorBucket{Received: 10, Completed: 5})
	if got := DetectViolations(clean, flow); len(got) != 0 {
		t.Fatalf("clean ledger should have no violations, got %v", got)
	}
}

func TestDetectAndFixRaisesCompletedToGradeSum(t *testing.T) {
	flow := FlowOf(FloorKnitting, FloorChecking)
	ledger := FloorLedger{
		FloorChecking: {
			Received: 100, Completed: 50,
			M1Quantity: 40, M2Quantity: 20, M3Quantity: 10,
		},
	}

	res := DetectAndFix(ledger, flow)
	b := res.Ledger.Bucket(FloorChecking)
	if b.Completed != 70 {
		t.Fatalf("completed should be raised to grade sum 70, got %d", b.Completed)
	}
	if len(DetectViolations(res.Ledger, flow)) != 0 {
		t.Fatalf("healed ledger must satisfy all invariants: %v", DetectViolations(res.Ledger, flow))
	}
}
