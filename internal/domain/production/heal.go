package production

import "fmt"

// HealResult reports what the corruption healer changed. Fixes are
// human-readable and recorded to the audit trail.
type HealResult struct {
	Fixed  bool        `json:"fixed"`
	Fixes  []string    `json:"fixes"`
	Ledger FloorLedger `json:"-"`
}

// floorViolations lists the invariant violations of one bucket. Used both by
// the read-path detector and by the healer.
func floorViolations(f Floor, b FloorBucket) []string {
	var out []string
	if f.IsInspection() {
		if sum := b.GradeSum(); sum > b.Completed {
			out = append(out, fmt.Sprintf("grade sum %d exceeds completed %d", sum, b.Completed))
		}
		if b.Transferred > b.M1Quantity {
			out = append(out, fmt.Sprintf("transferred %d exceeds m1Quantity %d", b.Transferred, b.M1Quantity))
		}
		if b.M1Transferred > b.M1Quantity {
			out = append(out, fmt.Sprintf("m1Transferred %d exceeds m1Quantity %d", b.M1Transferred, b.M1Quantity))
		}
		if b.M2Transferred > b.M2Quantity {
			out = append(out, fmt.Sprintf("m2Transferred %d exceeds m2Quantity %d", b.M2Transferred, b.M2Quantity))
		}
		if b.M1Remaining != clampNonNegative(b.M1Quantity-b.M1Transferred) {
			out = append(out, fmt.Sprintf("m1Remaining %d stale, expected %d", b.M1Remaining, clampNonNegative(b.M1Quantity-b.M1Transferred)))
		}
	}
	if b.Transferred > b.Completed {
		out = append(out, fmt.Sprintf("transferred %d exceeds completed %d", b.Transferred, b.Completed))
	}
	if b.Completed > b.Received {
		out = append(out, fmt.Sprintf("completed %d exceeds received %d", b.Completed, b.Received))
	}
	if b.Remaining != clampNonNegative(b.Received-b.Transferred) {
		out = append(out, fmt.Sprintf("remaining %d stale, expected %d", b.Remaining, clampNonNegative(b.Received-b.Transferred)))
	}
	return out
}

// DetectViolations scans the whole ledger against the resolved flow and
// reports every invariant violation without changing anything. A normal
// mutation that trips over one of these must stop and let the caller invoke
// the healer explicitly.
func DetectViolations(ledger FloorLedger, flow Flow) []string {
	var out []string
	for _, f := range flow.Floors() {
		for _, v := range floorViolations(f, ledger.Bucket(f)) {
			out = append(out, fmt.Sprintf("floor %s: %s", f, v))
		}
	}
	for _, f := range AllFloors {
		if flow.Contains(f) {
			continue
		}
		if b, ok := ledger[f]; ok && !b.IsZero() {
			out = append(out, fmt.Sprintf("floor %s: outside the resolved flow but carries non-zero bucket", f))
		}
	}
	return out
}

// DetectAndFix deterministically repairs historical invariant violations:
// counters are clamped down to the violated bound, completed/received are
// raised only where a lower bound forces it, and derived counters are
// recomputed. Running it twice in a row yields no further fixes.
func DetectAndFix(ledger FloorLedger, flow Flow) HealResult {
	next := ledger.Clone()
	var fixes []string

	for _, f := range flow.Floors() {
		b, ok := next[f]
		if !ok {
			continue
		}
		fixesBefore := len(fixes)

		if f.IsInspection() {
			if sum := b.GradeSum(); sum > b.Completed {
				fixes = append(fixes, fmt.Sprintf(
					"floor %s: raised completed %d to grade sum %d", f, b.Completed, sum))
				b.Completed = sum
			}
			if b.Transferred > b.M1Quantity {
				fixes = append(fixes, fmt.Sprintf(
					"floor %s: clamped transferred %d to m1Quantity %d", f, b.Transferred, b.M1Quantity))
				b.Transferred = b.M1Quantity
			}
			if b.M1Transferred > b.M1Quantity {
				fixes = append(fixes, fmt.Sprintf(
					"floor %s: clamped m1Transferred %d to m1Quantity %d", f, b.M1Transferred, b.M1Quantity))
				b.M1Transferred = b.M1Quantity
			}
			if b.M2Transferred > b.M2Quantity {
				fixes = append(fixes, fmt.Sprintf(
					"floor %s: clamped m2Transferred %d to m2Quantity %d", f, b.M2Transferred, b.M2Quantity))
				b.M2Transferred = b.M2Quantity
			}
		}
		if b.Transferred > b.Completed {
			fixes = append(fixes, fmt.Sprintf(
				"floor %s: raised completed %d to transferred %d", f, b.Completed, b.Transferred))
			b.Completed = b.Transferred
		}
		if b.Completed > b.Received {
			fixes = append(fixes, fmt.Sprintf(
				"floor %s: raised received %d to completed %d", f, b.Received, b.Completed))
			b.Received = b.Completed
		}

		// A bound fix already implies recomputing deriveds; a standalone fix is
		// reported only when stale deriveds were the floor's only problem.
		normalized := b.normalized()
		if len(fixes) == fixesBefore && normalized != next[f] {
			fixes = append(fixes, fmt.Sprintf("floor %s: recomputed stale derived counters", f))
		}
		next[f] = normalized
	}

	for _, f := range AllFloors {
		if flow.Contains(f) {
			continue
		}
		if b, ok := next[f]; ok && !b.IsZero() {
			fixes = append(fixes, fmt.Sprintf(
				"floor %s: zeroed bucket outside the resolved flow", f))
			next[f] = FloorBucket{}
		}
	}

	return HealResult{Fixed: len(fixes) > 0, Fixes: fixes, Ledger: next}
}
