package production

// Flow is the ordered, product-specific sequence of floors one article passes
// through. It is the only authority for predecessor/successor questions; the
// global floor list never decides adjacency.
type Flow struct {
	floors []Floor
	index  map[Floor]int
}

// ResolveFlow maps a product's configured processes to its floor sequence,
// deduplicating repeats while preserving configured order.
func ResolveFlow(p *Product) (Flow, error) {
	const op = "flow.resolve"
	if p == nil {
		return Flow{}, NewError(CodeConfiguration, op, "product is required", nil)
	}
	if len(p.Processes) == 0 {
		return Flow{}, Errorf(CodeConfiguration, op, "product %s has no configured processes", p.FactoryCode)
	}
	floors := make([]Floor, 0, len(p.Processes))
	index := make(map[Floor]int, len(p.Processes))
	for _, proc := range p.Processes {
		f, ok := ParseFloor(proc)
		if !ok {
			return Flow{}, Errorf(CodeConfiguration, op, "process %q of product %s does not map to a known floor", proc, p.FactoryCode)
		}
		if _, seen := index[f]; seen {
			continue
		}
		index[f] = len(floors)
		floors = append(floors, f)
	}
	return Flow{floors: floors, index: index}, nil
}

// FlowOf builds a flow directly from an ordered floor list. Used by tests and
// maintenance tooling that already hold a resolved sequence.
func FlowOf(floors ...Floor) Flow {
	index := make(map[Floor]int, len(floors))
	out := make([]Floor, 0, len(floors))
	for _, f := range floors {
		if _, seen := index[f]; seen {
			continue
		}
		index[f] = len(out)
		out = append(out, f)
	}
	return Flow{floors: out, index: index}
}

func (fl Flow) Len() int { return len(fl.floors) }

// Floors returns the sequence in order. The slice is a copy.
func (fl Flow) Floors() []Floor {
	out := make([]Floor, len(fl.floors))
	copy(out, fl.floors)
	return out
}

func (fl Flow) Contains(f Floor) bool {
	_, ok := fl.index[f]
	return ok
}

func (fl Flow) First() Floor {
	if len(fl.floors) == 0 {
		return ""
	}
	return fl.floors[0]
}

func (fl Flow) Terminal() Floor {
	if len(fl.floors) == 0 {
		return ""
	}
	return fl.floors[len(fl.floors)-1]
}

// Next returns the successor of f within the flow.
func (fl Flow) Next(f Floor) (Floor, error) {
	const op = "flow.next"
	i, ok := fl.index[f]
	if !ok {
		return "", Errorf(CodeInvalidFloor, op, "floor %s is not part of the resolved flow", f)
	}
	if i == len(fl.floors)-1 {
		return "", Errorf(CodeInvalidFloor, op, "floor %s is terminal and has no successor", f)
	}
	return fl.floors[i+1], nil
}

// Prev returns the predecessor of f within the flow.
func (fl Flow) Prev(f Floor) (Floor, error) {
	const op = "flow.prev"
	i, ok := fl.index[f]
	if !ok {
		return "", Errorf(CodeInvalidFloor, op, "floor %s is not part of the resolved flow", f)
	}
	if i == 0 {
		return "", Errorf(CodeInvalidFloor, op, "floor %s is first and has no predecessor", f)
	}
	return fl.floors[i-1], nil
}

// Before reports whether a comes strictly earlier than b in the flow. Both
// floors must be members; a==b is not "before".
func (fl Flow) Before(a, b Floor) bool {
	ia, okA := fl.index[a]
	ib, okB := fl.index[b]
	return okA && okB && ia < ib
}
