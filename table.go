package clic

import (
	"fmt"
	"slices"
)

// ContractError reports a platform enumeration that breaks one of the
// obligations of InterruptNumber or PriorityNumber.
type ContractError struct {
	Kind   Kind
	Value  uint16
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("clic: %s contract: %s (%d)", e.Kind, e.Reason, e.Value)
}

// InterruptTable is a validated set of interrupt sources. It backs the
// FromNumber and MaxInterruptNumber methods of a platform enumeration.
type InterruptTable[I ~uint16] struct {
	max     uint16
	sources []I
	valid   []bool
}

// NewInterruptTable checks sources against the interrupt contract: none is
// 0, none repeats, none exceeds maxNum, and maxNum is the highest source.
func NewInterruptTable[I ~uint16](maxNum uint16, sources ...I) (*InterruptTable[I], error) {
	if len(sources) == 0 {
		return nil, &ContractError{Kind: KindInterrupt, Value: maxNum, Reason: "no sources declared"}
	}
	if int(maxNum) >= MaxInterrupts {
		return nil, &ContractError{Kind: KindInterrupt, Value: maxNum, Reason: fmt.Sprintf("maximum beyond the %d sources a CLIC can have", MaxInterrupts)}
	}

	t := &InterruptTable[I]{
		max:   maxNum,
		valid: make([]bool, int(maxNum)+1),
	}
	var highest uint16
	for _, src := range sources {
		n := uint16(src)
		switch {
		case n == 0:
			return nil, &ContractError{Kind: KindInterrupt, Value: n, Reason: "number 0 is reserved"}
		case n > maxNum:
			return nil, &ContractError{Kind: KindInterrupt, Value: n, Reason: "number exceeds declared maximum"}
		case t.valid[n]:
			return nil, &ContractError{Kind: KindInterrupt, Value: n, Reason: "duplicate number"}
		}
		t.valid[n] = true
		highest = max(highest, n)
	}
	if highest != maxNum {
		return nil, &ContractError{Kind: KindInterrupt, Value: maxNum, Reason: "declared maximum is not the highest number"}
	}

	t.sources = slices.Clone(sources)
	slices.Sort(t.sources)
	return t, nil
}

// MustInterruptTable is like NewInterruptTable but panics on error. It is
// meant for package-level variables describing a platform.
func MustInterruptTable[I ~uint16](maxNum uint16, sources ...I) *InterruptTable[I] {
	t, err := NewInterruptTable(maxNum, sources...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *InterruptTable[I]) Max() uint16 { return t.max }

// Sources returns the declared sources in ascending order.
func (t *InterruptTable[I]) Sources() []I { return slices.Clone(t.sources) }

func (t *InterruptTable[I]) Contains(n uint16) bool {
	return int(n) < len(t.valid) && t.valid[n]
}

// FromNumber returns the source numbered n, or a *NumberError carrying n.
func (t *InterruptTable[I]) FromNumber(n uint16) (I, error) {
	if !t.Contains(n) {
		return 0, &NumberError{Kind: KindInterrupt, Value: n, Max: t.max}
	}
	return I(n), nil
}

// PriorityTable is a validated set of priority levels.
type PriorityTable[P ~uint8] struct {
	max    uint8
	levels []P
	valid  [256]bool
}

// NewPriorityTable checks levels against the priority contract: 0 is a
// level, none repeats, none exceeds maxNum, and maxNum is the highest level.
func NewPriorityTable[P ~uint8](maxNum uint8, levels ...P) (*PriorityTable[P], error) {
	t := &PriorityTable[P]{max: maxNum}
	var highest uint8
	for _, lvl := range levels {
		n := uint8(lvl)
		switch {
		case n > maxNum:
			return nil, &ContractError{Kind: KindPriority, Value: uint16(n), Reason: "number exceeds declared maximum"}
		case t.valid[n]:
			return nil, &ContractError{Kind: KindPriority, Value: uint16(n), Reason: "duplicate number"}
		}
		t.valid[n] = true
		highest = max(highest, n)
	}
	if !t.valid[0] {
		return nil, &ContractError{Kind: KindPriority, Value: 0, Reason: "no level for priority 0"}
	}
	if highest != maxNum {
		return nil, &ContractError{Kind: KindPriority, Value: uint16(maxNum), Reason: "declared maximum is not the highest number"}
	}

	t.levels = slices.Clone(levels)
	slices.Sort(t.levels)
	return t, nil
}

// MustPriorityTable is like NewPriorityTable but panics on error.
func MustPriorityTable[P ~uint8](maxNum uint8, levels ...P) *PriorityTable[P] {
	t, err := NewPriorityTable(maxNum, levels...)
	if err != nil {
		panic(err)
	}
	return t
}

// SequentialPriorities returns the levels 0 through maxNum inclusive.
func SequentialPriorities[P ~uint8](maxNum uint8) []P {
	levels := make([]P, 0, int(maxNum)+1)
	for n := 0; n <= int(maxNum); n++ {
		levels = append(levels, P(n))
	}
	return levels
}

func (t *PriorityTable[P]) Max() uint8 { return t.max }

// Levels returns the declared levels in ascending order.
func (t *PriorityTable[P]) Levels() []P { return slices.Clone(t.levels) }

func (t *PriorityTable[P]) Contains(n uint8) bool { return t.valid[n] }

// FromNumber returns the level numbered n, or a *NumberError carrying n.
func (t *PriorityTable[P]) FromNumber(n uint8) (P, error) {
	if !t.valid[n] {
		return 0, &NumberError{Kind: KindPriority, Value: uint16(n), Max: uint16(t.max)}
	}
	return P(n), nil
}

// CheckInterruptEnum verifies a hand-written interrupt enumeration: all must
// list every source of I. Each source must round-trip through FromNumber,
// and FromNumber must reject 0 and the number past the maximum.
func CheckInterruptEnum[I InterruptEnum[I]](all ...I) error {
	var zero I
	maxNum := zero.MaxInterruptNumber()
	seen := make(map[uint16]bool, len(all))
	for _, src := range all {
		n := src.Number()
		switch {
		case n == 0:
			return &ContractError{Kind: KindInterrupt, Value: n, Reason: "number 0 is reserved"}
		case n > maxNum:
			return &ContractError{Kind: KindInterrupt, Value: n, Reason: "number exceeds declared maximum"}
		case seen[n]:
			return &ContractError{Kind: KindInterrupt, Value: n, Reason: "duplicate number"}
		}
		seen[n] = true
		back, err := zero.FromNumber(n)
		if err != nil || back != src {
			return &ContractError{Kind: KindInterrupt, Value: n, Reason: "number does not convert back to its source"}
		}
	}
	if !seen[maxNum] {
		return &ContractError{Kind: KindInterrupt, Value: maxNum, Reason: "declared maximum is not the highest number"}
	}
	if _, err := zero.FromNumber(0); err == nil {
		return &ContractError{Kind: KindInterrupt, Value: 0, Reason: "number 0 accepted"}
	}
	if maxNum < ^uint16(0) {
		if _, err := zero.FromNumber(maxNum + 1); err == nil {
			return &ContractError{Kind: KindInterrupt, Value: maxNum + 1, Reason: "number past the maximum accepted"}
		}
	}
	return nil
}

// CheckPriorityEnum is the priority counterpart of CheckInterruptEnum.
func CheckPriorityEnum[P PriorityEnum[P]](all ...P) error {
	var zero P
	maxNum := zero.MaxPriorityNumber()
	var seen [256]bool
	for _, lvl := range all {
		n := lvl.Number()
		switch {
		case n > maxNum:
			return &ContractError{Kind: KindPriority, Value: uint16(n), Reason: "number exceeds declared maximum"}
		case seen[n]:
			return &ContractError{Kind: KindPriority, Value: uint16(n), Reason: "duplicate number"}
		}
		seen[n] = true
		back, err := zero.FromNumber(n)
		if err != nil || back != lvl {
			return &ContractError{Kind: KindPriority, Value: uint16(n), Reason: "number does not convert back to its level"}
		}
	}
	if !seen[0] {
		return &ContractError{Kind: KindPriority, Value: 0, Reason: "no level for priority 0"}
	}
	if !seen[maxNum] {
		return &ContractError{Kind: KindPriority, Value: uint16(maxNum), Reason: "declared maximum is not the highest number"}
	}
	if maxNum < ^uint8(0) {
		if _, err := zero.FromNumber(maxNum + 1); err == nil {
			return &ContractError{Kind: KindPriority, Value: uint16(maxNum) + 1, Reason: "number past the maximum accepted"}
		}
	}
	return nil
}
