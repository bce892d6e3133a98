package clic

import (
	"errors"
	"fmt"
)

// InterruptNumber is implemented by a platform's enumeration of CLIC
// interrupt sources. It is all the control-register block needs.
//
// Implementations are trusted; nothing here can check them:
//
//   - each source maps to a distinct number, and always the same one;
//   - no source maps to 0, which is reserved as "no interrupt";
//   - every number is at most MaxInterruptNumber, and MaxInterruptNumber is
//     the highest interrupt number of the device.
//
// Breaking any of these makes Interrupts address a control word that does not
// belong to the source. Use InterruptTable to have them checked at startup.
type InterruptNumber interface {
	Number() uint16
}

// InterruptEnum is the complete interrupt contract of a platform enumeration
// type I. FromNumber and MaxInterruptNumber are called on the zero value and
// must not depend on the receiver.
type InterruptEnum[I any] interface {
	comparable
	InterruptNumber
	MaxInterruptNumber() uint16
	// FromNumber returns the source numbered n. It fails with a *NumberError
	// carrying n for 0, for numbers above MaxInterruptNumber and for numbers
	// with no source.
	FromNumber(n uint16) (I, error)
}

// PriorityNumber is implemented by a platform's enumeration of priority
// levels. The same trust rules as InterruptNumber apply, except that 0
// ("never interrupt") must be one of the levels.
type PriorityNumber interface {
	Number() uint8
}

// PriorityEnum is the complete priority contract of a platform enumeration
// type P.
type PriorityEnum[P any] interface {
	comparable
	PriorityNumber
	MaxPriorityNumber() uint8
	FromNumber(n uint8) (P, error)
}

// Kind names the enumeration a number belongs to.
type Kind uint8

const (
	KindInterrupt Kind = iota + 1
	KindPriority
)

func (k Kind) String() string {
	switch k {
	case KindInterrupt:
		return "interrupt"
	case KindPriority:
		return "priority"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ErrInvalidNumber matches every *NumberError with errors.Is.
var ErrInvalidNumber = errors.New("clic: invalid number")

// NumberError reports a number that does not name an instance of an
// enumeration. Value is the rejected number, unchanged.
type NumberError struct {
	Kind  Kind
	Value uint16
	Max   uint16
}

func (e *NumberError) Error() string {
	switch {
	case e.Kind == KindInterrupt && e.Value == 0:
		return "clic: interrupt number 0 is reserved"
	case e.Value > e.Max:
		return fmt.Sprintf("clic: %s number %d exceeds maximum %d", e.Kind, e.Value, e.Max)
	default:
		return fmt.Sprintf("clic: no %s numbered %d", e.Kind, e.Value)
	}
}

func (e *NumberError) Is(target error) bool { return target == ErrInvalidNumber }

// RejectedInterrupt returns the number carried by a *NumberError for an
// interrupt conversion.
func RejectedInterrupt(err error) (uint16, bool) {
	var ne *NumberError
	if errors.As(err, &ne) && ne.Kind == KindInterrupt {
		return ne.Value, true
	}
	return 0, false
}

// RejectedPriority returns the number carried by a *NumberError for a
// priority conversion.
func RejectedPriority(err error) (uint8, bool) {
	var ne *NumberError
	if errors.As(err, &ne) && ne.Kind == KindPriority {
		return uint8(ne.Value), true
	}
	return 0, false
}

// InterruptFromNumber converts n into a source of I.
func InterruptFromNumber[I InterruptEnum[I]](n uint16) (I, error) {
	var zero I
	return zero.FromNumber(n)
}

// PriorityFromNumber converts n into a level of P.
func PriorityFromNumber[P PriorityEnum[P]](n uint8) (P, error) {
	var zero P
	return zero.FromNumber(n)
}
