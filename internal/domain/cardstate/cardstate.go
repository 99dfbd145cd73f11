// Package cardstate implements the card status machine: a pure decision
// table over the closed set of card statuses and card operations.
//
// The package holds no persistence and no I/O. Given the current status
// (re-read from the store by the caller on every dispatch) and a requested
// operation, Decide answers what must happen: perform the operation in
// place, run the activation flow first, transition to another status, or
// refuse with an advisory message. Executing that answer - mutating the
// card, prompting, sleeping through the activation delay - is the card
// lifecycle service's job.
package cardstate

import (
	"fmt"

	"github.com/pwalczak/cardbank/internal/domain"
)

// Operation identifies one state-dependent card operation.
type Operation string

// The supported card operations.
const (
	OpShowCard            Operation = "showCard"
	OpChangeLimits        Operation = "changeLimits"
	OpBlockTemporarily    Operation = "blockTemporarily"
	OpUnlock              Operation = "unlock"
	OpBlockPermanently    Operation = "blockPermanently"
	OpChangePIN           Operation = "changePin"
	OpToggleContactless   Operation = "toggleContactless"
	OpToggleMagneticStrip Operation = "toggleMagneticStrip"
	OpToggleDDCService    Operation = "toggleDdcService"
	OpToggleSurcharge     Operation = "toggleSurcharge"
	OpToggleDebitOption   Operation = "toggleDebitOption"
)

// Action classifies what a Decision asks the caller to do.
type Action int

const (
	// ActionPerform executes the operation in place; the status does not
	// change.
	ActionPerform Action = iota

	// ActionActivateFirst runs the activation flow (PIN check, processing
	// delay, transition to Activated) and then re-dispatches the originally
	// requested operation.
	ActionActivateFirst

	// ActionTransition moves the card to Decision.Target. The operation has
	// no other effect.
	ActionTransition

	// ActionRefuse performs nothing; Decision.Advisory carries the message
	// to report. Refusals are not errors: the call completes successfully
	// having mutated nothing.
	ActionRefuse
)

// Advisory messages emitted on refused operations.
const (
	AdvisoryNotBlocked         = "card is not blocked"
	AdvisoryAlreadyBlocked     = "card is already blocked temporarily"
	AdvisoryTemporarilyBlocked = "card is blocked temporarily; unlock it first"
	AdvisoryPermanentlyBlocked = "card is blocked permanently; no operation is available"
)

// Decision is the outcome of dispatching an operation against a status.
type Decision struct {
	Action   Action
	Target   domain.CardStatus // set when Action == ActionTransition
	Advisory string            // set when Action == ActionRefuse
}

// perform is the in-place Decision shared by all non-transition operations.
var perform = Decision{Action: ActionPerform}

// Decide resolves the state transition table for the given status and
// operation. It returns an error only for values outside the closed status
// or operation sets; those are integrity errors, never user mistakes.
func Decide(status domain.CardStatus, op Operation) (Decision, error) {
	if !IsValidOperation(op) {
		return Decision{}, fmt.Errorf("%w: %q", domain.ErrUnknownCardOperation, string(op))
	}

	switch status {
	case domain.CardStatusNotActivated:
		// Any operation on a fresh card first runs the activation flow,
		// then performs the requested operation.
		return Decision{Action: ActionActivateFirst}, nil

	case domain.CardStatusActivated:
		switch op {
		case OpBlockTemporarily:
			return Decision{Action: ActionTransition, Target: domain.CardStatusBlockedTemporarily}, nil
		case OpBlockPermanently:
			return Decision{Action: ActionTransition, Target: domain.CardStatusBlockedPermanently}, nil
		case OpUnlock:
			return Decision{Action: ActionRefuse, Advisory: AdvisoryNotBlocked}, nil
		default:
			return perform, nil
		}

	case domain.CardStatusBlockedTemporarily:
		switch op {
		case OpUnlock:
			return Decision{Action: ActionTransition, Target: domain.CardStatusActivated}, nil
		case OpBlockPermanently:
			return Decision{Action: ActionTransition, Target: domain.CardStatusBlockedPermanently}, nil
		case OpBlockTemporarily:
			// Re-entrant calls into the same blocked status are refused,
			// not silently repeated.
			return Decision{Action: ActionRefuse, Advisory: AdvisoryAlreadyBlocked}, nil
		default:
			return Decision{Action: ActionRefuse, Advisory: AdvisoryTemporarilyBlocked}, nil
		}

	case domain.CardStatusBlockedPermanently:
		// Terminal: nothing changes status or data, including unlock and
		// blockPermanently itself.
		return Decision{Action: ActionRefuse, Advisory: AdvisoryPermanentlyBlocked}, nil

	default:
		return Decision{}, fmt.Errorf("%w: %q", domain.ErrUnknownCardStatus, string(status))
	}
}

// IsValidOperation checks if the given operation belongs to the supported
// operation set.
func IsValidOperation(op Operation) bool {
	switch op {
	case OpShowCard, OpChangeLimits, OpBlockTemporarily, OpUnlock,
		OpBlockPermanently, OpChangePIN, OpToggleContactless,
		OpToggleMagneticStrip, OpToggleDDCService, OpToggleSurcharge,
		OpToggleDebitOption:
		return true
	default:
		return false
	}
}

// IsToggle reports whether op is one of the boolean toggle operations.
func IsToggle(op Operation) bool {
	switch op {
	case OpToggleContactless, OpToggleMagneticStrip, OpToggleDDCService,
		OpToggleSurcharge, OpToggleDebitOption:
		return true
	default:
		return false
	}
}
