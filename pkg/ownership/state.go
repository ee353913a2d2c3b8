// Package ownership implements Home's move/borrow checker, per spec.md
// §4.4. Per spec.md §9's design note ("Move/borrow as a state machine...
// implement as a sum type with transitions... straightforward to
// property-test"), the state machine itself is a pure function, separated
// from the AST walk that drives it (tracker.go) — mirroring how the
// teacher's typing.go and resolver.go share one environment stack but keep
// their own per-pass logic in separate files.
package ownership

import "github.com/homelang/homec/pkg/source"

// Kind is the tag of a binding's ownership State.
type Kind uint8

const (
	// Owned is the initial state of every binding.
	Owned Kind = iota
	// Moved means the binding's value has been read and was not Copy; any
	// further use is a UseAfterMove.
	Moved
	// Borrowed(Count) means Count outstanding shared references exist.
	Borrowed
	// MutablyBorrowed means exactly one outstanding mutable reference
	// exists.
	MutablyBorrowed
)

// State is one binding's ownership state. Count is only meaningful when
// Kind is Borrowed.
type State struct {
	Kind  Kind
	Count int
}

// Op names an operation applied to a binding, per spec.md §4.4.
type Op uint8

const (
	// OpRead models "using x in an expression whose type is not
	// Reference/MutableReference".
	OpRead Op = iota
	// OpBorrow models `&x`.
	OpBorrow
	// OpMutBorrow models `&mut x`.
	OpMutBorrow
	// OpEndBorrow models a `&x`-typed binding's lexical scope closing.
	OpEndBorrow
	// OpEndMutBorrow models a `&mut x`-typed binding's lexical scope
	// closing.
	OpEndMutBorrow
)

// Transition computes the next State for (prior, op), and the diagnostic
// kind to report if the operation is not permitted from prior. copyType
// tells OpRead whether x's type is Copy (Int/Float/Bool, per spec.md
// §4.4), in which case reading never moves it.
//
// This function is pure and total: every (State, Op) pair produces a
// result, making it straightforward to exhaustively property-test, per
// spec.md §9's design note.
func Transition(prior State, op Op, copyType bool) (next State, failKind source.Kind, failed bool) {
	switch op {
	case OpRead:
		return transitionRead(prior, copyType)
	case OpBorrow:
		return transitionBorrow(prior)
	case OpMutBorrow:
		return transitionMutBorrow(prior)
	case OpEndBorrow:
		return transitionEndBorrow(prior)
	case OpEndMutBorrow:
		return State{Kind: Owned}, "", false
	default:
		return prior, "", false
	}
}

func transitionRead(prior State, copyType bool) (State, source.Kind, bool) {
	if prior.Kind == Moved {
		return prior, source.KindUseAfterMove, true
	}

	if copyType || prior.Kind != Owned {
		// Copy types never move. Reading through an existing borrow does
		// not itself move the owner binding; spec.md §4.4 only defines the
		// move transition starting from Owned.
		return prior, "", false
	}

	return State{Kind: Moved}, "", false
}

func transitionBorrow(prior State) (State, source.Kind, bool) {
	switch prior.Kind {
	case Moved:
		return prior, source.KindUseAfterMove, true
	case MutablyBorrowed:
		return prior, source.KindBorrowWhileMutablyBorrow, true
	case Borrowed:
		return State{Kind: Borrowed, Count: prior.Count + 1}, "", false
	default: // Owned
		return State{Kind: Borrowed, Count: 1}, "", false
	}
}

func transitionMutBorrow(prior State) (State, source.Kind, bool) {
	switch prior.Kind {
	case Moved:
		return prior, source.KindUseAfterMove, true
	case Borrowed:
		return prior, source.KindMutBorrowWhileBorrowed, true
	case MutablyBorrowed:
		return prior, source.KindMultipleMutableBorrows, true
	default: // Owned
		return State{Kind: MutablyBorrowed}, "", false
	}
}

func transitionEndBorrow(prior State) (State, source.Kind, bool) {
	if prior.Kind != Borrowed || prior.Count <= 1 {
		return State{Kind: Owned}, "", false
	}

	return State{Kind: Borrowed, Count: prior.Count - 1}, "", false
}
