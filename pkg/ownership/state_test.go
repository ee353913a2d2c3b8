package ownership

import (
	"testing"

	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/util/assert"
)

func TestReadMovesNonCopy(t *testing.T) {
	next, _, failed := Transition(State{Kind: Owned}, OpRead, false)
	assert.False(t, failed)
	assert.Equal(t, Moved, next.Kind)
}

func TestReadOfCopyStaysOwned(t *testing.T) {
	next, _, failed := Transition(State{Kind: Owned}, OpRead, true)
	assert.False(t, failed)
	assert.Equal(t, Owned, next.Kind)
}

func TestReadAfterMoveFails(t *testing.T) {
	_, kind, failed := Transition(State{Kind: Moved}, OpRead, false)
	assert.True(t, failed)
	assert.Equal(t, source.KindUseAfterMove, kind)
}

func TestBorrowStacksSharedCount(t *testing.T) {
	s1, _, failed := Transition(State{Kind: Owned}, OpBorrow, false)
	assert.False(t, failed)
	assert.Equal(t, Borrowed, s1.Kind)
	assert.Equal(t, 1, s1.Count)

	s2, _, failed := Transition(s1, OpBorrow, false)
	assert.False(t, failed)
	assert.Equal(t, 2, s2.Count)
}

func TestBorrowWhileMutablyBorrowedFails(t *testing.T) {
	_, kind, failed := Transition(State{Kind: MutablyBorrowed}, OpBorrow, false)
	assert.True(t, failed)
	assert.Equal(t, source.KindBorrowWhileMutablyBorrow, kind)
}

func TestMutBorrowWhileBorrowedFails(t *testing.T) {
	_, kind, failed := Transition(State{Kind: Borrowed, Count: 1}, OpMutBorrow, false)
	assert.True(t, failed)
	assert.Equal(t, source.KindMutBorrowWhileBorrowed, kind)
}

func TestMutBorrowWhileMutablyBorrowedFails(t *testing.T) {
	_, kind, failed := Transition(State{Kind: MutablyBorrowed}, OpMutBorrow, false)
	assert.True(t, failed)
	assert.Equal(t, source.KindMultipleMutableBorrows, kind)
}

func TestEndBorrowDecrementsCount(t *testing.T) {
	next, _, failed := Transition(State{Kind: Borrowed, Count: 2}, OpEndBorrow, false)
	assert.False(t, failed)
	assert.Equal(t, Borrowed, next.Kind)
	assert.Equal(t, 1, next.Count)
}

func TestEndBorrowOfLastReturnsOwned(t *testing.T) {
	next, _, failed := Transition(State{Kind: Borrowed, Count: 1}, OpEndBorrow, false)
	assert.False(t, failed)
	assert.Equal(t, Owned, next.Kind)
}

func TestEndMutBorrowReturnsOwned(t *testing.T) {
	next, _, failed := Transition(State{Kind: MutablyBorrowed}, OpEndMutBorrow, false)
	assert.False(t, failed)
	assert.Equal(t, Owned, next.Kind)
}

// TestExclusivityInvariant checks spec.md §4.4's invariant by exhaustively
// trying every (state, op) pair and confirming no path reaches a state that
// simultaneously permits a live MutableReference alongside a live
// Reference: MutablyBorrowed and Borrowed are mutually exclusive tags by
// construction, so this just confirms Transition never produces a third,
// hybrid Kind.
func TestExclusivityInvariant(t *testing.T) {
	states := []State{
		{Kind: Owned}, {Kind: Moved}, {Kind: Borrowed, Count: 1}, {Kind: MutablyBorrowed},
	}
	ops := []Op{OpRead, OpBorrow, OpMutBorrow, OpEndBorrow, OpEndMutBorrow}

	for _, s := range states {
		for _, op := range ops {
			next, _, _ := Transition(s, op, false)
			assert.True(t, next.Kind == Owned || next.Kind == Moved || next.Kind == Borrowed || next.Kind == MutablyBorrowed)
		}
	}
}
