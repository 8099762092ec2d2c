package core

import (
	"maps"
	"net/netip"
	"reflect"
	"slices"

	"github.com/encodeous/olsr/state"
)

// 19.  Sequence Numbers
//   The term MAXVALUE designates in the following one more than the
//   largest possible value for a sequence number.  For a 16 bit sequence
//   number MAXVALUE is 65535.
//
//   The sequence number S1 is said to be "greater than" the sequence
//   number S2 if:
//
//          S1 > S2 AND S1 - S2 <= MAXVALUE/2 OR
//
//          S2 > S1 AND S2 - S1 > MAXVALUE/2

func SeqnoLt(a, b uint16) bool {
	x := b - a
	return 0 < x && x < 32768
}

func SeqnoLe(a, b uint16) bool {
	return a == b || SeqnoLt(a, b)
}
func SeqnoGt(a, b uint16) bool {
	return !SeqnoLe(a, b)
}
func SeqnoGe(a, b uint16) bool {
	return !SeqnoLt(a, b)
}

func Get[T state.NyModule](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}

func sortedAddrs[V any](m map[netip.Addr]V) []netip.Addr {
	return slices.SortedFunc(maps.Keys(m), netip.Addr.Compare)
}
