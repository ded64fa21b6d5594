package profile

import (
	"fmt"
	"math"
	"reflect"
)

// store is the type-erased face of a valueStore, used by the Profile for whole-profile
// operations and by the untyped accessors.
type store interface {
	descriptor() Descriptor
	dirtyBit() int
	len() int
	value(i int) any
	defaultValue(i int) any
	assign(i int, v any) (bool, error)
	reset(i int) bool
	push(p *Profile)
}

type slot[V comparable] struct {
	def V
	cur V
}

// valueStore keeps the slots of one category. Slot i always belongs to entry i.
type valueStore[K Index, V comparable] struct {
	cat   *Category[K, V]
	bit   int
	slots []slot[V]
}

func (s *valueStore[K, V]) descriptor() Descriptor { return s.cat }

func (s *valueStore[K, V]) dirtyBit() int { return s.bit }

func (s *valueStore[K, V]) len() int { return len(s.slots) }

// at returns slot k or panics when k is outside [0, Count).
func (s *valueStore[K, V]) at(k K) (int, *slot[V]) {
	i := int(k)
	if i < 0 || i >= len(s.slots) {
		precondition(ErrIndexOutOfRange, "%s index %d, count %d", s.cat.name, i, len(s.slots))
	}
	return i, &s.slots[i]
}

// write applies the equality gate. It reports whether the slot changed.
func (s *valueStore[K, V]) write(sl *slot[V], v V) (bool, error) {
	if s.cat.check != nil {
		if err := s.cat.check(sl.cur, v); err != nil {
			return false, err
		}
	}
	if same(sl.cur, v) {
		return false, nil
	}
	sl.cur = v
	return true, nil
}

func (s *valueStore[K, V]) value(i int) any {
	return s.slots[i].cur
}

func (s *valueStore[K, V]) defaultValue(i int) any {
	return s.slots[i].def
}

func (s *valueStore[K, V]) assign(i int, v any) (bool, error) {
	tv, ok := v.(V)
	if !ok {
		var zero V
		return false, fmt.Errorf("%w: %s.%s wants %T, got %T", ErrTypeMismatch, s.cat.name, s.cat.entries[i].Name, zero, v)
	}
	return s.write(&s.slots[i], tv)
}

// reset restores slot i to its default and reports whether it changed.
func (s *valueStore[K, V]) reset(i int) bool {
	sl := &s.slots[i]
	if same(sl.cur, sl.def) {
		return false
	}
	sl.cur = sl.def
	return true
}

func (s *valueStore[K, V]) push(p *Profile) {
	for i := range s.slots {
		p.dispatch(s.cat, i, s.slots[i].cur)
	}
}

// same is == except that two NaNs are equal, so rewriting a NaN is not a change.
func same[V comparable](a, b V) bool {
	if a == b {
		return true
	}
	if x, ok := any(a).(Value); ok {
		y := any(b).(Value)
		return x.kind == KindFloat && y.kind == KindFloat && math.IsNaN(x.f) && math.IsNaN(y.f)
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ra.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(ra.Float()) && math.IsNaN(rb.Float())
	}
	return false
}
