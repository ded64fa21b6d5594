// Package profile is a process-local store of typed settings grouped into categories.
//
// Each category is a fixed, ordered list of named slots addressed by an application enum.
// Writes are equality gated: storing the value a slot already holds changes nothing. A real
// change marks the category dirty and is pushed synchronously to every subscribed Listener.
//
// A Profile is not safe for concurrent use. Callers that share one across goroutines must
// serialize access themselves.
package profile

import (
	"fmt"
	"slices"
)

// Profile owns one value store per category, the listener registry and the dirty mask.
type Profile struct {
	stores    []store
	byDesc    map[Descriptor]int
	byName    map[string]int
	listeners []*Listener
	dirty     DirtyMask
	hook      Hook
}

type Option func(*Profile)

// WithHook installs a hook that observes listener subscription changes.
func WithHook(h Hook) Option {
	return func(p *Profile) {
		p.hook = h
	}
}

// New builds a profile holding the defaults of every category. Categories keep the order
// given here; it is the order of NotifyAll and of the dirty mask bits.
func New(categories []Descriptor, opts ...Option) (*Profile, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: profile needs at least one category", ErrInvalidCategory)
	}
	if len(categories) > MaxCategories {
		return nil, fmt.Errorf("%w: %d categories, max %d", ErrInvalidCategory, len(categories), MaxCategories)
	}
	p := &Profile{
		stores: make([]store, 0, len(categories)),
		byDesc: make(map[Descriptor]int, len(categories)),
		byName: make(map[string]int, len(categories)),
	}
	for i, d := range categories {
		if d == nil {
			return nil, fmt.Errorf("%w: category %d is nil", ErrInvalidCategory, i)
		}
		if _, dup := p.byDesc[d]; dup {
			return nil, fmt.Errorf("%w: %s registered twice", ErrInvalidCategory, d.Name())
		}
		if _, dup := p.byName[d.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate category name %s", ErrInvalidCategory, d.Name())
		}
		p.byDesc[d] = i
		p.byName[d.Name()] = i
		p.stores = append(p.stores, d.newStore(i))
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Categories returns the descriptors in registration order.
func (p *Profile) Categories() []Descriptor {
	out := make([]Descriptor, len(p.stores))
	for i, s := range p.stores {
		out[i] = s.descriptor()
	}
	return out
}

// Category looks a descriptor up by name.
func (p *Profile) Category(name string) (Descriptor, bool) {
	i, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return p.stores[i].descriptor(), true
}

func (p *Profile) lookup(d Descriptor) (store, error) {
	i, ok := p.byDesc[d]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCategory, d)
	}
	return p.stores[i], nil
}

func typedStore[K Index, V comparable](p *Profile, cat *Category[K, V]) *valueStore[K, V] {
	s, err := p.lookup(cat)
	if err != nil {
		panic(err)
	}
	return s.(*valueStore[K, V])
}

// Get returns the current value of slot k. It panics if k is out of range or cat is not part
// of p.
func Get[K Index, V comparable](p *Profile, cat *Category[K, V], k K) V {
	_, sl := typedStore(p, cat).at(k)
	return sl.cur
}

// Default returns the default value of slot k.
func Default[K Index, V comparable](p *Profile, cat *Category[K, V], k K) V {
	_, sl := typedStore(p, cat).at(k)
	return sl.def
}

// Name returns the entry name of slot k.
func Name[K Index, V comparable](p *Profile, cat *Category[K, V], k K) string {
	i, _ := typedStore(p, cat).at(k)
	return cat.entries[i].Name
}

// Set stores v in slot k and notifies listeners if the value changed. A NaN rewritten over a
// NaN is not a change.
// The only error is ErrTypeMismatch from variant categories; the slot is then untouched.
func Set[K Index, V comparable](p *Profile, cat *Category[K, V], k K, v V) error {
	return set(p, cat, k, v, true)
}

// SetQuiet is Set without notification. Persistence code uses it to restore values before a
// single NotifyAll.
func SetQuiet[K Index, V comparable](p *Profile, cat *Category[K, V], k K, v V) error {
	return set(p, cat, k, v, false)
}

func set[K Index, V comparable](p *Profile, cat *Category[K, V], k K, v V, notify bool) error {
	s := typedStore(p, cat)
	i, sl := s.at(k)
	changed, err := s.write(sl, v)
	if err != nil || !changed {
		return err
	}
	p.dirty = p.dirty.With(s.bit)
	if notify {
		p.dispatch(cat, i, v)
	}
	return nil
}

// Reset restores slot k to its default and always notifies, even when the slot already held
// the default. The category is marked dirty only if the value changed.
func Reset[K Index, V comparable](p *Profile, cat *Category[K, V], k K) {
	s := typedStore(p, cat)
	i, _ := s.at(k)
	p.reset(s, i)
}

func (p *Profile) reset(s store, i int) {
	if s.reset(i) {
		p.dirty = p.dirty.With(s.dirtyBit())
	}
	p.dispatch(s.descriptor(), i, s.value(i))
}

// ResetCategory resets every slot of cat in index order.
func ResetCategory[K Index, V comparable](p *Profile, cat *Category[K, V]) {
	for k := K(0); k < cat.Count(); k++ {
		Reset(p, cat, k)
	}
}

// Value returns the current value of entry i of d as an untyped value.
func (p *Profile) Value(d Descriptor, i int) (any, error) {
	s, err := p.lookup(d)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= s.len() {
		return nil, fmt.Errorf("%w: %s index %d", ErrIndexOutOfRange, d.Name(), i)
	}
	return s.value(i), nil
}

// DefaultValue returns the default of entry i of d.
func (p *Profile) DefaultValue(d Descriptor, i int) (any, error) {
	s, err := p.lookup(d)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= s.len() {
		return nil, fmt.Errorf("%w: %s index %d", ErrIndexOutOfRange, d.Name(), i)
	}
	return s.defaultValue(i), nil
}

// Assign is the untyped counterpart of Set for code that only knows descriptors. v must have
// the category's element type exactly; no conversion is attempted.
func (p *Profile) Assign(d Descriptor, i int, v any, notify bool) error {
	s, err := p.lookup(d)
	if err != nil {
		return err
	}
	if i < 0 || i >= s.len() {
		return fmt.Errorf("%w: %s index %d", ErrIndexOutOfRange, d.Name(), i)
	}
	changed, err := s.assign(i, v)
	if err != nil || !changed {
		return err
	}
	p.dirty = p.dirty.With(s.dirtyBit())
	if notify {
		p.dispatch(d, i, v)
	}
	return nil
}

// ResetEntry is the untyped counterpart of Reset.
func (p *Profile) ResetEntry(d Descriptor, i int) error {
	s, err := p.lookup(d)
	if err != nil {
		return err
	}
	if i < 0 || i >= s.len() {
		return fmt.Errorf("%w: %s index %d", ErrIndexOutOfRange, d.Name(), i)
	}
	p.reset(s, i)
	return nil
}

// NotifyAll pushes every slot of every category to every listener, regardless of dirty state.
func (p *Profile) NotifyAll() {
	for _, s := range p.stores {
		s.push(p)
	}
}

// Subscribe appends l to the registry. A listener belongs to at most one profile at a time.
func (p *Profile) Subscribe(l *Listener) error {
	switch {
	case l.profile == p:
		return fmt.Errorf("%w: %s", ErrDuplicateListener, l.name)
	case l.profile != nil:
		return fmt.Errorf("%w: %s", ErrListenerBound, l.name)
	}
	l.profile = p
	p.listeners = append(p.listeners, l)
	if p.hook != nil {
		p.hook.ListenerAdded(l, len(p.listeners))
	}
	return nil
}

// Listen creates a listener with the given handlers and subscribes it.
func (p *Profile) Listen(name string, handlers ...Handler) *Listener {
	l := NewListener(name, handlers...)
	// a fresh listener cannot be bound yet
	_ = p.Subscribe(l)
	return l
}

// Unsubscribe removes l from the registry. Removing an absent listener is a no-op.
func (p *Profile) Unsubscribe(l *Listener) {
	i := slices.Index(p.listeners, l)
	if i < 0 {
		return
	}
	p.listeners = slices.Delete(p.listeners, i, i+1)
	l.profile = nil
	if p.hook != nil {
		p.hook.ListenerRemoved(l, len(p.listeners))
	}
}

// Listeners returns the subscribed listeners, oldest first.
func (p *Profile) Listeners() []*Listener {
	return slices.Clone(p.listeners)
}

// dispatch delivers one triple to the listeners subscribed when it starts. Listeners removed
// by an earlier callback of the same fan-out are skipped.
func (p *Profile) dispatch(d Descriptor, i int, v any) {
	if len(p.listeners) == 0 {
		return
	}
	ch := Change{Category: d.Name(), Index: i, Name: d.EntryName(i), Value: v}
	for _, l := range slices.Clone(p.listeners) {
		if l.profile != p {
			continue
		}
		l.deliver(d, ch)
	}
}

// IsDirty reports whether d changed since its bit was last cleared.
func (p *Profile) IsDirty(d Descriptor) bool {
	i, ok := p.byDesc[d]
	return ok && p.dirty.Has(i)
}

// IsAnyDirty reports whether any category is dirty.
func (p *Profile) IsAnyDirty() bool {
	return p.dirty.Any()
}

func (p *Profile) DirtyMask() DirtyMask {
	return p.dirty
}

// DirtyCategories returns the dirty descriptors in registration order.
func (p *Profile) DirtyCategories() []Descriptor {
	bits := p.dirty.Bits()
	out := make([]Descriptor, 0, len(bits))
	for _, b := range bits {
		out = append(out, p.stores[b].descriptor())
	}
	return out
}

func (p *Profile) ResetDirty(d Descriptor) {
	if i, ok := p.byDesc[d]; ok {
		p.dirty = p.dirty.Without(i)
	}
}

func (p *Profile) ResetAllDirty() {
	p.dirty = 0
}
