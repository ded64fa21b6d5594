package profile

import (
	"fmt"
)

// Index is the constraint for per-category index enumerations. Applications declare one
// enum type per category, numbered from zero.
type Index interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint8 | ~uint16 | ~uint32
}

// Entry is the definition of one slot: its name and default value.
type Entry[V comparable] struct {
	Name    string
	Default V
}

// Descriptor is the type-erased view of a category. It is what a Profile is built from and
// what persistence collaborators iterate over.
type Descriptor interface {
	// Name returns the category name, unique within a Profile.
	Name() string
	// Len returns the number of entries (the category's Count).
	Len() int
	// EntryName returns the name of entry i.
	EntryName(i int) string
	// IndexOf returns the index of the entry called name.
	IndexOf(name string) (int, bool)
	// DecodeValue decodes data into the category's element type using unmarshal.
	DecodeValue(data []byte, unmarshal func([]byte, any) error) (any, error)

	newStore(bit int) store
}

// Category describes a group of same-typed slots addressed by the index type K.
// A Category is immutable once built and may be shared by several profiles.
type Category[K Index, V comparable] struct {
	name    string
	entries []Entry[V]
	names   map[string]int
	// check validates a write before the equality gate. Nil for static categories.
	check func(cur, next V) error
}

// NewCategory builds a statically typed category. Entry i is addressed by K(i).
func NewCategory[K Index, V comparable](name string, entries ...Entry[V]) (*Category[K, V], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidCategory)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s has no entries", ErrInvalidCategory, name)
	}
	c := &Category[K, V]{
		name:    name,
		entries: append([]Entry[V](nil), entries...),
		names:   make(map[string]int, len(entries)),
	}
	for i, e := range c.entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: %s entry %d has no name", ErrInvalidCategory, name, i)
		}
		if _, dup := c.names[e.Name]; dup {
			return nil, fmt.Errorf("%w: %s has duplicate entry %q", ErrInvalidCategory, name, e.Name)
		}
		c.names[e.Name] = i
	}
	return c, nil
}

// MustCategory is like NewCategory but panics on a definition error. Meant for package-level
// category declarations.
func MustCategory[K Index, V comparable](name string, entries ...Entry[V]) *Category[K, V] {
	c, err := NewCategory[K, V](name, entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewVariantCategory builds a dynamically typed category whose slots hold tagged Values.
// The kind of each default is the declared kind of the slot; writes of another kind fail
// with ErrTypeMismatch. A slot whose default is the empty Value accepts any kind.
func NewVariantCategory[K Index](name string, entries ...Entry[Value]) (*Category[K, Value], error) {
	c, err := NewCategory[K, Value](name, entries...)
	if err != nil {
		return nil, err
	}
	c.check = checkKind
	return c, nil
}

// MustVariantCategory is like NewVariantCategory but panics on a definition error.
func MustVariantCategory[K Index](name string, entries ...Entry[Value]) *Category[K, Value] {
	c, err := NewVariantCategory[K](name, entries...)
	if err != nil {
		panic(err)
	}
	return c
}

func checkKind(cur, next Value) error {
	if !next.IsValid() {
		if !cur.IsValid() {
			return nil
		}
		return fmt.Errorf("%w: cannot store empty value into %s slot", ErrTypeMismatch, cur.Kind())
	}
	if cur.IsValid() && cur.Kind() != next.Kind() {
		return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, cur.Kind(), next.Kind())
	}
	return nil
}

func (c *Category[K, V]) Name() string { return c.name }

func (c *Category[K, V]) Len() int { return len(c.entries) }

// Count returns the sentinel index one past the last entry.
func (c *Category[K, V]) Count() K { return K(len(c.entries)) }

func (c *Category[K, V]) EntryName(i int) string { return c.entries[i].Name }

func (c *Category[K, V]) IndexOf(name string) (int, bool) {
	i, ok := c.names[name]
	return i, ok
}

func (c *Category[K, V]) DecodeValue(data []byte, unmarshal func([]byte, any) error) (any, error) {
	var v V
	if err := unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Category[K, V]) String() string {
	var zero V
	return fmt.Sprintf("%s[%d]%T", c.name, len(c.entries), zero)
}

func (c *Category[K, V]) newStore(bit int) store {
	s := &valueStore[K, V]{cat: c, bit: bit, slots: make([]slot[V], len(c.entries))}
	for i, e := range c.entries {
		s.slots[i] = slot[V]{def: e.Default, cur: e.Default}
	}
	return s
}
