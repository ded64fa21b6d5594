package profile

import (
	"github.com/google/uuid"
)

// Change describes one delivered (category, index, value) triple.
type Change struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Value    any    `json:"value"`
}

// Handler is one callback a Listener carries. Build it with Handle or HandleAny.
type Handler struct {
	cat Descriptor
	fn  func(int, any)
	all func(Change)
}

// Handle builds a typed callback for one category. A Listener only receives the categories
// it has handlers for; other categories are silently ignored.
func Handle[K Index, V comparable](cat *Category[K, V], fn func(K, V)) Handler {
	return Handler{
		cat: cat,
		fn: func(i int, v any) {
			fn(K(i), v.(V))
		},
	}
}

// HandleAny builds a callback that receives every change of every category.
func HandleAny(fn func(Change)) Handler {
	return Handler{all: fn}
}

// Listener observes one Profile. Its handlers run synchronously, in subscription order,
// on the goroutine that changed the value.
type Listener struct {
	id       string
	name     string
	handlers map[Descriptor][]func(int, any)
	catchAll []func(Change)
	profile  *Profile
}

// NewListener creates an unsubscribed listener. See Profile.Subscribe and Profile.Listen.
func NewListener(name string, handlers ...Handler) *Listener {
	l := &Listener{
		id:       uuid.NewString(),
		name:     name,
		handlers: make(map[Descriptor][]func(int, any)),
	}
	for _, h := range handlers {
		switch {
		case h.all != nil:
			l.catchAll = append(l.catchAll, h.all)
		case h.fn != nil:
			l.handlers[h.cat] = append(l.handlers[h.cat], h.fn)
		}
	}
	return l
}

func (l *Listener) ID() string { return l.id }

func (l *Listener) Name() string { return l.name }

// Profile returns the profile l is subscribed to, or nil.
func (l *Listener) Profile() *Profile { return l.profile }

func (l *Listener) Subscribed() bool { return l.profile != nil }

// Close unsubscribes l from its profile. Closing twice, or closing a listener that was never
// subscribed, does nothing.
func (l *Listener) Close() {
	if l.profile != nil {
		l.profile.Unsubscribe(l)
	}
}

func (l *Listener) deliver(d Descriptor, ch Change) {
	for _, fn := range l.handlers[d] {
		fn(ch.Index, ch.Value)
	}
	for _, fn := range l.catchAll {
		fn(ch)
	}
}
