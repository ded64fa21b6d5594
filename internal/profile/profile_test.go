package profile

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type boolKey int

const (
	BoolOne boolKey = iota
	BoolTwo
)

type u32Key int

const (
	U32One u32Key = iota
	U32Two
)

type strKey int

const (
	StrOne strKey = iota
	StrTwo
)

type callback struct {
	listener string
	category string
	index    int
	value    any
}

type ProfileTestSuite struct {
	suite.Suite

	boolCat *Category[boolKey, bool]
	u32Cat  *Category[u32Key, uint32]
	strCat  *Category[strKey, string]
	p       *Profile
	calls   []callback
}

func TestProfileTestSuite(t *testing.T) {
	suite.Run(t, new(ProfileTestSuite))
}

func (s *ProfileTestSuite) SetupTest() {
	s.boolCat = MustCategory[boolKey, bool]("BOOL",
		Entry[bool]{Name: "boolOne", Default: true},
		Entry[bool]{Name: "boolTwo", Default: false},
	)
	s.u32Cat = MustCategory[u32Key, uint32]("U32",
		Entry[uint32]{Name: "u32One", Default: 123},
		Entry[uint32]{Name: "u32Two", Default: 456},
	)
	s.strCat = MustCategory[strKey, string]("STR",
		Entry[string]{Name: "strOne", Default: "StrOne"},
		Entry[string]{Name: "strTwo", Default: "StrTwo"},
	)
	p, err := New([]Descriptor{s.boolCat, s.u32Cat, s.strCat})
	s.Require().NoError(err)
	s.p = p
	s.calls = nil
}

// recorder subscribes a listener that records every typed callback it gets.
func (s *ProfileTestSuite) recorder(name string) *Listener {
	return s.p.Listen(name,
		Handle(s.boolCat, func(k boolKey, v bool) {
			s.calls = append(s.calls, callback{name, "BOOL", int(k), v})
		}),
		Handle(s.u32Cat, func(k u32Key, v uint32) {
			s.calls = append(s.calls, callback{name, "U32", int(k), v})
		}),
		Handle(s.strCat, func(k strKey, v string) {
			s.calls = append(s.calls, callback{name, "STR", int(k), v})
		}),
	)
}

func (s *ProfileTestSuite) TestDefaults() {
	s.True(Get(s.p, s.boolCat, BoolOne))
	s.False(Get(s.p, s.boolCat, BoolTwo))
	s.Equal(uint32(456), Get(s.p, s.u32Cat, U32Two))
	s.Equal("StrOne", Get(s.p, s.strCat, StrOne))
	s.Equal("u32Two", Name(s.p, s.u32Cat, U32Two))
	s.Equal(uint32(123), Default(s.p, s.u32Cat, U32One))
	s.False(s.p.IsAnyDirty())
}

func (s *ProfileTestSuite) TestBoolScenario() {
	s.recorder("first")
	second := s.recorder("second")

	s.Require().NoError(Set(s.p, s.boolCat, BoolOne, false))
	s.True(s.p.IsDirty(s.boolCat))
	s.False(Get(s.p, s.boolCat, BoolOne))
	s.Equal([]callback{
		{"first", "BOOL", 0, false},
		{"second", "BOOL", 0, false},
	}, s.calls)

	s.Require().NoError(Set(s.p, s.boolCat, BoolOne, false))
	s.Len(s.calls, 2)
	s.True(s.p.IsDirty(s.boolCat))

	second.Close()
	s.calls = nil
	s.Require().NoError(Set(s.p, s.boolCat, BoolOne, true))
	s.Require().NoError(Set(s.p, s.boolCat, BoolOne, false))
	s.Equal([]callback{
		{"first", "BOOL", 0, true},
		{"first", "BOOL", 0, false},
	}, s.calls)
}

func (s *ProfileTestSuite) TestSetThenGet() {
	s.Require().NoError(Set(s.p, s.boolCat, BoolTwo, true))
	s.Require().NoError(Set(s.p, s.u32Cat, U32One, 7))
	s.Require().NoError(Set(s.p, s.strCat, StrTwo, "changed"))
	s.True(Get(s.p, s.boolCat, BoolTwo))
	s.Equal(uint32(7), Get(s.p, s.u32Cat, U32One))
	s.Equal("changed", Get(s.p, s.strCat, StrTwo))
	s.Equal(uint32(123), Default(s.p, s.u32Cat, U32One))
}

func (s *ProfileTestSuite) TestSameValueIsSilent() {
	s.recorder("l")
	s.Require().NoError(Set(s.p, s.u32Cat, U32One, 123))
	s.Require().NoError(Set(s.p, s.strCat, StrOne, "StrOne"))
	s.Empty(s.calls)
	s.False(s.p.IsAnyDirty())
}

func (s *ProfileTestSuite) TestNotifyOnlyOwnCategory() {
	s.recorder("l")
	s.Require().NoError(Set(s.p, s.u32Cat, U32Two, 1))
	s.Equal([]callback{{"l", "U32", 1, uint32(1)}}, s.calls)
	s.True(s.p.IsDirty(s.u32Cat))
	s.False(s.p.IsDirty(s.boolCat))
	s.False(s.p.IsDirty(s.strCat))
}

func (s *ProfileTestSuite) TestSetQuietMarksDirtyWithoutNotify() {
	s.recorder("l")
	s.Require().NoError(SetQuiet(s.p, s.strCat, StrOne, "quiet"))
	s.Empty(s.calls)
	s.True(s.p.IsDirty(s.strCat))
	s.Equal("quiet", Get(s.p, s.strCat, StrOne))
}

func (s *ProfileTestSuite) TestResetAlwaysNotifies() {
	s.recorder("l")

	Reset(s.p, s.boolCat, BoolOne)
	s.Equal([]callback{{"l", "BOOL", 0, true}}, s.calls)
	s.False(s.p.IsDirty(s.boolCat))

	s.Require().NoError(SetQuiet(s.p, s.u32Cat, U32Two, 9))
	s.p.ResetAllDirty()
	s.calls = nil
	Reset(s.p, s.u32Cat, U32Two)
	s.Equal(uint32(456), Get(s.p, s.u32Cat, U32Two))
	s.Equal([]callback{{"l", "U32", 1, uint32(456)}}, s.calls)
	s.True(s.p.IsDirty(s.u32Cat))
}

func (s *ProfileTestSuite) TestResetCategory() {
	s.Require().NoError(SetQuiet(s.p, s.strCat, StrOne, "a"))
	s.Require().NoError(SetQuiet(s.p, s.strCat, StrTwo, "b"))
	s.recorder("l")
	ResetCategory(s.p, s.strCat)
	s.Equal("StrOne", Get(s.p, s.strCat, StrOne))
	s.Equal("StrTwo", Get(s.p, s.strCat, StrTwo))
	s.Equal([]callback{
		{"l", "STR", 0, "StrOne"},
		{"l", "STR", 1, "StrTwo"},
	}, s.calls)
}

func (s *ProfileTestSuite) TestResetDirtyIsPerCategory() {
	s.Require().NoError(Set(s.p, s.boolCat, BoolOne, false))
	s.Require().NoError(Set(s.p, s.strCat, StrOne, "x"))
	s.Equal(DirtyMask(0b101), s.p.DirtyMask())
	s.Equal([]Descriptor{s.boolCat, s.strCat}, s.p.DirtyCategories())

	s.p.ResetDirty(s.boolCat)
	s.False(s.p.IsDirty(s.boolCat))
	s.True(s.p.IsDirty(s.strCat))
	s.True(s.p.IsAnyDirty())

	s.p.ResetAllDirty()
	s.False(s.p.IsAnyDirty())
}

func (s *ProfileTestSuite) TestNotifyAllPushesEverything() {
	s.recorder("a")
	s.recorder("b")

	s.p.NotifyAll()
	s.Len(s.calls, 12)
	s.Equal(callback{"a", "BOOL", 0, true}, s.calls[0])
	s.Equal(callback{"b", "BOOL", 0, true}, s.calls[1])
	s.Equal(callback{"a", "BOOL", 1, false}, s.calls[2])
	s.Equal(callback{"b", "STR", 1, "StrTwo"}, s.calls[11])
	s.False(s.p.IsAnyDirty())

	s.calls = nil
	s.p.NotifyAll()
	s.Len(s.calls, 12)
}

func (s *ProfileTestSuite) TestListenerIgnoresOtherCategories() {
	var got []bool
	s.p.Listen("bool-only", Handle(s.boolCat, func(_ boolKey, v bool) {
		got = append(got, v)
	}))
	s.Require().NoError(Set(s.p, s.strCat, StrOne, "ignored"))
	s.Require().NoError(Set(s.p, s.boolCat, BoolTwo, true))
	s.p.NotifyAll()
	s.Equal([]bool{true, true, true}, got)
}

func (s *ProfileTestSuite) TestHandleAny() {
	var changes []Change
	s.p.Listen("all", HandleAny(func(ch Change) {
		changes = append(changes, ch)
	}))
	s.Require().NoError(Set(s.p, s.u32Cat, U32Two, 5))
	s.Equal([]Change{{Category: "U32", Index: 1, Name: "u32Two", Value: uint32(5)}}, changes)
}

func (s *ProfileTestSuite) TestClosedListenerGetsNothing() {
	l := s.recorder("gone")
	s.True(l.Subscribed())
	s.Same(s.p, l.Profile())
	l.Close()
	s.False(l.Subscribed())
	s.Empty(s.p.Listeners())

	s.Require().NoError(Set(s.p, s.boolCat, BoolOne, false))
	s.p.NotifyAll()
	s.Empty(s.calls)

	// closing again and unsubscribing an absent listener are no-ops
	l.Close()
	s.p.Unsubscribe(l)
	s.p.Unsubscribe(NewListener("never"))
}

func (s *ProfileTestSuite) TestSubscribeErrors() {
	l := s.recorder("dup")
	s.ErrorIs(s.p.Subscribe(l), ErrDuplicateListener)
	s.Len(s.p.Listeners(), 1)

	other, err := New([]Descriptor{s.boolCat})
	s.Require().NoError(err)
	s.ErrorIs(other.Subscribe(l), ErrListenerBound)

	l.Close()
	s.NoError(other.Subscribe(l))
	s.Same(other, l.Profile())
}

func (s *ProfileTestSuite) TestSubscriptionOrder() {
	var order []string
	for _, name := range []string{"one", "two", "three"} {
		name := name
		s.p.Listen(name, Handle(s.boolCat, func(boolKey, bool) {
			order = append(order, name)
		}))
	}
	s.Require().NoError(Set(s.p, s.boolCat, BoolTwo, true))
	s.Equal([]string{"one", "two", "three"}, order)
}

func (s *ProfileTestSuite) TestSelfUnsubscribeDuringNotify() {
	var selfCalls, otherCalls int
	var self *Listener
	self = s.p.Listen("self", Handle(s.boolCat, func(boolKey, bool) {
		selfCalls++
		self.Close()
	}))
	s.p.Listen("other", Handle(s.boolCat, func(boolKey, bool) {
		otherCalls++
	}))

	s.Require().NoError(Set(s.p, s.boolCat, BoolOne, false))
	s.Equal(1, selfCalls)
	s.Equal(1, otherCalls)

	s.p.NotifyAll()
	s.Equal(1, selfCalls)
	s.Equal(3, otherCalls)
}

func (s *ProfileTestSuite) TestUnsubscribeLaterListenerDuringNotify() {
	var laterCalls int
	var later *Listener
	s.p.Listen("first", Handle(s.boolCat, func(boolKey, bool) {
		later.Close()
	}))
	later = s.p.Listen("later", Handle(s.boolCat, func(boolKey, bool) {
		laterCalls++
	}))
	s.Require().NoError(Set(s.p, s.boolCat, BoolOne, false))
	s.Zero(laterCalls)
}

func (s *ProfileTestSuite) TestReentrantSetConverges() {
	// mirror U32One into U32Two from inside the callback
	var calls int
	s.p.Listen("mirror", Handle(s.u32Cat, func(k u32Key, v uint32) {
		calls++
		if k == U32One {
			s.Require().NoError(Set(s.p, s.u32Cat, U32Two, v))
		}
	}))
	s.Require().NoError(Set(s.p, s.u32Cat, U32One, 77))
	s.Equal(uint32(77), Get(s.p, s.u32Cat, U32Two))
	s.Equal(2, calls)
}

func (s *ProfileTestSuite) TestIndexOutOfRangePanics() {
	s.Panics(func() { Get(s.p, s.boolCat, boolKey(2)) })
	s.Panics(func() { _ = Set(s.p, s.boolCat, boolKey(-1), true) })
	s.Panics(func() { Reset(s.p, s.strCat, s.strCat.Count()) })
}

func (s *ProfileTestSuite) TestForeignCategoryPanics() {
	foreign := MustCategory[boolKey, bool]("BOOL", Entry[bool]{Name: "x", Default: true})
	s.Panics(func() { Get(s.p, foreign, BoolOne) })
	s.False(s.p.IsDirty(foreign))
	_, err := s.p.Value(foreign, 0)
	s.ErrorIs(err, ErrUnknownCategory)
}

func (s *ProfileTestSuite) TestUntypedAccess() {
	s.recorder("l")
	d, ok := s.p.Category("U32")
	s.Require().True(ok)
	i, ok := d.IndexOf("u32Two")
	s.Require().True(ok)

	v, err := s.p.Value(d, i)
	s.NoError(err)
	s.Equal(uint32(456), v)
	def, err := s.p.DefaultValue(d, i)
	s.NoError(err)
	s.Equal(uint32(456), def)

	s.ErrorIs(s.p.Assign(d, i, 456, true), ErrTypeMismatch)
	s.ErrorIs(s.p.Assign(d, 9, uint32(1), true), ErrIndexOutOfRange)
	s.False(s.p.IsAnyDirty())

	s.NoError(s.p.Assign(d, i, uint32(1), false))
	s.Empty(s.calls)
	s.NoError(s.p.Assign(d, i, uint32(2), true))
	s.Equal([]callback{{"l", "U32", 1, uint32(2)}}, s.calls)
	s.Equal(uint32(2), Get(s.p, s.u32Cat, U32Two))
}

func (s *ProfileTestSuite) TestUntypedReset() {
	d, _ := s.p.Category("STR")
	s.ErrorIs(s.p.ResetEntry(d, 2), ErrIndexOutOfRange)

	s.recorder("l")
	s.NoError(s.p.ResetEntry(d, 0))
	s.Equal([]callback{{"l", "STR", 0, "StrOne"}}, s.calls)
	s.False(s.p.IsDirty(s.strCat))

	s.Require().NoError(SetQuiet(s.p, s.strCat, StrTwo, "x"))
	s.p.ResetDirty(s.strCat)
	s.NoError(s.p.ResetEntry(d, 1))
	s.Equal("StrTwo", Get(s.p, s.strCat, StrTwo))
	s.True(s.p.IsDirty(s.strCat))
}

func (s *ProfileTestSuite) TestCategoriesOrder() {
	s.Equal([]Descriptor{s.boolCat, s.u32Cat, s.strCat}, s.p.Categories())
	_, ok := s.p.Category("NOPE")
	s.False(ok)
}

type recordingHook struct {
	events []string
	counts []int
}

func (h *recordingHook) ListenerAdded(l *Listener, total int) {
	h.events = append(h.events, "+"+l.Name())
	h.counts = append(h.counts, total)
}

func (h *recordingHook) ListenerRemoved(l *Listener, remain int) {
	h.events = append(h.events, "-"+l.Name())
	h.counts = append(h.counts, remain)
}

func (s *ProfileTestSuite) TestHook() {
	h := &recordingHook{}
	p, err := New([]Descriptor{s.boolCat}, WithHook(h))
	s.Require().NoError(err)

	a := p.Listen("a")
	p.Listen("b")
	a.Close()
	a.Close()
	s.Equal([]string{"+a", "+b", "-a"}, h.events)
	s.Equal([]int{1, 2, 1}, h.counts)
}

func TestNewRejectsBadCategories(t *testing.T) {
	a := MustCategory[boolKey, bool]("A", Entry[bool]{Name: "x"})
	sameName := MustCategory[boolKey, bool]("A", Entry[bool]{Name: "y"})

	cases := map[string][]Descriptor{
		"empty":          nil,
		"nil category":   {nil},
		"twice":          {a, a},
		"duplicate name": {a, sameName},
	}
	for name, cats := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(cats)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}

	many := make([]Descriptor, MaxCategories+1)
	for i := range many {
		many[i] = MustCategory[boolKey, bool](string(rune('A'+i%26))+string(rune('a'+i/26)), Entry[bool]{Name: "x"})
	}
	if _, err := New(many); err == nil {
		t.Fatal("expected error for too many categories")
	}
	if _, err := New(many[:MaxCategories]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
