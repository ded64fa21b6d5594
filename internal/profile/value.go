package profile

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Kind tags the payload of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota // empty Value, nothing stored yet
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt:     "int",
	KindUint:    "uint",
	KindFloat:   "float",
	KindString:  "string",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: unknown kind %q", ErrTypeMismatch, s)
}

// Value is a tagged union over the closed set of kinds a variant category may hold.
// Values are comparable with ==; two Values are equal when kind and payload match.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
}

func BoolValue(v bool) Value { return Value{kind: KindBool, b: v} }

func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }

func UintValue(v uint64) Value { return Value{kind: KindUint, u: v} }

func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }

func StringValue(v string) Value { return Value{kind: KindString, s: v} }

func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a payload.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) AsUint() (uint64, bool) { return v.u, v.kind == KindUint }

func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Interface returns the payload as a plain Go value, nil for the empty Value.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindUint:
		return v.u
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

func (v Value) String() string {
	if !v.IsValid() {
		return "<empty>"
	}
	return fmt.Sprintf("%v", v.Interface())
}

type wireValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsValid() {
		return []byte("null"), nil
	}
	raw, err := json.Marshal(v.Interface())
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Kind: v.kind.String(), Value: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := ParseKind(w.Kind)
	if err != nil {
		return err
	}
	var out Value
	switch kind {
	case KindBool:
		var b bool
		err = json.Unmarshal(w.Value, &b)
		out = BoolValue(b)
	case KindInt:
		var i int64
		err = json.Unmarshal(w.Value, &i)
		out = IntValue(i)
	case KindUint:
		var u uint64
		err = json.Unmarshal(w.Value, &u)
		out = UintValue(u)
	case KindFloat:
		var f float64
		err = json.Unmarshal(w.Value, &f)
		out = FloatValue(f)
	case KindString:
		var s string
		err = json.Unmarshal(w.Value, &s)
		out = StringValue(s)
	}
	if err != nil {
		return fmt.Errorf("%s value: %w", kind, err)
	}
	*v = out
	return nil
}

// MarshalYAML renders the same {kind, value} shape as MarshalJSON.
func (v Value) MarshalYAML() (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	return map[string]any{"kind": v.kind.String(), "value": v.Interface()}, nil
}
