package ftmgmt

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind identifies which member of a Value is populated.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

var valueKindNames = [...]string{"null", "string", "int", "float", "bool"}

func (k ValueKind) String() string {
	if k < 0 || int(k) >= len(valueKindNames) {
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
	return valueKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k ValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Value is a metadata value: a string, an integer, a float or a boolean.
// The zero Value is null. Values are immutable and safe to copy.
//
// The kind is preserved from the source (a header card's native type, a
// YAML scalar's resolved type) so downstream column-type inference sees
// the same type the file carried.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue returns an integer Value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a floating point Value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// ValueOf converts a decoded configuration scalar into a Value.
// Unsupported types are rendered with fmt and stored as strings.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return IntValue(int64(x))
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		if x > math.MaxInt64 {
			return FloatValue(float64(x))
		}
		return IntValue(int64(x))
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case time.Time:
		return StringValue(x.Format(time.RFC3339))
	case fmt.Stringer:
		return StringValue(x.String())
	default:
		return StringValue(fmt.Sprint(x))
	}
}

// Kind reports which member of v is populated.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is the null Value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumeric reports whether v is an integer or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// String renders v the way it is substituted into templates.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// Int returns v as an integer. Strings holding an integer literal convert.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) {
			return int64(v.f), true
		}
	case KindString:
		if i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Float returns v as a float. Integers and numeric strings convert.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindString:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Bool returns the boolean member of v.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Interface returns the native Go value held by v.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether v and o have the same kind and content.
func (v Value) Equal(o Value) bool {
	return v == o
}

// Compare orders two values: null first, numerically when both are numeric,
// otherwise by their string rendering.
func (v Value) Compare(o Value) int {
	switch {
	case v.kind == KindNull && o.kind == KindNull:
		return 0
	case v.kind == KindNull:
		return -1
	case o.kind == KindNull:
		return 1
	}
	if v.IsNumeric() && o.IsNumeric() {
		a, _ := v.Float()
		b, _ := o.Float()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return strings.Compare(v.String(), o.String())
}

// MarshalJSON encodes v using its native JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindFloat && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a JSON scalar, keeping whole numbers as integers.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if n, ok := raw.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			*v = IntValue(i)
			return nil
		}
		f, err := n.Float64()
		if err != nil {
			return err
		}
		*v = FloatValue(f)
		return nil
	}
	switch raw.(type) {
	case nil, string, bool:
		*v = ValueOf(raw)
		return nil
	}
	return fmt.Errorf("cannot decode %s into a scalar value", string(data))
}
