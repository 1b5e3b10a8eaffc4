package rangemap

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Kind enumerates the scalar kinds a cell can decode to.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a decoded cell. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

func NullValue() Value           { return Value{} }
func BoolValue(b bool) Value     { return Value{kind: Bool, b: b} }
func IntValue(i int64) Value     { return Value{kind: Int, i: i} }
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }
func StringValue(s string) Value { return Value{kind: String, s: s} }
func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == Null }
func (v Value) Bool() bool       { return v.b }
func (v Value) Int() int64       { return v.i }
func (v Value) Float() float64   { return v.f }
func (v Value) Str() string      { return v.s }

// Interface returns the value as nil, bool, int64, float64 or string.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return v.i
	case Float:
		return v.f
	case String:
		return v.s
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case Bool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case String:
		return v.s
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Bool:
		return strconv.AppendBool(nil, v.b), nil
	case Int:
		return strconv.AppendInt(nil, v.i, 10), nil
	case Float:
		return strconv.AppendFloat(nil, v.f, 'g', -1, 64), nil
	case String:
		return json.Marshal(v.s)
	}
	return []byte("null"), nil
}

var (
	rxFloat = regexp.MustCompile(`^\d+\.\d+$`)
	rxInt   = regexp.MustCompile(`^\d+$`)
)

// DetectValue types a raw cell string. It never fails: anything that is not
// empty, TRUE, FALSE or an unsigned decimal number stays a string. Signs are
// not recognised, so "-5" is a string.
func DetectValue(raw string) Value {
	switch raw {
	case "":
		return NullValue()
	case "TRUE":
		return BoolValue(true)
	case "FALSE":
		return BoolValue(false)
	}
	if rxFloat.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return FloatValue(f)
		}
		return StringValue(raw)
	}
	if rxInt.MatchString(raw) {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntValue(i)
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return FloatValue(f)
		}
	}
	return StringValue(raw)
}

// CellString renders a raw cell as the remote service would display it.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case Value:
		return x.String()
	}
	return fmt.Sprint(v)
}
