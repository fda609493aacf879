package lang

import (
	"strconv"
	"strings"
)

// ValueType enumerates the literal and expression categories of the language.
type ValueType int

const (
	TypeInvalid ValueType = iota
	TypeNumber
	TypeString
	TypeBool
	TypeVector
	TypeRange
	TypeReference
	TypeExpression
	TypeCall
)

func (t ValueType) String() string {
	switch t {
	case TypeNumber:
		return "NumberValue"
	case TypeString:
		return "StringValue"
	case TypeBool:
		return "BooleanValue"
	case TypeVector:
		return "VectorValue"
	case TypeRange:
		return "RangeValue"
	case TypeReference:
		return "ReferenceValue"
	case TypeExpression:
		return "ExpressionNode"
	case TypeCall:
		return "CallValue"
	default:
		return "InvalidValue"
	}
}

// Value is a literal, reference or expression appearing in source code.
// The sign of a value is kept apart from its payload because the minus
// sign is a separate token.
type Value struct {
	Type     ValueType
	Negative bool
	payload  interface{}
}

// Range is the payload of a range literal [start : step : end].
type Range struct {
	Start   Value
	Step    Value // valid only when HasStep is set
	End     Value
	HasStep bool
}

// Expression is a binary operation, or a unary wrapper when Operator is empty.
type Expression struct {
	Left     Value
	Right    Value
	Operator string
}

// IsBinary reports whether the expression has an operator and a right operand.
func (e *Expression) IsBinary() bool {
	return e.Operator != "" && e.Right.Type != TypeInvalid
}

// Call is a function invocation inside an expression.
type Call struct {
	Name string
	Args []Value
}

// NumberValue constructs a number from its magnitude.
func NumberValue(f float64) Value {
	return Value{Type: TypeNumber, payload: f}
}

// StringValue constructs a string from its unquoted body.
func StringValue(s string) Value {
	return Value{Type: TypeString, payload: s}
}

// BoolValue constructs a boolean.
func BoolValue(b bool) Value {
	return Value{Type: TypeBool, payload: b}
}

// VectorValue constructs a vector of elements.
func VectorValue(elems []Value) Value {
	return Value{Type: TypeVector, payload: elems}
}

// RangeValue constructs a range without an explicit step.
func RangeValue(start, end Value) Value {
	return Value{Type: TypeRange, payload: &Range{Start: start, End: end}}
}

// SteppedRangeValue constructs a range [start : step : end].
func SteppedRangeValue(start, step, end Value) Value {
	return Value{Type: TypeRange, payload: &Range{Start: start, Step: step, End: end, HasStep: true}}
}

// ReferenceValue constructs a reference to a named variable.
func ReferenceValue(name string) Value {
	return Value{Type: TypeReference, payload: name}
}

// ExpressionValue constructs a binary expression.
func ExpressionValue(left Value, op string, right Value) Value {
	return Value{
		Type:    TypeExpression,
		payload: &Expression{Left: left, Right: right, Operator: op},
	}
}

// UnaryValue wraps an operand in an operator-less expression.
func UnaryValue(operand Value) Value {
	return Value{Type: TypeExpression, payload: &Expression{Left: operand}}
}

// CallValue constructs a function call.
func CallValue(name string, args []Value) Value {
	return Value{Type: TypeCall, payload: &Call{Name: name, Args: args}}
}

// SetNegative records whether the value was preceded by a minus sign.
func (v *Value) SetNegative(neg bool) {
	v.Negative = neg
}

func (v Value) Number() float64 {
	if f, ok := v.payload.(float64); ok {
		return f
	}
	return 0
}

func (v Value) Str() string {
	if v.Type != TypeString {
		return ""
	}
	s, _ := v.payload.(string)
	return s
}

func (v Value) Bool() bool {
	if b, ok := v.payload.(bool); ok {
		return b
	}
	return false
}

func (v Value) Vector() []Value {
	if elems, ok := v.payload.([]Value); ok {
		return elems
	}
	return nil
}

func (v Value) Range() *Range {
	if r, ok := v.payload.(*Range); ok {
		return r
	}
	return nil
}

func (v Value) Ref() string {
	if v.Type != TypeReference {
		return ""
	}
	s, _ := v.payload.(string)
	return s
}

func (v Value) Expression() *Expression {
	if e, ok := v.payload.(*Expression); ok {
		return e
	}
	return nil
}

func (v Value) Call() *Call {
	if c, ok := v.payload.(*Call); ok {
		return c
	}
	return nil
}

// IsEqual reports structural equality: same variant, same sign and
// same payload, compared element-wise for composite values.
func (v Value) IsEqual(other Value) bool {
	if v.Type != other.Type || v.Negative != other.Negative {
		return false
	}
	switch v.Type {
	case TypeInvalid:
		return true
	case TypeNumber:
		return v.Number() == other.Number()
	case TypeString:
		return v.Str() == other.Str()
	case TypeBool:
		return v.Bool() == other.Bool()
	case TypeReference:
		return v.Ref() == other.Ref()
	case TypeVector:
		return equalSlices(v.Vector(), other.Vector())
	case TypeRange:
		a, b := v.Range(), other.Range()
		if a == nil || b == nil {
			return a == b
		}
		if a.HasStep != b.HasStep {
			return false
		}
		if a.HasStep && !a.Step.IsEqual(b.Step) {
			return false
		}
		return a.Start.IsEqual(b.Start) && a.End.IsEqual(b.End)
	case TypeExpression:
		a, b := v.Expression(), other.Expression()
		if a == nil || b == nil {
			return a == b
		}
		return a.Operator == b.Operator && a.Left.IsEqual(b.Left) && a.Right.IsEqual(b.Right)
	case TypeCall:
		a, b := v.Call(), other.Call()
		if a == nil || b == nil {
			return a == b
		}
		return a.Name == b.Name && equalSlices(a.Args, b.Args)
	}
	return false
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].IsEqual(b[i]) {
			return false
		}
	}
	return true
}

// String renders the value back in source form.
func (v Value) String() string {
	body := v.body()
	if v.Negative {
		return "-" + body
	}
	return body
}

func (v Value) body() string {
	switch v.Type {
	case TypeNumber:
		return strconv.FormatFloat(v.Number(), 'g', -1, 64)
	case TypeString:
		return `"` + v.Str() + `"`
	case TypeBool:
		return strconv.FormatBool(v.Bool())
	case TypeVector:
		return "[" + joinValues(v.Vector()) + "]"
	case TypeRange:
		r := v.Range()
		if r == nil {
			return "[]"
		}
		if r.HasStep {
			return "[" + r.Start.String() + " : " + r.Step.String() + " : " + r.End.String() + "]"
		}
		return "[" + r.Start.String() + " : " + r.End.String() + "]"
	case TypeReference:
		return v.Ref()
	case TypeExpression:
		e := v.Expression()
		if e == nil {
			return ""
		}
		if !e.IsBinary() {
			if v.Negative {
				return "(" + e.Left.String() + ")"
			}
			return e.Left.String()
		}
		if e.Operator == "=" {
			return e.Left.String() + " = " + e.Right.String()
		}
		return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")"
	case TypeCall:
		c := v.Call()
		if c == nil {
			return ""
		}
		return c.Name + "(" + joinValues(c.Args) + ")"
	default:
		return "<invalid>"
	}
}

func joinValues(vals []Value) string {
	parts := make([]string, len(vals))
	for i, val := range vals {
		parts[i] = val.String()
	}
	return strings.Join(parts, ", ")
}
