// Package value implements ember's tagged-union Value type and the heap
// object model it references.
//
// A Value is one of four variants: nil, boolean, number, or a reference to a
// heap object. It is deliberately a small struct, never a bare
// interface{} — the VM's hot loop switches on a Type field rather than
// doing a type assertion or reflection, and the zero Value (ValueNil) is
// always valid without an explicit constructor call.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType is the tag discriminating which variant of Value is populated.
type ValueType byte

const (
	TypeNil ValueType = iota
	TypeBool
	TypeNumber
	TypeObj
)

// Value is ember's tagged union. Num holds the payload for TypeBool (0/1)
// and TypeNumber; Obj holds the payload for TypeObj. Only one of Num/Obj is
// meaningful at a time, selected by Type.
type Value struct {
	Type ValueType
	Num  float64
	Obj  Obj
}

// Nil is the singleton nil value.
var Nil = Value{Type: TypeNil}

// Bool constructs a boolean Value.
func Bool(b bool) Value {
	if b {
		return Value{Type: TypeBool, Num: 1}
	}
	return Value{Type: TypeBool, Num: 0}
}

// Number constructs a numeric Value.
func Number(n float64) Value {
	return Value{Type: TypeNumber, Num: n}
}

// FromObj constructs a Value wrapping a heap object reference.
func FromObj(o Obj) Value {
	return Value{Type: TypeObj, Obj: o}
}

func (v Value) IsNil() bool    { return v.Type == TypeNil }
func (v Value) IsBool() bool   { return v.Type == TypeBool }
func (v Value) IsNumber() bool { return v.Type == TypeNumber }
func (v Value) IsObj() bool    { return v.Type == TypeObj }

// AsBool returns the value's boolean payload. Callers must check IsBool first.
func (v Value) AsBool() bool { return v.Num != 0 }

// AsNumber returns the value's numeric payload. Callers must check IsNumber first.
func (v Value) AsNumber() float64 { return v.Num }

// IsFalsey implements ember's falsiness rule: nil and boolean false are
// falsy, and — unlike most scripting languages — the number 0 is also
// falsy. Everything else is truthy.
func (v Value) IsFalsey() bool {
	switch v.Type {
	case TypeNil:
		return true
	case TypeBool:
		return !v.AsBool()
	case TypeNumber:
		return v.Num == 0
	default:
		return false
	}
}

// Equal implements ember's `==`. Nil equals nil; booleans and numbers
// compare by value; heap-object references compare by identity — except
// that interned strings with identical bytes are guaranteed to share
// identity (pkg/table's intern table), so string equality reduces to the
// same identity comparison.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeNil:
		return true
	case TypeBool:
		return a.AsBool() == b.AsBool()
	case TypeNumber:
		return a.Num == b.Num
	case TypeObj:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// String formats v the way `print` does: numbers with the shortest
// round-trip decimal, booleans as true/false, nil as nil, and heap objects
// by delegating to their own String method.
func (v Value) String() string {
	switch v.Type {
	case TypeNil:
		return "nil"
	case TypeBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case TypeNumber:
		return formatNumber(v.Num)
	case TypeObj:
		if v.Obj == nil {
			return "nil"
		}
		return v.Obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// TypeName returns a short name for v's runtime type, used in type-mismatch
// runtime error messages.
func (v Value) TypeName() string {
	switch v.Type {
	case TypeNil:
		return "nil"
	case TypeBool:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeObj:
		if v.Obj == nil {
			return "nil"
		}
		return v.Obj.ObjType().String()
	default:
		return fmt.Sprintf("unknown(%d)", v.Type)
	}
}
