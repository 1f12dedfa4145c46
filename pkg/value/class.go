package value

import "github.com/kristofer/ember/pkg/table"

// MethodTable is the hash table mapping a method name to its closure: the
// type of ObjClass's method table.
type MethodTable = table.Table[*ObjString, *ObjClosure]

// FieldTable maps an instance's field names to their current values.
type FieldTable = table.Table[*ObjString, Value]

// ObjClass is a class: a name plus a closed hash table of methods. Once a
// class declaration finishes, Methods is never restructured except by
// copy-down inheritance at the moment a subclass is declared; method
// lookup is always a single table probe.
type ObjClass struct {
	ObjHeader
	Name    *ObjString
	Methods *MethodTable
}

var _ Obj = (*ObjClass)(nil)

func (c *ObjClass) ObjType() ObjType { return ObjTypeClass }
func (c *ObjClass) String() string   { return c.Name.Chars }
func (c *ObjClass) Type() string     { return "class" }

// NewRawClass builds an unlinked class with an empty method table. Only
// pkg/heap's allocator constructs one and links it into the allocation
// list.
func NewRawClass(name *ObjString) *ObjClass {
	return &ObjClass{
		ObjHeader: ObjHeader{Kind: ObjTypeClass},
		Name:      name,
		Methods:   table.New[*ObjString, *ObjClosure](8),
	}
}

// ObjInstance is a reference to a class plus a hash table of fields. Fields
// are added on first assignment; methods are never stored per-instance —
// they are looked up through Class.Methods.
type ObjInstance struct {
	ObjHeader
	Class  *ObjClass
	Fields *FieldTable
}

var _ Obj = (*ObjInstance)(nil)

func (i *ObjInstance) ObjType() ObjType { return ObjTypeInstance }
func (i *ObjInstance) String() string   { return i.Class.Name.Chars + " instance" }
func (i *ObjInstance) Type() string     { return "instance" }

// NewRawInstance builds an unlinked instance of class with an empty field
// table. Only pkg/heap's allocator constructs one and links it into the
// allocation list.
func NewRawInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{
		ObjHeader: ObjHeader{Kind: ObjTypeInstance},
		Class:     class,
		Fields:    table.New[*ObjString, Value](4),
	}
}

// ObjBoundMethod pairs a receiver value with a method closure, produced
// when a dot expression reads a method off an instance without
// immediately calling it.
type ObjBoundMethod struct {
	ObjHeader
	Receiver Value
	Method   *ObjClosure
}

var _ Obj = (*ObjBoundMethod)(nil)

func (b *ObjBoundMethod) ObjType() ObjType { return ObjTypeBoundMethod }
func (b *ObjBoundMethod) String() string   { return b.Method.String() }
func (b *ObjBoundMethod) Type() string     { return "bound method" }

// NewRawBoundMethod builds an unlinked bound method. Only pkg/heap's
// allocator constructs one and links it into the allocation list.
func NewRawBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	return &ObjBoundMethod{
		ObjHeader: ObjHeader{Kind: ObjTypeBoundMethod},
		Receiver:  receiver,
		Method:    method,
	}
}
