package value

// ObjType is the type tag every heap object carries in its common header.
type ObjType byte

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeClosure
	ObjTypeUpvalue
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case ObjTypeString:
		return "string"
	case ObjTypeFunction:
		return "function"
	case ObjTypeNative:
		return "native"
	case ObjTypeClosure:
		return "closure"
	case ObjTypeUpvalue:
		return "upvalue"
	case ObjTypeClass:
		return "class"
	case ObjTypeInstance:
		return "instance"
	case ObjTypeBoundMethod:
		return "bound method"
	default:
		return "unknown"
	}
}

// Obj is implemented by every heap object. Only the pointer-receiver object
// variants defined in this package implement it, so a Value's Obj field is
// never a bare interface{} dressed up as a heap reference.
//
// The Header method exposes the common header (type tag, mark bit,
// allocation-list link) that pkg/heap's collector manipulates directly
// during mark and sweep; object-specific payload lives on the concrete
// type.
type Obj interface {
	String() string
	Type() string
	ObjType() ObjType
	Header() *ObjHeader
}

// ObjHeader is the common header every heap object embeds: a type tag, a
// mark bit for the tracing collector, and a next-pointer threading the
// object into the VM's global allocation list (insertion at head on
// allocation, walked by the sweep phase).
type ObjHeader struct {
	Kind   ObjType
	Marked bool
	Next   Obj
}

func (h *ObjHeader) Header() *ObjHeader { return h }
