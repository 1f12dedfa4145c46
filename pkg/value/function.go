package value

// ObjFunction is an immutable-after-compilation function: arity, upvalue
// count, an optional name, and a chunk. A bare ObjFunction is never
// directly callable at runtime — every call goes through an ObjClosure
// wrapping it.
type ObjFunction struct {
	ObjHeader
	Arity        int
	UpvalueCount int
	Name         *ObjString // nil for the implicit top-level script function
	Chunk        *Chunk
}

var _ Obj = (*ObjFunction)(nil)

func (f *ObjFunction) ObjType() ObjType { return ObjTypeFunction }

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}

func (f *ObjFunction) Type() string { return "function" }

// NewRawFunction builds an unlinked ObjFunction. Only pkg/heap's allocator
// constructs one and links it into the allocation list.
func NewRawFunction() *ObjFunction {
	return &ObjFunction{
		ObjHeader: ObjHeader{Kind: ObjTypeFunction},
		Chunk:     NewChunk(),
	}
}

// NativeFn is the signature every native (built-in) function implements:
// given the thread-agnostic argument slice, it returns a result or an
// error. The VM treats a non-nil error exactly like a runtime error raised
// from bytecode.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a Go function pointer so it can be stored as a Value and
// called like any other callable. Arity is not statically recorded — each
// native validates its own arguments.
type ObjNative struct {
	ObjHeader
	Name string
	Fn   NativeFn
}

var _ Obj = (*ObjNative)(nil)

func (n *ObjNative) ObjType() ObjType { return ObjTypeNative }
func (n *ObjNative) String() string   { return "<native fn>" }
func (n *ObjNative) Type() string     { return "native" }

// NewRawNative builds an unlinked ObjNative. Only pkg/heap's allocator
// constructs one and links it into the allocation list.
func NewRawNative(name string, fn NativeFn) *ObjNative {
	return &ObjNative{ObjHeader: ObjHeader{Kind: ObjTypeNative}, Name: name, Fn: fn}
}
