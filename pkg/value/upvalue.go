package value

// ObjUpvalue is either open (Closed == nil and Location points at a live
// VM stack slot) or closed (Closed holds an owned copy of the value and
// Location points at Closed itself). Open upvalues form a singly linked
// list through NextOpen, per VM, kept sorted by descending stack address so
// the set capturing slots at or above a threshold can be closed in one
// traversal.
//
// NextOpen is distinct from ObjHeader.Next: ObjHeader.Next threads every
// heap object into the allocation list that the GC sweeps; NextOpen
// threads only currently-open upvalues into the VM's open-upvalue list.
type ObjUpvalue struct {
	ObjHeader
	Location *Value
	Closed   Value
	NextOpen *ObjUpvalue
}

var _ Obj = (*ObjUpvalue)(nil)

func (u *ObjUpvalue) ObjType() ObjType { return ObjTypeUpvalue }
func (u *ObjUpvalue) String() string   { return "upvalue" }
func (u *ObjUpvalue) Type() string     { return "upvalue" }

// IsOpen reports whether the upvalue still refers to a live stack slot
// rather than its own closed cell.
func (u *ObjUpvalue) IsOpen() bool { return u.Location != &u.Closed }

// NewRawUpvalue builds an unlinked open upvalue pointing at slot. Only
// pkg/heap's allocator constructs one and links it into the allocation
// list; the VM is responsible for splicing it into the open-upvalue list.
func NewRawUpvalue(slot *Value) *ObjUpvalue {
	u := &ObjUpvalue{ObjHeader: ObjHeader{Kind: ObjTypeUpvalue}}
	u.Location = slot
	return u
}

// ObjClosure pairs an ObjFunction with the array of upvalues it captured at
// creation time. All calls go through closures; the slot is populated
// exactly once, at closure-creation time, and never rebound.
type ObjClosure struct {
	ObjHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

var _ Obj = (*ObjClosure)(nil)

func (c *ObjClosure) ObjType() ObjType { return ObjTypeClosure }
func (c *ObjClosure) String() string   { return c.Function.String() }
func (c *ObjClosure) Type() string     { return "closure" }

// Name returns the wrapped function's display name, used by the VM's call
// machinery and stack traces.
func (c *ObjClosure) Name() string {
	if c.Function.Name == nil {
		return "script"
	}
	return c.Function.Name.Chars
}

// NewRawClosure builds an unlinked closure over fn with len(fn
// upvalues) slots, all nil until the VM's OP_CLOSURE handler populates them.
// Only pkg/heap's allocator constructs one and links it into the
// allocation list.
func NewRawClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{
		ObjHeader: ObjHeader{Kind: ObjTypeClosure},
		Function:  fn,
		Upvalues:  make([]*ObjUpvalue, fn.UpvalueCount),
	}
}
