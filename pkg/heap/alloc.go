package heap

import "github.com/kristofer/ember/pkg/value"

// AllocateString interns chars: if an ObjString with identical bytes is
// already in the intern table, it is returned unchanged (no new object);
// otherwise a fresh ObjString is allocated, tracked, and interned. This is
// the single chokepoint that makes identity-equals-content hold for
// strings everywhere in the VM and compiler.
func (h *Heap) AllocateString(chars string) *value.ObjString {
	if existing, ok := h.Strings.Get(chars); ok {
		return existing
	}
	h.collectIfNeeded()
	s := value.NewRawString(chars)
	h.track(s)
	h.Strings.Put(chars, s)
	return s
}

// AllocateFunction allocates a fresh, empty ObjFunction (its Chunk is ready
// for the compiler to write into).
func (h *Heap) AllocateFunction() *value.ObjFunction {
	h.collectIfNeeded()
	fn := value.NewRawFunction()
	h.track(fn)
	return fn
}

// AllocateNative wraps fn as a callable native value named name.
func (h *Heap) AllocateNative(name string, fn value.NativeFn) *value.ObjNative {
	h.collectIfNeeded()
	n := value.NewRawNative(name, fn)
	h.track(n)
	return n
}

// AllocateClosure builds a closure over fn with an upvalue slot per
// fn.UpvalueCount, left nil until the caller (the VM's OP_CLOSURE handler)
// populates them.
func (h *Heap) AllocateClosure(fn *value.ObjFunction) *value.ObjClosure {
	h.collectIfNeeded()
	c := value.NewRawClosure(fn)
	h.track(c)
	return c
}

// AllocateUpvalue builds an open upvalue over slot.
func (h *Heap) AllocateUpvalue(slot *value.Value) *value.ObjUpvalue {
	h.collectIfNeeded()
	u := value.NewRawUpvalue(slot)
	h.track(u)
	return u
}

// AllocateClass builds an empty class named name.
func (h *Heap) AllocateClass(name *value.ObjString) *value.ObjClass {
	h.collectIfNeeded()
	c := value.NewRawClass(name)
	h.track(c)
	return c
}

// AllocateInstance builds an instance of class with no fields yet.
func (h *Heap) AllocateInstance(class *value.ObjClass) *value.ObjInstance {
	h.collectIfNeeded()
	i := value.NewRawInstance(class)
	h.track(i)
	return i
}

// AllocateBoundMethod pairs receiver with method.
func (h *Heap) AllocateBoundMethod(receiver value.Value, method *value.ObjClosure) *value.ObjBoundMethod {
	h.collectIfNeeded()
	b := value.NewRawBoundMethod(receiver, method)
	h.track(b)
	return b
}
