package value

// ObjString is an immutable interned byte sequence. Every string ever
// reachable by a running program has exactly one ObjString in the VM's
// intern table (pkg/table) — identity equality on ObjString pointers is
// therefore the same thing as byte-for-byte string equality.
type ObjString struct {
	ObjHeader
	Chars string
	Hash  uint32
}

var _ Obj = (*ObjString)(nil)

func (s *ObjString) String() string  { return s.Chars }
func (s *ObjString) Type() string    { return "string" }
func (s *ObjString) ObjType() ObjType { return ObjTypeString }

// HashString computes the FNV-1a hash of a byte sequence. NewRawString
// stores it in every ObjString's Hash field; the intern table itself is
// keyed by the string contents and does not call it.
func HashString(s string) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	hash := offsetBasis
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= prime
	}
	return hash
}

// NewRawString builds an unlinked, uninterned ObjString. It exists purely
// as a building block for pkg/heap's allocator, which is the only code
// permitted to construct one, link it into the allocation list, and hand it
// to pkg/table for interning.
func NewRawString(chars string) *ObjString {
	return &ObjString{
		ObjHeader: ObjHeader{Kind: ObjTypeString},
		Chars:     chars,
		Hash:      HashString(chars),
	}
}
