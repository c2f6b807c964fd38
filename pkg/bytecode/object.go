package bytecode

// ObjKind discriminates the heap object kinds (spec §3 "Heap object kinds").
type ObjKind uint8

const (
	ObjKindString ObjKind = iota
	ObjKindFunction
	ObjKindNative
	ObjKindClosure
	ObjKindUpvalue
	ObjKindClass
	ObjKindInstance
	ObjKindBoundMethod
)

// Header is the shared heap-object header every kind embeds: the GC
// tri-color mark bit and the intrusive "all objects" list link the
// sweeper walks. It is deliberately a plain embedded struct rather than
// an interface field so the GC can flip Marked/Next without a type
// switch once it already holds a concrete pointer.
type Header struct {
	Marked bool
	Next   Obj
}

// Obj is implemented by every heap-allocated kind. GetHeader gives the
// collector generic access to the mark bit and the all-objects link
// without a type switch in the common mark/sweep path.
type Obj interface {
	Kind() ObjKind
	GetHeader() *Header
}

// ObjString is an immutable interned byte sequence. All ObjStrings live in
// the VM-wide intern set; equality between two string Values reduces to
// pointer identity (see Equal in value.go).
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

func (s *ObjString) Kind() ObjKind      { return ObjKindString }
func (s *ObjString) GetHeader() *Header { return &s.Header }

// ObjFunction is a compiled function body: its arity, the number of
// upvalues it captures, its own Chunk, and an optional name (nil for the
// top-level script).
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString
}

func (f *ObjFunction) Kind() ObjKind      { return ObjKindFunction }
func (f *ObjFunction) GetHeader() *Header { return &f.Header }

// NativeFn is the host-function calling convention: receive the argument
// count and a slice over the VM's argument slots, return one Value.
// Natives cannot signal errors except through the returned Value — no
// exception is propagated to native callers (spec §7).
type NativeFn func(argCount int, args []Value) Value

// ObjNative wraps a host Go function as a callable language Value.
type ObjNative struct {
	Header
	Function NativeFn
	Name     string
}

func (n *ObjNative) Kind() ObjKind      { return ObjKindNative }
func (n *ObjNative) GetHeader() *Header { return &n.Header }

// ObjUpvalue is either open (Location points into a live VM stack slot) or
// closed (Location has been rebound to &Closed, which now owns the value).
// Open upvalues form a singly-linked list ordered by descending stack
// address, threaded through NextOpen via the VM, nearest-to-top first.
type ObjUpvalue struct {
	Header
	Location *Value
	Closed   Value
	NextOpen *ObjUpvalue
	// Slot is the stack index Location currently points at. It is only
	// meaningful while the upvalue is open; captureUpvalue uses it to keep
	// the open list's descending-by-address order and closeUpvalues to find
	// where to stop, without resorting to pointer arithmetic on the VM's
	// stack array.
	Slot int
}

func (u *ObjUpvalue) Kind() ObjKind      { return ObjKindUpvalue }
func (u *ObjUpvalue) GetHeader() *Header { return &u.Header }

// Close moves the referenced value out of the stack and into the
// upvalue's own storage, then rebinds Location to point at it.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs a Function with the fixed-size vector of Upvalues it
// captured at creation time.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) Kind() ObjKind      { return ObjKindClosure }
func (c *ObjClosure) GetHeader() *Header { return &c.Header }

// ObjClass holds a class's interned name and its method table (string ->
// Closure). There are no static methods or class-level fields.
type ObjClass struct {
	Header
	Name    *ObjString
	Methods MethodTable
}

func (c *ObjClass) Kind() ObjKind      { return ObjKindClass }
func (c *ObjClass) GetHeader() *Header { return &c.Header }

// MethodTable and FieldTable are satisfied by *table.Table; declared here
// as interfaces so this package needn't import pkg/table (which itself
// imports pkg/bytecode for the Value/ObjString types its entries hold).
type MethodTable interface {
	Get(key *ObjString) (Value, bool)
	Set(key *ObjString, value Value) bool
	Delete(key *ObjString) bool
	AddAllTo(dst MethodTable)
	ForEach(fn func(key *ObjString, value Value))
	Mark(markObj func(Obj), markValue func(Value))
}

type FieldTable = MethodTable

// ObjInstance holds a reference to its Class plus a per-instance field
// table (string -> Value).
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields FieldTable
}

func (i *ObjInstance) Kind() ObjKind      { return ObjKindInstance }
func (i *ObjInstance) GetHeader() *Header { return &i.Header }

// ObjBoundMethod pairs a receiver Value with a method Closure, produced by
// GET_PROPERTY/GET_SUPER when a property name resolves to a method
// rather than a field.
type ObjBoundMethod struct {
	Header
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) Kind() ObjKind      { return ObjKindBoundMethod }
func (b *ObjBoundMethod) GetHeader() *Header { return &b.Header }
