package rtti

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"fortio.org/safecast"

	"rtti/internal/rtabi"
)

// Builtins stores handles of the constructors every registry starts with.
type Builtins struct {
	Pred          CtorID
	Func          CtorID
	Int           CtorID
	Char          CtorID
	Float         CtorID
	String        CtorID
	Univ          CtorID
	Void          CtorID
	CPointer      CtorID
	TypeInfo      CtorID
	TypeClassInfo CtorID
	Array         CtorID
}

// Registry interns constructor descriptors. It is filled once, frozen, and
// then only read; reads of a frozen registry need no synchronization.
type Registry struct {
	mu       sync.Mutex
	frozen   atomic.Bool
	tagBits  rtabi.TagBits
	ctors    []*Constructor
	grounds  []*TypeInfo
	index    map[ctorKey]CtorID
	builtins Builtins
}

type ctorKey struct {
	module string
	name   string
	arity  int
}

// NewRegistry constructs a registry seeded with the builtin constructors.
func NewRegistry(bits rtabi.TagBits) (*Registry, error) {
	if !bits.Valid() {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTagBits, bits, rtabi.MaxTagBits)
	}
	r := &Registry{
		tagBits: bits,
		ctors:   []*Constructor{nil}, // reserve 0 as invalid sentinel
		grounds: []*TypeInfo{nil},
		index:   make(map[ctorKey]CtorID, 64),
	}
	b := &r.builtins
	b.Pred = r.mustSpecial("builtin", "pred", 0, rtabi.LayoutPredicate, true)
	b.Func = r.mustSpecial("builtin", "func", 0, rtabi.LayoutPredicate, true)
	b.Int = r.mustSpecial("builtin", "int", 0, rtabi.LayoutInt, false)
	b.Char = r.mustSpecial("builtin", "character", 0, rtabi.LayoutCharacter, false)
	b.Float = r.mustSpecial("builtin", "float", 0, rtabi.LayoutFloat, false)
	b.String = r.mustSpecial("builtin", "string", 0, rtabi.LayoutString, false)
	b.Univ = r.mustSpecial("std_util", "univ", 0, rtabi.LayoutUniv, false)
	b.Void = r.mustSpecial("builtin", "void", 0, rtabi.LayoutVoid, false)
	b.CPointer = r.mustSpecial("builtin", "c_pointer", 0, rtabi.LayoutCPointer, false)
	b.TypeInfo = r.mustSpecial("private_builtin", "type_info", 0, rtabi.LayoutTypeInfo, false)
	b.TypeClassInfo = r.mustSpecial("private_builtin", "typeclass_info", 0, rtabi.LayoutTypeClassInfo, false)
	b.Array = r.mustSpecial("array", "array", 1, rtabi.LayoutArray, false)
	return r, nil
}

func (r *Registry) mustSpecial(module, name string, arity int, v rtabi.LayoutValue, ho bool) CtorID {
	id, err := r.Register(Constructor{
		Arity:       arity,
		Module:      module,
		Name:        name,
		HigherOrder: ho,
		Layout:      ForAllTags(r.tagBits, SpecialEntry(v)),
		Functors:    &FunctorTable{Indicator: IndicatorSpecial, Special: v},
	})
	if err != nil {
		panic(fmt.Errorf("builtin %s.%s: %w", module, name, err))
	}
	return id
}

// Builtins returns handles of the builtin constructors.
func (r *Registry) Builtins() Builtins {
	return r.builtins
}

// TagBits returns the primary tag width of the registry's layouts.
func (r *Registry) TagBits() rtabi.TagBits {
	return r.tagBits
}

// NumTags returns the number of entries every layout table has.
func (r *Registry) NumTags() int {
	return r.tagBits.NumTags()
}

// Frozen reports whether Freeze has succeeded.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Len returns the number of registered constructors.
func (r *Registry) Len() int {
	return len(r.ctors) - 1
}

// Register declares a constructor and, when tables are present, defines it.
func (r *Registry) Register(c Constructor) (CtorID, error) {
	id, err := r.Declare(c)
	if err != nil {
		return NoCtorID, err
	}
	if c.Functors == nil {
		return id, nil
	}
	if err := r.Define(id, c.Layout, c.Functors); err != nil {
		return NoCtorID, err
	}
	return id, nil
}

// Declare reserves a handle for a constructor whose tables may refer to
// itself or to constructors declared later. Tables in c are ignored.
func (r *Registry) Declare(c Constructor) (CtorID, error) {
	if r.frozen.Load() {
		return NoCtorID, ErrFrozen
	}
	c.Module = strings.TrimSpace(c.Module)
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return NoCtorID, fmt.Errorf("type constructor in module %q has no name", c.Module)
	}
	if c.Arity < 0 {
		return NoCtorID, fmt.Errorf("%s.%s: negative arity %d", c.Module, c.Name, c.Arity)
	}
	if c.HigherOrder && c.Arity != 0 {
		return NoCtorID, fmt.Errorf("%s.%s: higher-order constructors carry arity per descriptor", c.Module, c.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := ctorKey{module: c.Module, name: c.Name, arity: c.Arity}
	if _, ok := r.index[key]; ok {
		return NoCtorID, fmt.Errorf("%w: %s.%s/%d", ErrDuplicate, c.Module, c.Name, c.Arity)
	}
	n, err := safecast.Conv[uint32](len(r.ctors))
	if err != nil {
		panic(fmt.Errorf("len(ctors) overflow: %w", err))
	}
	id := CtorID(n)
	c.Layout = nil
	c.Functors = nil
	c.sortModule = normalizeName(c.Module)
	c.sortName = normalizeName(c.Name)
	stored := c
	r.ctors = append(r.ctors, &stored)
	r.grounds = append(r.grounds, &TypeInfo{ctor: id})
	r.index[key] = id
	return id, nil
}

// Define attaches layout and functor tables to a declared constructor.
func (r *Registry) Define(id CtorID, layout LayoutTable, functors *FunctorTable) error {
	if r.frozen.Load() {
		return ErrFrozen
	}
	if functors == nil {
		return fmt.Errorf("type constructor #%d: nil functor table", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.lookupLocked(id)
	if !ok {
		return fmt.Errorf("type constructor #%d: not declared", id)
	}
	if len(layout) != r.tagBits.NumTags() {
		return fmt.Errorf("%w: %s.%s has %d entries, want %d", ErrLayoutSize, c.Module, c.Name, len(layout), r.tagBits.NumTags())
	}
	c.Layout = append(LayoutTable(nil), layout...)
	c.Functors = functors
	return nil
}

// Freeze validates every table and forbids further changes.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return nil
	}
	for i := 1; i < len(r.ctors); i++ {
		if err := r.validateLocked(r.ctors[i]); err != nil {
			return err
		}
	}
	r.frozen.Store(true)
	return nil
}

func (r *Registry) validateLocked(c *Constructor) error {
	if c.Functors == nil {
		return fmt.Errorf("%w: %s.%s/%d", ErrUndefined, c.Module, c.Name, c.Arity)
	}
	where := func(what string) string {
		return fmt.Sprintf("%s.%s %s", c.Module, c.Name, what)
	}
	f := c.Functors
	switch f.Indicator {
	case IndicatorDU:
		for _, sv := range f.DU {
			for _, a := range sv.Args {
				if err := r.validatePseudoLocked(a, where("functor "+sv.Name)); err != nil {
					return err
				}
			}
		}
	case IndicatorEnum:
		if f.Enum == nil {
			return fmt.Errorf("%s: enum without functors", where("table"))
		}
	case IndicatorEquiv:
		if f.Equiv == nil {
			return fmt.Errorf("%s: equivalence without target", where("table"))
		}
		if err := r.validatePseudoLocked(f.Equiv, where("alias")); err != nil {
			return err
		}
	case IndicatorNoTag:
		if f.NoTag == nil {
			return fmt.Errorf("%s: no-tag type without functor", where("table"))
		}
		if err := r.validatePseudoLocked(f.NoTag.Arg, where("functor "+f.NoTag.Name)); err != nil {
			return err
		}
	case IndicatorSpecial, IndicatorUniv:
	default:
		return fmt.Errorf("%s: unknown functor indicator %d", where("table"), f.Indicator)
	}
	for tag, e := range c.Layout {
		if err := r.validateEntryLocked(e, where(fmt.Sprintf("layout[%d]", tag))); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) validateEntryLocked(e LayoutEntry, where string) error {
	switch e.Kind {
	case EntryUnused, EntrySpecial:
		return nil
	case EntryConst:
		if e.Enum == nil {
			return fmt.Errorf("%s: const entry without vector", where)
		}
	case EntrySimple:
		if e.Simple == nil {
			return fmt.Errorf("%s: simple entry without vector", where)
		}
	case EntryComplicated:
		if e.Complicated.NumSharers() == 0 {
			return fmt.Errorf("%s: complicated entry without sharers", where)
		}
		for _, s := range e.Complicated.Sharers {
			if s == nil {
				return fmt.Errorf("%s: nil sharer", where)
			}
		}
	case EntryEquiv:
		if e.Equiv == nil || e.Equiv.Type == nil {
			return fmt.Errorf("%s: equivalence entry without target", where)
		}
		return r.validatePseudoLocked(e.Equiv.Type, where)
	case EntryNoTag:
		if e.NoTag == nil {
			return fmt.Errorf("%s: no-tag entry without vector", where)
		}
	default:
		return fmt.Errorf("%s: unknown entry kind %d", where, e.Kind)
	}
	return nil
}

func (r *Registry) validatePseudoLocked(p Pseudo, where string) error {
	switch t := p.(type) {
	case Var:
		if t < 1 || rtabi.Word(t) > rtabi.MaxVarInt {
			return fmt.Errorf("%s: type variable %d outside [1, %d]", where, t, rtabi.MaxVarInt)
		}
		return nil
	case *TypeInfo:
		if t == nil {
			return fmt.Errorf("%s: nil descriptor", where)
		}
		return r.validateArityLocked(t.ctor, len(t.args), where)
	case *Template:
		if t == nil {
			return fmt.Errorf("%s: nil template", where)
		}
		if err := r.validateArityLocked(t.Ctor, len(t.Args), where); err != nil {
			return err
		}
		for _, a := range t.Args {
			if err := r.validatePseudoLocked(a, where); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: malformed template %T", where, p)
	}
}

func (r *Registry) validateArityLocked(id CtorID, n int, where string) error {
	c, ok := r.lookupLocked(id)
	if !ok {
		return fmt.Errorf("%s: unknown type constructor #%d", where, id)
	}
	if !c.HigherOrder && c.Arity != n {
		return fmt.Errorf("%s: %s.%s expects %d arguments, got %d", where, c.Module, c.Name, c.Arity, n)
	}
	if c.HigherOrder && n > rtabi.MaxHOArity {
		return fmt.Errorf("%s: higher-order arity %d too large", where, n)
	}
	return nil
}

func (r *Registry) lookupLocked(id CtorID) (*Constructor, bool) {
	if id == NoCtorID || int(id) >= len(r.ctors) {
		return nil, false
	}
	return r.ctors[id], true
}

// Lookup returns the constructor for a handle.
func (r *Registry) Lookup(id CtorID) (*Constructor, bool) {
	if r == nil {
		return nil, false
	}
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return r.lookupLocked(id)
}

// MustLookup panics with a CorruptError when id is unknown.
func (r *Registry) MustLookup(id CtorID) *Constructor {
	c, ok := r.Lookup(id)
	if !ok {
		panic(corrupt(ErrUnknownCtor, nil, "constructor #%d", id))
	}
	return c
}

// ByName finds a constructor by module, name and arity.
func (r *Registry) ByName(module, name string, arity int) (CtorID, bool) {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	id, ok := r.index[ctorKey{module: module, name: name, arity: arity}]
	return id, ok
}

// Resolve finds a constructor by bare name and arity when it is unambiguous
// across modules.
func (r *Registry) Resolve(name string, arity int) (CtorID, error) {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	found := NoCtorID
	var modules []string
	for key, id := range r.index {
		if key.name != name || key.arity != arity {
			continue
		}
		modules = append(modules, key.module)
		if found == NoCtorID || id < found {
			found = id
		}
	}
	switch len(modules) {
	case 0:
		return NoCtorID, fmt.Errorf("unknown type %s/%d", name, arity)
	case 1:
		return found, nil
	default:
		return NoCtorID, fmt.Errorf("ambiguous type %s/%d: qualify with one of %s", name, arity, strings.Join(sortedStrings(modules), ", "))
	}
}

// Each calls fn for every constructor in handle order.
func (r *Registry) Each(fn func(CtorID, *Constructor) bool) {
	for i := 1; i < len(r.ctors); i++ {
		if !fn(CtorID(i), r.ctors[i]) {
			return
		}
	}
}

// IsHigherOrder reports whether id is the shared pred or func constructor.
func (r *Registry) IsHigherOrder(id CtorID) bool {
	c, ok := r.Lookup(id)
	return ok && c.HigherOrder
}

// Ground returns the canonical descriptor of a constructor applied to no
// arguments: the constructor reference itself.
func (r *Registry) Ground(id CtorID) *TypeInfo {
	if id == NoCtorID || int(id) >= len(r.grounds) {
		return nil
	}
	return r.grounds[id]
}

// New builds a GC-owned concrete descriptor.
func (r *Registry) New(id CtorID, args ...*TypeInfo) (*TypeInfo, error) {
	c, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown type constructor #%d", id)
	}
	if !c.HigherOrder && len(args) != c.Arity {
		return nil, fmt.Errorf("%s.%s expects %d arguments, got %d", c.Module, c.Name, c.Arity, len(args))
	}
	if c.HigherOrder && len(args) > rtabi.MaxHOArity {
		return nil, fmt.Errorf("higher-order arity %d too large", len(args))
	}
	for i, a := range args {
		if a == nil || a.Released() {
			return nil, fmt.Errorf("%s.%s: argument %d is not a live descriptor", c.Module, c.Name, i+1)
		}
	}
	if len(args) == 0 {
		return r.grounds[id], nil
	}
	return &TypeInfo{ctor: id, args: append([]*TypeInfo(nil), args...)}, nil
}

// MustNew is New that panics on error.
func (r *Registry) MustNew(id CtorID, args ...*TypeInfo) *TypeInfo {
	t, err := r.New(id, args...)
	if err != nil {
		panic(err)
	}
	return t
}

// Apply builds a template; fully ground applications fold into a TypeInfo so
// that reifying them needs no allocation.
func (r *Registry) Apply(id CtorID, args ...Pseudo) (Pseudo, error) {
	ground := make([]*TypeInfo, 0, len(args))
	for _, a := range args {
		t, ok := a.(*TypeInfo)
		if !ok {
			break
		}
		ground = append(ground, t)
	}
	if len(ground) == len(args) {
		return r.New(id, ground...)
	}
	c, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown type constructor #%d", id)
	}
	if !c.HigherOrder && len(args) != c.Arity {
		return nil, fmt.Errorf("%s.%s expects %d arguments, got %d", c.Module, c.Name, c.Arity, len(args))
	}
	return &Template{Ctor: id, Args: append([]Pseudo(nil), args...)}, nil
}

// MustApply is Apply that panics on error.
func (r *Registry) MustApply(id CtorID, args ...Pseudo) Pseudo {
	p, err := r.Apply(id, args...)
	if err != nil {
		panic(err)
	}
	return p
}

// HigherOrder builds a concrete pred or func descriptor from its code.
func (r *Registry) HigherOrder(code rtabi.HOCode, args ...*TypeInfo) (*TypeInfo, error) {
	if len(args) != code.Arity() {
		return nil, fmt.Errorf("%s/%d given %d argument types", code.Name(), code.Arity(), len(args))
	}
	id := r.builtins.Pred
	if code.IsFunc() {
		id = r.builtins.Func
	}
	return r.New(id, args...)
}

// HOCode returns the higher-order code of a pred or func descriptor.
func (r *Registry) HOCode(t *TypeInfo) (rtabi.HOCode, bool) {
	if t == nil || !r.IsHigherOrder(t.ctor) {
		return 0, false
	}
	var (
		code rtabi.HOCode
		err  error
	)
	if t.ctor == r.builtins.Func {
		code, err = rtabi.MakeFunc(len(t.args))
	} else {
		code, err = rtabi.MakePred(len(t.args))
	}
	if err != nil {
		return 0, false
	}
	return code, true
}

var installed atomic.Pointer[Registry]

// Install publishes r as the process-wide registry. It succeeds once.
func Install(r *Registry) error {
	if r == nil || !r.Frozen() {
		return ErrNotFrozen
	}
	if !installed.CompareAndSwap(nil, r) {
		return ErrAlreadyInstalled
	}
	return nil
}

// Installed returns the process-wide registry, or nil before Install.
func Installed() *Registry {
	return installed.Load()
}
