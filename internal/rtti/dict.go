package rtti

import "fmt"

// DictBase is the part of an interface dictionary shared by every instance
// of one implementation: the instance arity and the method table.
type DictBase struct {
	Arity   int
	Methods []CodeAddr
}

// DictSlot is what a dictionary argument slot holds: a type descriptor or a
// nested dictionary for a superclass constraint.
type DictSlot interface {
	dictSlot()
}

func (*TypeInfo) dictSlot() {}
func (*Dict) dictSlot()     {}

// Dict is an interface dictionary. Slots 1..Arity hold the dictionaries of
// constraints on the instance; the type arguments follow at offset Arity.
type Dict struct {
	base  *DictBase
	slots []DictSlot
}

// NewDict builds a dictionary; slots must cover at least the arity.
func NewDict(base *DictBase, slots ...DictSlot) (*Dict, error) {
	if base == nil {
		return nil, fmt.Errorf("dictionary without base")
	}
	if base.Arity < 0 || len(slots) < base.Arity {
		return nil, fmt.Errorf("dictionary of arity %d given %d slots", base.Arity, len(slots))
	}
	for i, s := range slots {
		if s == nil {
			return nil, fmt.Errorf("dictionary slot %d is nil", i+1)
		}
	}
	return &Dict{base: base, slots: append([]DictSlot(nil), slots...)}, nil
}

// Arity returns the instance arity.
func (d *Dict) Arity() int { return d.base.Arity }

// NumMethods returns the size of the method table.
func (d *Dict) NumMethods() int { return len(d.base.Methods) }

// Method returns method i (1-based).
func (d *Dict) Method(i int) (CodeAddr, bool) {
	if i < 1 || i > len(d.base.Methods) {
		return 0, false
	}
	return d.base.Methods[i-1], true
}

// ArgDict returns slot i (1-based) counted from the start of the slots.
func (d *Dict) ArgDict(i int) (DictSlot, bool) {
	if i < 1 || i > len(d.slots) {
		return nil, false
	}
	return d.slots[i-1], true
}

// Arg returns argument i (1-based) past the arity offset. It may be a
// superclass dictionary or a type descriptor.
func (d *Dict) Arg(i int) (DictSlot, bool) {
	return d.ArgDict(d.base.Arity + i)
}

// TypeInfoArg is Arg restricted to type descriptors.
func (d *Dict) TypeInfoArg(i int) (*TypeInfo, bool) {
	s, ok := d.Arg(i)
	if !ok {
		return nil, false
	}
	t, ok := s.(*TypeInfo)
	return t, ok
}
