package rtti

// Univ is a value packaged with the descriptor of its own type.
type Univ struct {
	typ   *TypeInfo
	value any
}

// NewUniv boxes v with its type descriptor. Arena-owned descriptors must be
// kept (Arena.Keep) before they are boxed.
func NewUniv(t *TypeInfo, v any) Univ {
	return Univ{typ: t, value: v}
}

// Type returns the descriptor of the boxed value.
func (u Univ) Type() *TypeInfo { return u.typ }

// Value returns the boxed value.
func (u Univ) Value() any { return u.value }
