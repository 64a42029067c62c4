package ply

import (
	"github.com/Velocidex/ordereddict"
)

// PropertyMap is the capability to get and set property values by name.
// The payload reader fills any PropertyMap and the writer drains any
// PropertyMap, so instances may be backed by structs, arrays or anything
// else that can implement these two methods.
type PropertyMap interface {
	// GetProperty returns the named value; ok is false when absent.
	GetProperty(name string) (Value, bool)

	// SetProperty stores the named value, replacing any previous one.
	SetProperty(name string, v Value)
}

// Element is the generic PropertyMap implementation: an
// insertion-ordered name to value map, so instances round-trip with
// their property order intact.
type Element struct {
	props *ordereddict.Dict
}

// NewElement returns an empty Element.
func NewElement() *Element {
	return &Element{props: ordereddict.NewDict()}
}

// GetProperty implements PropertyMap.
func (e *Element) GetProperty(name string) (Value, bool) {
	raw, ok := e.props.Get(name)
	if !ok {
		return Value{}, false
	}
	v, ok := raw.(Value)
	return v, ok
}

// SetProperty implements PropertyMap.
func (e *Element) SetProperty(name string, v Value) {
	e.props.Set(name, v)
}

// PropertyNames returns the stored property names in insertion order.
func (e *Element) PropertyNames() []string {
	return e.props.Keys()
}

// Len returns the number of stored properties.
func (e *Element) Len() int {
	return e.props.Len()
}
