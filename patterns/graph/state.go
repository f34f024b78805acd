package graph

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Policy is the merge rule of a state field.
type Policy int

const (
	// PolicyOverwrite replaces the current value with the fragment's value.
	PolicyOverwrite Policy = iota

	// PolicyAppend concatenates the fragment's slice onto the current slice.
	PolicyAppend
)

func (p Policy) String() string {
	switch p {
	case PolicyOverwrite:
		return "overwrite"
	case PolicyAppend:
		return "append"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Field declares one state field.
//
// Default seeds the field at the start of a run and fixes its Go type: values
// written later must have the same dynamic type. Nil is rejected everywhere. Append fields must default
// to a slice (an empty one is fine). ReadOnly fields can be set from the run
// input but no node may write them.
type Field struct {
	Name     string
	Policy   Policy
	Default  any
	ReadOnly bool
}

// Shape is the set of fields a state may hold.
type Shape struct {
	fields map[string]Field
	order  []string
}

// NewShape validates fields and returns their shape.
func NewShape(fields ...Field) (*Shape, error) {
	shape := &Shape{fields: make(map[string]Field, len(fields))}
	var problems []error
	for _, field := range fields {
		if field.Name == "" {
			problems = append(problems, errors.New("field name must not be empty"))
			continue
		}
		if _, exists := shape.fields[field.Name]; exists {
			problems = append(problems, fmt.Errorf("duplicate field %q", field.Name))
			continue
		}
		if field.Policy == PolicyAppend {
			if field.Default == nil || reflect.TypeOf(field.Default).Kind() != reflect.Slice {
				problems = append(problems, fmt.Errorf("append field %q must default to a slice", field.Name))
				continue
			}
		}
		shape.fields[field.Name] = field
		shape.order = append(shape.order, field.Name)
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	return shape, nil
}

// MustShape is NewShape for package-level declarations; it panics on error.
func MustShape(fields ...Field) *Shape {
	shape, err := NewShape(fields...)
	if err != nil {
		panic(err)
	}
	return shape
}

// Field returns the declaration of name.
func (s *Shape) Field(name string) (Field, bool) {
	field, ok := s.fields[name]
	return field, ok
}

// Names returns field names in declaration order.
func (s *Shape) Names() []string {
	return append([]string(nil), s.order...)
}

// checkValue reports whether value fits the declared type of field. Nil never
// fits, with or without a default.
func (s *Shape) checkValue(field Field, value any) error {
	if value == nil {
		if field.Default == nil {
			return errors.New("value must not be nil")
		}
		return fmt.Errorf("expected %s, got nil", reflect.TypeOf(field.Default))
	}
	if field.Default == nil {
		return nil
	}
	want, got := reflect.TypeOf(field.Default), reflect.TypeOf(value)
	if want != got {
		return fmt.Errorf("expected %s, got %s", want, got)
	}
	return nil
}

// seed returns a state holding every field's default, with values from
// initial applied on top.
func (s *Shape) seed(initial map[string]any) (State, error) {
	state := make(State, len(s.fields))
	for _, name := range s.order {
		if field := s.fields[name]; field.Default != nil {
			state[name] = copyValue(field.Default)
		}
	}

	keys := make([]string, 0, len(initial))
	for key := range initial {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var problems []error
	for _, key := range keys {
		field, ok := s.fields[key]
		if !ok {
			problems = append(problems, fmt.Errorf("unknown field %q", key))
			continue
		}
		if err := s.checkValue(field, initial[key]); err != nil {
			problems = append(problems, fmt.Errorf("field %q: %w", key, err))
			continue
		}
		state[key] = copyValue(initial[key])
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	return state, nil
}

// State is a snapshot of state fields. Nodes receive their own copy; writing
// to it has no effect on the run.
type State map[string]any

// Fragment is the partial state a node returns for the engine to merge.
type Fragment map[string]any

// Get returns state[key] as T. The boolean is false when the key is absent
// or holds another type.
func Get[T any](state State, key string) (T, bool) {
	value, ok := state[key].(T)
	return value, ok
}

// project copies the named fields of source into a new State. Absent fields stay absent.
func project(source State, names []string) State {
	out := make(State, len(names))
	for _, name := range names {
		if value, ok := source[name]; ok {
			out[name] = copyValue(value)
		}
	}
	return out
}

// copyValue detaches slices from their backing array so a snapshot cannot
// alias run state.
func copyValue(value any) any {
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.Kind() != reflect.Slice || v.IsNil() {
		return value
	}
	out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(out, v)
	return out.Interface()
}

// runState is the overall state of one run. It is the only shared mutable
// value of a run; every write goes through merge under mu.
type runState struct {
	mu    sync.Mutex
	shape *Shape
	data  State
}

func newRunState(shape *Shape, input map[string]any) (*runState, error) {
	data, err := shape.seed(input)
	if err != nil {
		return nil, err
	}
	return &runState{shape: shape, data: data}, nil
}

// snapshot returns a copy of the named fields.
func (rs *runState) snapshot(names []string) State {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return project(rs.data, names)
}

// merge applies fragment atomically: either every field is applied or none is.
// writes lists the fields the node may write; required lists overwrite
// fields the node must leave set.
func (rs *runState) merge(nodeName string, fragment Fragment, writes map[string]bool, required []string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	keys := make([]string, 0, len(fragment))
	for key := range fragment {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	staged := make(map[string]any, len(fragment))
	for _, key := range keys {
		field, ok := rs.shape.Field(key)
		if !ok {
			return &MergeError{Node: nodeName, Field: key, Reason: "field not in shape"}
		}
		if !writes[key] {
			return &MergeError{Node: nodeName, Field: key, Reason: "field not declared as written by node"}
		}
		value := fragment[key]

		switch field.Policy {
		case PolicyAppend:
			merged, err := appendValues(rs.data[key], value)
			if err != nil {
				return &MergeError{Node: nodeName, Field: key, Reason: err.Error()}
			}
			staged[key] = merged
		default:
			if err := rs.shape.checkValue(field, value); err != nil {
				return &MergeError{Node: nodeName, Field: key, Reason: err.Error()}
			}
			staged[key] = copyValue(value)
		}
	}

	for _, name := range required {
		if _, written := staged[name]; written {
			continue
		}
		if _, present := rs.data[name]; !present {
			return &MergeError{Node: nodeName, Field: name, Reason: "overwrite field without default was not written"}
		}
	}

	for key, value := range staged {
		rs.data[key] = value
	}
	return nil
}

// appendValues returns current followed by addition in a fresh slice.
func appendValues(current, addition any) (any, error) {
	add := reflect.ValueOf(addition)
	if !add.IsValid() {
		return current, nil
	}
	if add.Kind() != reflect.Slice {
		return nil, fmt.Errorf("append expects a slice, got %s", add.Type())
	}
	cur := reflect.ValueOf(current)
	if !cur.IsValid() {
		return copyValue(addition), nil
	}
	if cur.Type() != add.Type() {
		return nil, fmt.Errorf("expected %s, got %s", cur.Type(), add.Type())
	}
	out := reflect.MakeSlice(cur.Type(), 0, cur.Len()+add.Len())
	out = reflect.AppendSlice(out, cur)
	out = reflect.AppendSlice(out, add)
	return out.Interface(), nil
}
