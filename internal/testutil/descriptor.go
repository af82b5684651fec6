// Package testutil provides fixtures shared by package tests.
package testutil

import "github.com/roach88/sysplan/internal/ir"

// DescriptorBuilder assembles ir.Descriptor values for tests.
//
//	d := testutil.System("Move").
//		Components("Position", "Velocity").
//		WithoutTags("Frozen").
//		Build()
type DescriptorBuilder struct {
	d ir.Descriptor
}

// System starts a for_each descriptor for routine.
func System(routine string) *DescriptorBuilder {
	return &DescriptorBuilder{d: ir.Descriptor{
		Kind:    ir.OpForEach,
		Routine: ir.RoutineID(routine),
	}}
}

func (b *DescriptorBuilder) Kind(k ir.OperationKind) *DescriptorBuilder {
	b.d.Kind = k
	return b
}

func (b *DescriptorBuilder) Components(names ...string) *DescriptorBuilder {
	b.d.Components = append(b.d.Components, ids[ir.ComponentID](names)...)
	return b
}

func (b *DescriptorBuilder) WithTags(names ...string) *DescriptorBuilder {
	b.d.WithTags = append(b.d.WithTags, ids[ir.TagID](names)...)
	return b
}

func (b *DescriptorBuilder) WithoutTags(names ...string) *DescriptorBuilder {
	b.d.WithoutTags = append(b.d.WithoutTags, ids[ir.TagID](names)...)
	return b
}

func (b *DescriptorBuilder) With(names ...string) *DescriptorBuilder {
	b.d.WithComponents = append(b.d.WithComponents, ids[ir.ComponentID](names)...)
	return b
}

func (b *DescriptorBuilder) Without(names ...string) *DescriptorBuilder {
	b.d.WithoutComponents = append(b.d.WithoutComponents, ids[ir.ComponentID](names)...)
	return b
}

func (b *DescriptorBuilder) Predicates(names ...string) *DescriptorBuilder {
	b.d.Predicates = append(b.d.Predicates, ids[ir.PredicateID](names)...)
	return b
}

func (b *DescriptorBuilder) Args(args ...string) *DescriptorBuilder {
	b.d.CtorArgs = append(b.d.CtorArgs, ids[ir.CtorArg](args)...)
	return b
}

// At sets the source position reported in diagnostics.
func (b *DescriptorBuilder) At(file string, line, column int) *DescriptorBuilder {
	b.d.Pos = ir.SourcePos{File: file, Line: line, Column: column}
	return b
}

// Build returns the descriptor. The builder may be reused; slices are
// not shared with later calls.
func (b *DescriptorBuilder) Build() ir.Descriptor {
	d := b.d
	d.Components = clone(d.Components)
	d.WithTags = clone(d.WithTags)
	d.WithoutTags = clone(d.WithoutTags)
	d.WithComponents = clone(d.WithComponents)
	d.WithoutComponents = clone(d.WithoutComponents)
	d.Predicates = clone(d.Predicates)
	d.CtorArgs = clone(d.CtorArgs)
	return d
}

// Descriptors builds each builder in order.
func Descriptors(bs ...*DescriptorBuilder) []ir.Descriptor {
	out := make([]ir.Descriptor, len(bs))
	for i, b := range bs {
		out[i] = b.Build()
	}
	return out
}

func ids[T ~string](names []string) []T {
	out := make([]T, len(names))
	for i, n := range names {
		out[i] = T(n)
	}
	return out
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}
