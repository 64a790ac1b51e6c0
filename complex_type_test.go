package modelbuilder

import (
	"errors"
	"testing"
)

type Measure struct {
	Unit string
}

type WeightMeasure struct {
	Measure
	Kilograms float64
}

func TestComplexTypeHierarchy(t *testing.T) {
	builder := newTestBuilder(t)

	base, err := ComplexType[Measure](builder)
	if err != nil {
		t.Fatalf("ComplexType[Measure]: %v", err)
	}
	derived, err := ComplexType[WeightMeasure](builder)
	if err != nil {
		t.Fatalf("ComplexType[WeightMeasure]: %v", err)
	}

	if err := derived.SetBaseType(nil); !errors.Is(err, ErrNilArgument) {
		t.Errorf("nil base error = %v, want ErrNilArgument", err)
	}
	if err := derived.SetBaseType(base); err != nil {
		t.Fatalf("SetBaseType: %v", err)
	}
	if derived.BaseType() != TypeConfiguration(base) {
		t.Errorf("BaseType = %v, want Measure", derived.BaseType())
	}

	children := builder.DerivedTypesOf(base)
	if len(children) != 1 || children[0] != TypeConfiguration(derived) {
		t.Errorf("DerivedTypesOf = %v, want [WeightMeasure]", children)
	}

	if got := base.MarkAbstract(); got != base {
		t.Error("MarkAbstract must return the receiver")
	}
	if !base.IsAbstract() {
		t.Error("IsAbstract = false after MarkAbstract")
	}

	if got := derived.ClearBaseType(); got != derived {
		t.Error("ClearBaseType must return the receiver")
	}
	if derived.BaseType() != nil {
		t.Error("BaseType survives ClearBaseType")
	}
	if !derived.BaseTypeConfigured() {
		t.Error("ClearBaseType must record the relationship as configured")
	}
	if got := builder.DerivedTypesOf(base); len(got) != 0 {
		t.Errorf("DerivedTypesOf after clearing = %v, want none", got)
	}
}
