package modelbuilder

import (
	"errors"
	"reflect"
	"testing"
)

type PrintState int

func (PrintState) EnumMembers() map[string]int64 {
	return map[string]int64{
		"Queued":    0,
		"Printing":  1,
		"Done":      2,
		"Aborted":   3,
		"Cancelled": 3,
	}
}

type BindingStyle int16

func (*BindingStyle) EnumMembers() map[string]int64 {
	return map[string]int64{
		"Spiral":  1,
		"Perfect": 2,
	}
}

type PaperSize uint16

type PrintOptions uint8

func TestEnumMemberDiscovery(t *testing.T) {
	builder := newTestBuilder(t)

	cfg, err := EnumType[PrintState](builder)
	if err != nil {
		t.Fatalf("EnumType: %v", err)
	}
	// Ordered by value, ties broken by name.
	want := []EnumMember{
		{Name: "Queued", Value: 0},
		{Name: "Printing", Value: 1},
		{Name: "Done", Value: 2},
		{Name: "Aborted", Value: 3},
		{Name: "Cancelled", Value: 3},
	}
	if got := cfg.Members(); !reflect.DeepEqual(got, want) {
		t.Errorf("Members = %v, want %v", got, want)
	}
	if got := cfg.UnderlyingType(); got != PrimitiveKindInt64 {
		t.Errorf("UnderlyingType = %v, want Edm.Int64", got)
	}
}

func TestEnumMemberDiscoveryPointerReceiver(t *testing.T) {
	builder := newTestBuilder(t)

	cfg, err := EnumType[BindingStyle](builder)
	if err != nil {
		t.Fatalf("EnumType: %v", err)
	}
	want := []EnumMember{
		{Name: "Spiral", Value: 1},
		{Name: "Perfect", Value: 2},
	}
	if got := cfg.Members(); !reflect.DeepEqual(got, want) {
		t.Errorf("Members = %v, want %v", got, want)
	}
	if got := cfg.UnderlyingType(); got != PrimitiveKindInt16 {
		t.Errorf("UnderlyingType = %v, want Edm.Int16", got)
	}
}

func TestEnumWithoutMembersMethod(t *testing.T) {
	builder := newTestBuilder(t)

	cfg, err := EnumType[PaperSize](builder)
	if err != nil {
		t.Fatalf("EnumType: %v", err)
	}
	if got := cfg.Members(); len(got) != 0 {
		t.Errorf("Members = %v, want none", got)
	}
	// uint16 values need Edm.Int32 to stay within range.
	if got := cfg.UnderlyingType(); got != PrimitiveKindInt32 {
		t.Errorf("UnderlyingType = %v, want Edm.Int32", got)
	}
}

func TestEnumAddMember(t *testing.T) {
	builder := newTestBuilder(t)
	cfg, err := EnumType[PaperSize](builder)
	if err != nil {
		t.Fatalf("EnumType: %v", err)
	}

	if err := cfg.AddMember("", 1); !errors.Is(err, ErrNilArgument) {
		t.Errorf("empty name error = %v, want ErrNilArgument", err)
	}
	if err := cfg.AddMember("A4", 1); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	// Same value is a no-op, a different value is a conflict.
	if err := cfg.AddMember("A4", 1); err != nil {
		t.Errorf("re-adding with the same value: %v", err)
	}
	if err := cfg.AddMember("A4", 9); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("re-adding with another value error = %v, want ErrInvalidArgument", err)
	}
	if got := len(cfg.Members()); got != 1 {
		t.Errorf("Members has %d entries, want 1", got)
	}

	value, ok := cfg.Member("A4")
	if !ok || value != 1 {
		t.Errorf("Member(A4) = %d, %v", value, ok)
	}
	if _, ok := cfg.Member("Tabloid"); ok {
		t.Error("Member(Tabloid) reported found")
	}
}

func TestEnumRemoveMember(t *testing.T) {
	builder := newTestBuilder(t)
	cfg, err := EnumType[PaperSize](builder)
	if err != nil {
		t.Fatalf("EnumType: %v", err)
	}
	for i, name := range []string{"A4", "Letter", "Legal"} {
		if err := cfg.AddMember(name, int64(i+1)); err != nil {
			t.Fatalf("AddMember(%q): %v", name, err)
		}
	}

	cfg.RemoveMember("Letter")
	want := []EnumMember{
		{Name: "A4", Value: 1},
		{Name: "Legal", Value: 3},
	}
	if got := cfg.Members(); !reflect.DeepEqual(got, want) {
		t.Errorf("Members = %v, want %v", got, want)
	}
	if value, ok := cfg.Member("Legal"); !ok || value != 3 {
		t.Errorf("Member(Legal) = %d, %v after removal", value, ok)
	}

	// Removing an absent member is a no-op.
	cfg.RemoveMember("Tabloid")
	if got := len(cfg.Members()); got != 2 {
		t.Errorf("Members has %d entries, want 2", got)
	}
}

func TestEnumFlags(t *testing.T) {
	builder := newTestBuilder(t)
	cfg, err := EnumType[PrintOptions](builder)
	if err != nil {
		t.Fatalf("EnumType: %v", err)
	}
	if cfg.IsFlags() {
		t.Error("enums start as non-flags")
	}
	if got := cfg.SetFlags(true); got != cfg {
		t.Error("SetFlags must return the receiver")
	}
	if !cfg.IsFlags() {
		t.Error("IsFlags = false after SetFlags(true)")
	}
	if got := cfg.UnderlyingType(); got != PrimitiveKindByte {
		t.Errorf("UnderlyingType = %v, want Edm.Byte", got)
	}
}

func TestEnumNaming(t *testing.T) {
	builder := NewModelBuilder()
	if err := builder.SetNamespace("Publishing.Core"); err != nil {
		t.Fatalf("SetNamespace: %v", err)
	}

	cfg, err := builder.ResolveOrRegisterEnumType(reflect.TypeOf(PrintState(0)))
	if err != nil {
		t.Fatalf("ResolveOrRegisterEnumType: %v", err)
	}
	if cfg.AddedExplicitly() {
		t.Error("resolved enum reported as explicitly added")
	}
	if got := cfg.FullName(); got != "Publishing.Core.PrintState" {
		t.Errorf("FullName = %q", got)
	}

	cfg.SetName("PrintPhase")
	if got := cfg.FullName(); got != "Publishing.Core.PrintPhase" {
		t.Errorf("FullName after SetName = %q", got)
	}
	if !cfg.AddedExplicitly() {
		t.Error("SetName must mark the enum explicitly added")
	}

	cfg.SetNamespace("Publishing.Enums")
	if got := cfg.FullName(); got != "Publishing.Enums.PrintPhase" {
		t.Errorf("FullName after SetNamespace = %q", got)
	}

	// Empty overrides are ignored.
	cfg.SetName("")
	cfg.SetNamespace("")
	if got := cfg.FullName(); got != "Publishing.Enums.PrintPhase" {
		t.Errorf("FullName after empty overrides = %q", got)
	}
}
