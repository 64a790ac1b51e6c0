package modelbuilder

import (
	"errors"
	"reflect"
	"testing"
)

type FuelKind int32

type HugeEnum uint64

type NamedText string

type Vehicle struct {
	ID    int64
	Plate string
	Fuel  FuelKind
}

type Garage struct {
	ID   int64
	Name string
}

type BaseAsset struct{ ID int64 }

type RollingAsset struct {
	BaseAsset
	Wheels int32
}

type TowedAsset struct {
	RollingAsset
	Hitch string
}

func TestNewModelBuilderDefaults(t *testing.T) {
	builder := NewModelBuilder()

	if got := builder.Namespace(); got != DefaultNamespace {
		t.Errorf("Namespace = %q, want %q", got, DefaultNamespace)
	}
	if got := builder.ContainerName(); got != DefaultContainerName {
		t.Errorf("ContainerName = %q, want %q", got, DefaultContainerName)
	}
	if builder.HasExplicitNamespace() {
		t.Error("HasExplicitNamespace = true on a fresh builder")
	}
}

func TestSetNamespace(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		wantErr   error
	}{
		{"single identifier", "Fleet", nil},
		{"dotted identifiers", "Fleet.Ops.Assets", nil},
		{"empty", "", ErrNilArgument},
		{"embedded space", "Fleet Ops", ErrInvalidArgument},
		{"empty segment", "Fleet..Ops", ErrInvalidArgument},
		{"leading digit", "1Fleet", ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewModelBuilder()
			err := builder.SetNamespace(tt.namespace)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if builder.HasExplicitNamespace() {
					t.Error("failed SetNamespace must not mark the namespace explicit")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetNamespace: %v", err)
			}
			if got := builder.Namespace(); got != tt.namespace {
				t.Errorf("Namespace = %q, want %q", got, tt.namespace)
			}
			if !builder.HasExplicitNamespace() {
				t.Error("HasExplicitNamespace = false after SetNamespace")
			}
		})
	}
}

func TestSetContainerName(t *testing.T) {
	builder := NewModelBuilder()

	if err := builder.SetContainerName(""); !errors.Is(err, ErrNilArgument) {
		t.Errorf("empty name error = %v, want ErrNilArgument", err)
	}
	if err := builder.SetContainerName("My Container"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("invalid name error = %v, want ErrInvalidArgument", err)
	}
	if err := builder.SetContainerName("FleetContainer"); err != nil {
		t.Fatalf("SetContainerName: %v", err)
	}
	if got := builder.ContainerName(); got != "FleetContainer" {
		t.Errorf("ContainerName = %q, want %q", got, "FleetContainer")
	}
}

func TestResolveOrRegisterIsIdempotent(t *testing.T) {
	builder := newTestBuilder(t)
	goType := reflect.TypeOf(Vehicle{})

	first, err := builder.ResolveOrRegisterEntityType(goType)
	if err != nil {
		t.Fatalf("ResolveOrRegisterEntityType: %v", err)
	}
	second, err := builder.ResolveOrRegisterEntityType(reflect.TypeOf(&Vehicle{}))
	if err != nil {
		t.Fatalf("ResolveOrRegisterEntityType with pointer: %v", err)
	}
	if first != second {
		t.Error("pointer and value types resolved to different configurations")
	}
	if got := len(builder.EntityTypes()); got != 1 {
		t.Errorf("EntityTypes has %d entries, want 1", got)
	}
}

func TestTypeKindConflicts(t *testing.T) {
	t.Run("entity then complex", func(t *testing.T) {
		builder := newTestBuilder(t)
		if _, err := builder.ResolveOrRegisterEntityType(reflect.TypeOf(Vehicle{})); err != nil {
			t.Fatalf("register entity: %v", err)
		}
		if _, err := builder.ResolveOrRegisterComplexType(reflect.TypeOf(Vehicle{})); !errors.Is(err, ErrTypeKindConflict) {
			t.Errorf("error = %v, want ErrTypeKindConflict", err)
		}
	})

	t.Run("complex then entity", func(t *testing.T) {
		builder := newTestBuilder(t)
		if _, err := builder.ResolveOrRegisterComplexType(reflect.TypeOf(Garage{})); err != nil {
			t.Fatalf("register complex: %v", err)
		}
		if _, err := builder.ResolveOrRegisterEntityType(reflect.TypeOf(Garage{})); !errors.Is(err, ErrTypeKindConflict) {
			t.Errorf("error = %v, want ErrTypeKindConflict", err)
		}
	})

	t.Run("enum then entity", func(t *testing.T) {
		builder := newTestBuilder(t)
		if _, err := builder.ResolveOrRegisterEnumType(reflect.TypeOf(FuelKind(0))); err != nil {
			t.Fatalf("register enum: %v", err)
		}
		if _, err := builder.ResolveOrRegisterEntityType(reflect.TypeOf(FuelKind(0))); !errors.Is(err, ErrTypeKindConflict) {
			t.Errorf("error = %v, want ErrTypeKindConflict", err)
		}
	})

	t.Run("entity then enum", func(t *testing.T) {
		builder := newTestBuilder(t)
		if _, err := builder.ResolveOrRegisterEntityType(reflect.TypeOf(Vehicle{})); err != nil {
			t.Fatalf("register entity: %v", err)
		}
		if _, err := builder.ResolveOrRegisterEnumType(reflect.TypeOf(Vehicle{})); !errors.Is(err, ErrTypeKindConflict) {
			t.Errorf("error = %v, want ErrTypeKindConflict", err)
		}
	})
}

func TestResolveOrRegisterShapeChecks(t *testing.T) {
	builder := newTestBuilder(t)

	if _, err := builder.ResolveOrRegisterEntityType(nil); !errors.Is(err, ErrNilArgument) {
		t.Errorf("nil entity type error = %v, want ErrNilArgument", err)
	}
	if _, err := builder.ResolveOrRegisterEntityType(reflect.TypeOf(42)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("int entity type error = %v, want ErrInvalidArgument", err)
	}
	if _, err := builder.ResolveOrRegisterEnumType(reflect.TypeOf(NamedText(""))); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("named string enum error = %v, want ErrInvalidArgument", err)
	}
	// uint64 has no signed EDM integer wide enough to hold all members.
	if _, err := builder.ResolveOrRegisterEnumType(reflect.TypeOf(HugeEnum(0))); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("uint64 enum error = %v, want ErrInvalidArgument", err)
	}
}

func TestGetTypeConfiguration(t *testing.T) {
	builder := newTestBuilder(t)

	if got := builder.GetTypeConfiguration(nil); got != nil {
		t.Errorf("GetTypeConfiguration(nil) = %v, want nil", got)
	}
	if got := builder.GetTypeConfiguration(reflect.TypeOf(Vehicle{})); got != nil {
		t.Errorf("unregistered type = %v, want nil", got)
	}

	entity, err := builder.AddEntityType(reflect.TypeOf(Vehicle{}))
	if err != nil {
		t.Fatalf("AddEntityType: %v", err)
	}
	if got := builder.GetTypeConfiguration(reflect.TypeOf(Vehicle{})); got != TypeConfiguration(entity) {
		t.Errorf("GetTypeConfiguration = %v, want the registered entity", got)
	}
	if got := builder.GetEnumConfiguration(reflect.TypeOf(FuelKind(0))); got != nil {
		t.Errorf("unregistered enum = %v, want nil", got)
	}
}

func TestDerivedTypesOf(t *testing.T) {
	builder := newTestBuilder(t)

	base, err := EntityType[BaseAsset](builder)
	if err != nil {
		t.Fatalf("EntityType[BaseAsset]: %v", err)
	}
	rolling, err := EntityType[RollingAsset](builder)
	if err != nil {
		t.Fatalf("EntityType[RollingAsset]: %v", err)
	}
	towed, err := EntityType[TowedAsset](builder)
	if err != nil {
		t.Fatalf("EntityType[TowedAsset]: %v", err)
	}
	if err := rolling.SetBaseType(base); err != nil {
		t.Fatalf("SetBaseType(rolling): %v", err)
	}
	if err := towed.SetBaseType(rolling); err != nil {
		t.Fatalf("SetBaseType(towed): %v", err)
	}

	derived := builder.DerivedTypesOf(base)
	if len(derived) != 2 || derived[0] != TypeConfiguration(rolling) || derived[1] != TypeConfiguration(towed) {
		t.Errorf("DerivedTypesOf(base) = %v, want [RollingAsset TowedAsset]", derived)
	}
	if got := builder.DerivedTypesOf(rolling); len(got) != 1 || got[0] != TypeConfiguration(towed) {
		t.Errorf("DerivedTypesOf(rolling) = %v, want [TowedAsset]", got)
	}
	if got := builder.DerivedTypesOf(nil); got != nil {
		t.Errorf("DerivedTypesOf(nil) = %v, want nil", got)
	}
}

func TestDerivedTypesOfFollowsEmbedding(t *testing.T) {
	builder := newTestBuilder(t)

	base, err := EntityType[BaseAsset](builder)
	if err != nil {
		t.Fatalf("EntityType[BaseAsset]: %v", err)
	}
	rolling, err := EntityType[RollingAsset](builder)
	if err != nil {
		t.Fatalf("EntityType[RollingAsset]: %v", err)
	}

	// Without an explicit base type, struct embedding decides.
	derived := builder.DerivedTypesOf(base)
	if len(derived) != 1 || derived[0] != TypeConfiguration(rolling) {
		t.Errorf("DerivedTypesOf = %v, want [RollingAsset]", derived)
	}
}

func TestAddEntitySet(t *testing.T) {
	builder := newTestBuilder(t)

	set, err := builder.AddEntitySet("Vehicles", reflect.TypeOf(Vehicle{}))
	if err != nil {
		t.Fatalf("AddEntitySet: %v", err)
	}
	if set.Name() != "Vehicles" {
		t.Errorf("Name = %q, want %q", set.Name(), "Vehicles")
	}
	if builder.GetTypeConfiguration(reflect.TypeOf(Vehicle{})) == nil {
		t.Error("AddEntitySet did not register the entity type")
	}

	// Re-binding the same name to the same type returns the existing set.
	again, err := builder.AddEntitySet("Vehicles", reflect.TypeOf(Vehicle{}))
	if err != nil {
		t.Fatalf("AddEntitySet again: %v", err)
	}
	if again != set {
		t.Error("re-binding returned a different configuration")
	}

	if _, err := builder.AddEntitySet("Vehicles", reflect.TypeOf(Garage{})); !errors.Is(err, ErrNavigationSourceConflict) {
		t.Errorf("different type error = %v, want ErrNavigationSourceConflict", err)
	}
	if _, err := builder.AddSingleton("Vehicles", reflect.TypeOf(Vehicle{})); !errors.Is(err, ErrNavigationSourceConflict) {
		t.Errorf("singleton over entity set error = %v, want ErrNavigationSourceConflict", err)
	}
	if _, err := builder.AddEntitySet("", reflect.TypeOf(Vehicle{})); !errors.Is(err, ErrNilArgument) {
		t.Errorf("empty name error = %v, want ErrNilArgument", err)
	}
	if _, err := builder.AddEntitySet("Empty", nil); !errors.Is(err, ErrNilArgument) {
		t.Errorf("nil type error = %v, want ErrNilArgument", err)
	}
}

func TestBindNavigationSource(t *testing.T) {
	builder := newTestBuilder(t)

	source, err := builder.BindNavigationSource("Vehicles", reflect.TypeOf(Vehicle{}))
	if err != nil {
		t.Fatalf("BindNavigationSource: %v", err)
	}
	if source.Kind() != NavigationSourceKindEntitySet {
		t.Errorf("Kind = %v, want entity set", source.Kind())
	}

	if _, err := builder.AddSingleton("Home", reflect.TypeOf(Garage{})); err != nil {
		t.Fatalf("AddSingleton: %v", err)
	}
	if _, err := builder.BindNavigationSource("Home", reflect.TypeOf(Garage{})); !errors.Is(err, ErrNavigationSourceConflict) {
		t.Errorf("binding a singleton name error = %v, want ErrNavigationSourceConflict", err)
	}
}

func TestGenericRegistrationHelpers(t *testing.T) {
	builder := newTestBuilder(t)

	entity, err := EntityType[Vehicle](builder)
	if err != nil {
		t.Fatalf("EntityType: %v", err)
	}
	if !entity.AddedExplicitly() {
		t.Error("EntityType did not mark the type explicitly added")
	}

	complexType, err := ComplexType[Garage](builder)
	if err != nil {
		t.Fatalf("ComplexType: %v", err)
	}
	if !complexType.AddedExplicitly() {
		t.Error("ComplexType did not mark the type explicitly added")
	}

	enumType, err := EnumType[FuelKind](builder)
	if err != nil {
		t.Fatalf("EnumType: %v", err)
	}
	if !enumType.AddedExplicitly() {
		t.Error("EnumType did not mark the type explicitly added")
	}

	if _, err := EntitySet[Vehicle](builder, "Motorpool"); err != nil {
		t.Fatalf("EntitySet: %v", err)
	}
	if _, ok := builder.NavigationSource("Motorpool"); !ok {
		t.Error("EntitySet did not register the navigation source")
	}
}

func TestStructuralTypesOrder(t *testing.T) {
	builder := newTestBuilder(t)

	if _, err := EntityType[Vehicle](builder); err != nil {
		t.Fatalf("EntityType: %v", err)
	}
	if _, err := ComplexType[Garage](builder); err != nil {
		t.Fatalf("ComplexType: %v", err)
	}
	if _, err := EntityType[BaseAsset](builder); err != nil {
		t.Fatalf("EntityType: %v", err)
	}

	var got []string
	for _, cfg := range builder.StructuralTypes() {
		got = append(got, cfg.Name())
	}
	want := []string{"Vehicle", "BaseAsset", "Garage"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StructuralTypes order = %v, want %v", got, want)
	}
}

func TestActionAndFunctionRegistration(t *testing.T) {
	builder := newTestBuilder(t)

	if _, err := builder.Action(""); !errors.Is(err, ErrNilArgument) {
		t.Errorf("empty action name error = %v, want ErrNilArgument", err)
	}
	if _, err := builder.Action("Bad Name"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("invalid action name error = %v, want ErrInvalidArgument", err)
	}
	if _, err := builder.Function("Bad.Name"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("invalid function name error = %v, want ErrInvalidArgument", err)
	}

	// Registering the same name twice declares an overload.
	if _, err := builder.Action("Refuel"); err != nil {
		t.Fatalf("Action: %v", err)
	}
	if _, err := builder.Action("Refuel"); err != nil {
		t.Fatalf("Action overload: %v", err)
	}
	if got := len(builder.Actions()); got != 2 {
		t.Errorf("Actions has %d entries, want 2", got)
	}

	if _, err := builder.Function("MileageSince"); err != nil {
		t.Fatalf("Function: %v", err)
	}

	operations := builder.Operations()
	if len(operations) != 3 {
		t.Fatalf("Operations has %d entries, want 3", len(operations))
	}
	if operations[0].Kind() != OperationKindAction || operations[2].Kind() != OperationKindFunction {
		t.Error("Operations must list actions before functions")
	}
}
