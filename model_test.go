package modelbuilder

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

type StockState int32

type StockItem struct {
	ID   int64
	SKU  string
	Name string
}

type Warehouse struct {
	ID   int64
	City string
}

type Bin struct {
	Aisle int32
	Shelf int32
}

type AuditTrail struct {
	Note string
}

type CatalogEntry struct {
	AuditTrail
	Label string
}

func newInventoryBuilder(t *testing.T) *ModelBuilder {
	t.Helper()
	builder := NewModelBuilder()
	if err := builder.SetNamespace("Inventory.Stock"); err != nil {
		t.Fatalf("SetNamespace: %v", err)
	}
	if err := builder.SetContainerName("StockContainer"); err != nil {
		t.Fatalf("SetContainerName: %v", err)
	}
	return builder
}

func addKeyedSet(t *testing.T, builder *ModelBuilder, name string, goType reflect.Type) *EntitySetConfiguration {
	t.Helper()
	set, err := builder.AddEntitySet(name, goType)
	if err != nil {
		t.Fatalf("AddEntitySet(%q): %v", name, err)
	}
	if _, err := set.EntityType().HasKey("ID"); err != nil {
		t.Fatalf("HasKey on %q: %v", name, err)
	}
	return set
}

func TestBuildProducesModel(t *testing.T) {
	builder := newInventoryBuilder(t)
	addKeyedSet(t, builder, "StockItems", reflect.TypeOf(StockItem{}))
	if _, err := ComplexType[Bin](builder); err != nil {
		t.Fatalf("ComplexType: %v", err)
	}
	if _, err := EnumType[StockState](builder); err != nil {
		t.Fatalf("EnumType: %v", err)
	}
	builder.Annotations().AddTerm(CoreDescription, "Warehouse stock schema")

	restock, err := builder.Action("Restock")
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if _, err := Parameter[int32](restock, "quantity"); err != nil {
		t.Fatalf("Parameter: %v", err)
	}
	total, err := builder.Function("TotalOnHand")
	if err != nil {
		t.Fatalf("Function: %v", err)
	}
	if err := total.Returns(reflect.TypeOf(int64(0))); err != nil {
		t.Fatalf("Returns: %v", err)
	}

	model, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := model.Namespace(); got != "Inventory.Stock" {
		t.Errorf("Namespace = %q", got)
	}
	if got := model.ContainerName(); got != "StockContainer" {
		t.Errorf("ContainerName = %q", got)
	}
	if got := len(model.EntityTypes()); got != 1 {
		t.Errorf("EntityTypes has %d entries, want 1", got)
	}
	if got := len(model.ComplexTypes()); got != 1 {
		t.Errorf("ComplexTypes has %d entries, want 1", got)
	}
	if got := len(model.EnumTypes()); got != 1 {
		t.Errorf("EnumTypes has %d entries, want 1", got)
	}
	if _, ok := model.NavigationSource("StockItems"); !ok {
		t.Error("NavigationSource(StockItems) not found")
	}
	if _, ok := model.NavigationSource("Missing"); ok {
		t.Error("NavigationSource(Missing) reported found")
	}

	operations := model.Operations()
	if len(operations) != 2 {
		t.Fatalf("Operations has %d entries, want 2", len(operations))
	}
	if operations[0].Kind() != OperationKindAction || operations[1].Kind() != OperationKindFunction {
		t.Error("Operations must list actions before functions")
	}

	annotations := model.Annotations()
	if len(annotations) != 1 || annotations[0].Term != CoreDescription {
		t.Errorf("Annotations = %v", annotations)
	}

	want := "W/" + strconv.Quote(strconv.FormatUint(model.Fingerprint(), 16))
	if got := model.ETag(); got != want {
		t.Errorf("ETag = %q, want %q", got, want)
	}
}

func TestBuildCollectsAllFindings(t *testing.T) {
	builder := newInventoryBuilder(t)

	// Keyless entity set.
	if _, err := EntitySet[Warehouse](builder, "Warehouses"); err != nil {
		t.Fatalf("EntitySet: %v", err)
	}

	// Function without a return type, also declaring a parameter twice.
	lookup, err := builder.Function("Lookup")
	if err != nil {
		t.Fatalf("Function: %v", err)
	}
	if _, err := Parameter[string](lookup, "sku"); err != nil {
		t.Fatalf("Parameter: %v", err)
	}
	if _, err := Parameter[int32](lookup, "sku"); err != nil {
		t.Fatalf("Parameter: %v", err)
	}

	// Non-binding parameter shadowing the binding parameter.
	audit, err := builder.Action("Audit")
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if err := audit.SetBindingParameter("item", reflect.TypeOf(StockItem{})); err != nil {
		t.Fatalf("SetBindingParameter: %v", err)
	}
	if _, err := Parameter[int64](audit, "item"); err != nil {
		t.Fatalf("Parameter: %v", err)
	}

	// Two overloads that nothing could tell apart.
	for i := 0; i < 2; i++ {
		byState, err := builder.Function("ByState")
		if err != nil {
			t.Fatalf("Function: %v", err)
		}
		if err := byState.Returns(reflect.TypeOf(int64(0))); err != nil {
			t.Fatalf("Returns: %v", err)
		}
	}

	_, err = builder.Build(context.Background())
	if err == nil {
		t.Fatal("Build succeeded with invalid configuration")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	for _, fragment := range []string{
		"declares no key",
		"must declare a return type",
		"more than once",
		"collides with the binding parameter",
		"same parameter signature",
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q is missing finding %q", err, fragment)
		}
	}
}

func TestBuildKeylessAbstractRoots(t *testing.T) {
	t.Run("abstract set type", func(t *testing.T) {
		builder := newInventoryBuilder(t)
		set, err := EntitySet[AuditTrail](builder, "AuditTrails")
		if err != nil {
			t.Fatalf("EntitySet: %v", err)
		}
		set.EntityType().MarkAbstract()
		if _, err := builder.Build(context.Background()); err != nil {
			t.Errorf("Build: %v", err)
		}
	})

	t.Run("abstract root of derived set type", func(t *testing.T) {
		builder := newInventoryBuilder(t)
		trail, err := EntityType[AuditTrail](builder)
		if err != nil {
			t.Fatalf("EntityType: %v", err)
		}
		trail.MarkAbstract()
		entry, err := EntityType[CatalogEntry](builder)
		if err != nil {
			t.Fatalf("EntityType: %v", err)
		}
		if err := entry.SetBaseType(trail); err != nil {
			t.Fatalf("SetBaseType: %v", err)
		}
		if _, err := EntitySet[CatalogEntry](builder, "CatalogEntries"); err != nil {
			t.Fatalf("EntitySet: %v", err)
		}
		if _, err := builder.Build(context.Background()); err != nil {
			t.Errorf("Build: %v", err)
		}
	})
}

func TestBuildRecoversAfterFailure(t *testing.T) {
	builder := newInventoryBuilder(t)
	set, err := EntitySet[Warehouse](builder, "Warehouses")
	if err != nil {
		t.Fatalf("EntitySet: %v", err)
	}

	if _, err := builder.Build(context.Background()); !errors.Is(err, ErrValidation) {
		t.Fatalf("Build error = %v, want ErrValidation", err)
	}

	if _, err := set.EntityType().HasKey("ID"); err != nil {
		t.Fatalf("HasKey: %v", err)
	}
	if _, err := builder.Build(context.Background()); err != nil {
		t.Errorf("Build after fixing the key: %v", err)
	}
}

func TestFingerprintIsOrderIndependent(t *testing.T) {
	first := newInventoryBuilder(t)
	addKeyedSet(t, first, "StockItems", reflect.TypeOf(StockItem{}))
	addKeyedSet(t, first, "Warehouses", reflect.TypeOf(Warehouse{}))

	second := newInventoryBuilder(t)
	addKeyedSet(t, second, "Warehouses", reflect.TypeOf(Warehouse{}))
	addKeyedSet(t, second, "StockItems", reflect.TypeOf(StockItem{}))

	modelA, err := first.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	modelB, err := second.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if modelA.Fingerprint() != modelB.Fingerprint() {
		t.Errorf("fingerprints diverge on registration order: %x vs %x",
			modelA.Fingerprint(), modelB.Fingerprint())
	}
	if modelA.ETag() != modelB.ETag() {
		t.Errorf("ETags diverge: %q vs %q", modelA.ETag(), modelB.ETag())
	}
}

func TestFingerprintReflectsContent(t *testing.T) {
	first := newInventoryBuilder(t)
	addKeyedSet(t, first, "StockItems", reflect.TypeOf(StockItem{}))

	second := newInventoryBuilder(t)
	set := addKeyedSet(t, second, "StockItems", reflect.TypeOf(StockItem{}))
	if _, err := set.EntityType().AddProperty(fieldRef(t, StockItem{}, "SKU")); err != nil {
		t.Fatalf("AddProperty: %v", err)
	}

	modelA, err := first.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	modelB, err := second.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if modelA.Fingerprint() == modelB.Fingerprint() {
		t.Error("models with different properties share a fingerprint")
	}
}

func TestModelViewsAreCopies(t *testing.T) {
	builder := newInventoryBuilder(t)
	addKeyedSet(t, builder, "StockItems", reflect.TypeOf(StockItem{}))

	model, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	entities := model.EntityTypes()
	entities[0] = nil
	if model.EntityTypes()[0] == nil {
		t.Error("EntityTypes must return a copy")
	}

	sources := model.NavigationSources()
	sources[0] = nil
	if model.NavigationSources()[0] == nil {
		t.Error("NavigationSources must return a copy")
	}
}

func TestBuildWithObservability(t *testing.T) {
	builder := newInventoryBuilder(t)
	if builder.Observability() != nil {
		t.Error("fresh builder reports observability")
	}
	if err := builder.SetObservability(ObservabilityConfig{ServiceName: "stock-metadata"}); err != nil {
		t.Fatalf("SetObservability: %v", err)
	}
	if builder.Observability() == nil {
		t.Fatal("Observability = nil after SetObservability")
	}

	addKeyedSet(t, builder, "StockItems", reflect.TypeOf(StockItem{}))
	if _, err := builder.Build(context.Background()); err != nil {
		t.Errorf("Build: %v", err)
	}

	// Validation failures are still reported through the usual error.
	failing := newInventoryBuilder(t)
	if err := failing.SetObservability(ObservabilityConfig{ServiceName: "stock-metadata"}); err != nil {
		t.Fatalf("SetObservability: %v", err)
	}
	if _, err := EntitySet[Warehouse](failing, "Warehouses"); err != nil {
		t.Fatalf("EntitySet: %v", err)
	}
	if _, err := failing.Build(context.Background()); !errors.Is(err, ErrValidation) {
		t.Errorf("Build error = %v, want ErrValidation", err)
	}
}
