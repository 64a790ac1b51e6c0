//go:build example

// Package main demonstrates schema building patterns with modelbuilder.
//
// This example shows how to:
// 1. Register entity types by convention from tagged Go structs
// 2. Refine registrations with the explicit configuration API
// 3. Model inheritance with embedded structs and abstract roots
// 4. Declare enum types with duck-typed member discovery
// 5. Bind actions and functions, including overloads
// 6. Attach vocabulary annotations, open types and instance annotations
// 7. Declare geospatial properties
// 8. Build an immutable model snapshot with a stable fingerprint
//
// Note: This is a standalone example file that demonstrates schema building
// concepts. It cannot be run directly with other example files due to
// package conflicts.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"reflect"
	"time"

	modelbuilder "github.com/ElizabethOkerio/ModelBuilder"
)

// Example 1: Convention-Driven Registration
// =========================================

// Address carries no key and backs no entity set, so it registers as a
// complex type wherever it appears.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city" odata:"required"`
	Country string `json:"country" odata:"maxlength=2"`
}

// OrderStatus is a named integer type and registers as an enum type.
type OrderStatus int32

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusShipped
	OrderStatusDelivered
)

// EnumMembers names the enum members for schema discovery.
func (OrderStatus) EnumMembers() map[string]int64 {
	return map[string]int64{
		"Pending":   int64(OrderStatusPending),
		"Shipped":   int64(OrderStatusShipped),
		"Delivered": int64(OrderStatusDelivered),
	}
}

// Product demonstrates the most common field conventions: a key, facets,
// nullability through pointers, an enum property, a complex property, a
// navigation property with a referential constraint, and a dynamic
// property dictionary that makes the type open.
type Product struct {
	ID          int            `json:"id" odata:"key,annotation:Org.OData.Core.V1.Computed=true"`
	Name        string         `json:"name" odata:"required,maxlength=128"`
	Description *string        `json:"description"`
	Price       float64        `json:"price"`
	Status      OrderStatus    `json:"status"`
	ShipFrom    Address        `json:"shipFrom"`
	CategoryID  int            `json:"categoryId"`
	Category    *Category      `json:"category" odata:"foreignKey:CategoryID"`
	Extra       map[string]any `json:"extra"`
}

// Category demonstrates a collection navigation property and the
// duck-typed entity set name override.
type Category struct {
	ID       int       `json:"id" odata:"key"`
	Name     string    `json:"name" odata:"required,maxlength=64"`
	Products []Product `json:"products"`
}

// EntitySetName overrides the pluralized default.
func (Category) EntitySetName() string { return "Catalog" }

func registerByConvention(builder *modelbuilder.ModelBuilder) error {
	// Registering Product pulls in Category, Address and OrderStatus
	// through its fields; registering Category again is a no-op that
	// returns the same configuration.
	if _, err := builder.RegisterEntity(&Product{}); err != nil {
		return err
	}
	if _, err := builder.RegisterEntity(&Category{}); err != nil {
		return err
	}
	return nil
}

// Example 2: Explicit Configuration
// =================================

// Explicit calls refine what conventions produced. Configuration is
// validated before it is applied, so a failed call leaves the schema
// unchanged.

func refineProduct(builder *modelbuilder.ModelBuilder) error {
	product, err := modelbuilder.EntityType[Product](builder)
	if err != nil {
		return err
	}

	// Tighten the price facets beyond what the tags declared.
	ref, err := modelbuilder.PropertyRefOf(reflect.TypeOf(Product{}), "Price")
	if err != nil {
		return err
	}
	price, err := product.AddProperty(ref)
	if err != nil {
		return err
	}
	price.SetPrecision(12).SetScale(2)

	return nil
}

// Example 3: Inheritance and Abstract Roots
// =========================================

// Document declares the key shared by the hierarchy. Embedding it makes
// it the base type of Invoice and Receipt.
type Document struct {
	ID    int    `json:"id" odata:"key"`
	Title string `json:"title" odata:"required"`
}

type Invoice struct {
	Document
	Amount float64 `json:"amount"`
}

type Receipt struct {
	Document
	PaidAt time.Time `json:"paidAt"`
}

func registerHierarchy(builder *modelbuilder.ModelBuilder) error {
	if _, err := builder.RegisterEntity(&Invoice{}); err != nil {
		return err
	}
	if _, err := builder.RegisterEntity(&Receipt{}); err != nil {
		return err
	}

	// The shared root never backs an entity set of its own.
	document, err := modelbuilder.EntityType[Document](builder)
	if err != nil {
		return err
	}
	document.MarkAbstract()

	for _, derived := range builder.DerivedTypesOf(document) {
		fmt.Println("derived from Document:", derived.FullName())
	}
	return nil
}

// Example 4: Singletons
// =====================

// CompanyInfo is exposed as a singleton: exactly one addressable
// instance instead of an entity set.
type CompanyInfo struct {
	ID           int     `json:"id" odata:"key"`
	Name         string  `json:"name"`
	Headquarters Address `json:"headquarters"`
}

func registerSingleton(builder *modelbuilder.ModelBuilder) error {
	_, err := builder.RegisterSingleton(&CompanyInfo{}, "Company")
	return err
}

// Example 5: Actions and Functions
// ================================

func declareOperations(builder *modelbuilder.ModelBuilder) error {
	// A bound action: the binding parameter ties it to Product, the
	// remaining parameters form the call signature.
	rate, err := builder.Action("RateProduct")
	if err != nil {
		return err
	}
	if err := rate.SetBindingParameter("product", reflect.TypeOf(Product{})); err != nil {
		return err
	}
	if _, err := modelbuilder.Parameter[int32](rate, "rating"); err != nil {
		return err
	}

	// An unbound, composable function returning entities from the
	// Products entity set.
	top, err := builder.Function("TopProducts")
	if err != nil {
		return err
	}
	if _, err := modelbuilder.Parameter[int32](top, "count"); err != nil {
		return err
	}
	if err := top.ReturnsCollectionFromEntitySet(reflect.TypeOf(Product{}), "Products"); err != nil {
		return err
	}
	top.SetComposable(true)

	// A second overload with a distinct parameter signature.
	topByCategory, err := builder.Function("TopProducts")
	if err != nil {
		return err
	}
	if _, err := modelbuilder.Parameter[int32](topByCategory, "count"); err != nil {
		return err
	}
	if _, err := modelbuilder.Parameter[string](topByCategory, "categoryName"); err != nil {
		return err
	}
	if err := topByCategory.ReturnsCollectionFromEntitySet(reflect.TypeOf(Product{}), "Products"); err != nil {
		return err
	}
	topByCategory.SetComposable(true)

	return nil
}

// Example 6: Vocabulary and Instance Annotations
// ==============================================

// Review embeds InstanceAnnotations so instances can carry ad-hoc
// annotations alongside their declared properties.
type Review struct {
	modelbuilder.InstanceAnnotations

	ID      int    `json:"id" odata:"key"`
	Rating  int32  `json:"rating"`
	Comment string `json:"comment"`
}

func annotateSchema(builder *modelbuilder.ModelBuilder) error {
	if _, err := builder.RegisterEntity(&Review{}); err != nil {
		return err
	}

	product, err := modelbuilder.EntityType[Product](builder)
	if err != nil {
		return err
	}
	product.Annotations().
		AddTerm("Org.OData.Core.V1.Description", "A sellable item").
		AddTerm("Org.OData.Capabilities.V1.TopSupported", true)

	// Container-level annotations live on the builder itself.
	builder.Annotations().AddTerm("Org.OData.Core.V1.Description", "Retail sample schema")
	return nil
}

// Example 7: Geospatial Properties
// ================================

// Store has a geographic location. Geography properties assume SRID 4326
// unless the srid tag pins another coordinate reference system.
type Store struct {
	ID       int                           `json:"id" odata:"key"`
	Name     string                        `json:"name"`
	Location modelbuilder.GeographyPoint   `json:"location" odata:"srid=4326"`
	Coverage modelbuilder.GeographyPolygon `json:"coverage"`
}

func registerGeospatial(builder *modelbuilder.ModelBuilder) error {
	_, err := builder.RegisterEntity(&Store{})
	return err
}

// Example 8: Building the Model
// =============================

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	builder := modelbuilder.NewModelBuilder()
	builder.SetLogger(logger)

	if err := builder.SetNamespace("Example.Retail"); err != nil {
		log.Fatal(err)
	}
	if err := builder.SetContainerName("RetailContainer"); err != nil {
		log.Fatal(err)
	}

	// Tracer and meter providers are optional; without them telemetry
	// calls are no-ops.
	if err := builder.SetObservability(modelbuilder.ObservabilityConfig{
		ServiceName:    "retail-metadata",
		ServiceVersion: "0.1.0",
	}); err != nil {
		log.Fatal(err)
	}

	steps := []func(*modelbuilder.ModelBuilder) error{
		registerByConvention,
		refineProduct,
		registerHierarchy,
		registerSingleton,
		declareOperations,
		annotateSchema,
		registerGeospatial,
	}
	for _, step := range steps {
		if err := step(builder); err != nil {
			log.Fatal(err)
		}
	}

	model, err := builder.Build(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("namespace:      ", model.Namespace())
	fmt.Println("container:      ", model.ContainerName())
	fmt.Println("entity types:   ", len(model.EntityTypes()))
	fmt.Println("complex types:  ", len(model.ComplexTypes()))
	fmt.Println("enum types:     ", len(model.EnumTypes()))
	fmt.Println("sources:        ", len(model.NavigationSources()))
	fmt.Println("operations:     ", len(model.Operations()))
	fmt.Println("etag:           ", model.ETag())

	for _, source := range model.NavigationSources() {
		fmt.Printf("%s %q exposes %s\n", source.Kind(), source.Name(), source.EntityType().FullName())
	}
}

// Key Takeaways
// =============
//
// 1. Conventions First, Explicit Second
//    - RegisterEntity walks tagged structs and registers everything
//      reachable: bases, complex types, enums, navigation targets
//    - The explicit API refines the result; repeated registration of the
//      same identity returns the existing configuration
//
// 2. Validation Happens at Two Points
//    - Configuration calls validate before mutating, so errors never
//      leave a half-applied schema
//    - Build validates cross-cutting rules (keys on hierarchy roots,
//      parameter collisions, overload signatures) and reports every
//      finding in one joined error
//
// 3. The Built Model Is a Snapshot
//    - Build copies the registrations and freezes a fingerprint
//    - The fingerprint ignores registration order, so equivalent schemas
//      produce identical ETags
