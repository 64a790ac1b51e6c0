package modelbuilder

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/ElizabethOkerio/ModelBuilder/internal/naming"
	"gorm.io/gorm/schema"
)

// RegisterEntity registers the struct behind instance as an entity type,
// derives all of its properties from the struct's fields and tags, and
// exposes it under an entity set.
//
// Field mapping follows the struct shape: pointer fields are nullable,
// slices of structs become collection-valued navigation properties,
// struct fields become complex properties unless a relationship marker
// says otherwise, named integer types become enumeration types, and
// interface{} fields stay untyped. A `map[string]interface{}` field makes
// the type open, and a field implementing InstanceAnnotationContainer
// becomes the type's annotation container. Anonymous embedded structs
// form the base type chain. Struct types reached through properties are
// registered and walked transitively.
//
// Recognized `odata` tag parts: `-` (ignore the field), `key`,
// `required`, `nullable`, `nullable=false`, `maxlength=`, `precision=`,
// `scale=`, `default=`, `flags`, `enum=Name`, `contained`, `embedded`,
// `foreignKey:Field`, `references:Field`, `many2many:Name` and
// `annotation:Term=Value`. A gorm tag contributes `not null`, `default`
// and relationship markers when present.
//
// The entity set name comes from a duck-typed `EntitySetName() string`
// method when the type has one, otherwise the type name is pluralized.
//
// # Example
//
//	type Product struct {
//	    ID          int       `json:"id" odata:"key"`
//	    Name        string    `json:"name" odata:"required,maxlength=80"`
//	    Description *string   `json:"description"`
//	    CategoryID  int       `json:"categoryId"`
//	    Category    *Category `json:"category" odata:"foreignKey:CategoryID"`
//	}
//
//	product, err := builder.RegisterEntity(&Product{})
//	if err != nil {
//	    log.Fatal(err)
//	}
func (b *ModelBuilder) RegisterEntity(instance any) (*EntityTypeConfiguration, error) {
	entityType, err := structTypeOf(instance)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze entity: %w", err)
	}
	if b.observability != nil {
		_, span := b.observability.Tracer().StartRegistration(context.Background(), "entity", entityType.Name())
		defer span.End()
	}
	entity, err := b.applyEntityConventions(entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze entity: %w", err)
	}

	setName := entitySetNameOf(entityType)
	if _, err := b.AddEntitySet(setName, entityType); err != nil {
		return nil, err
	}

	b.logger.Debug("Registered entity",
		"entity", entity.Name(),
		"entitySet", setName)
	return entity, nil
}

// RegisterSingleton registers the struct behind instance as an entity
// type following the same conventions as RegisterEntity, and exposes it
// under a named singleton instead of an entity set.
//
// # Example
//
//	company, err := builder.RegisterSingleton(&Company{}, "Company")
//	if err != nil {
//	    log.Fatal(err)
//	}
func (b *ModelBuilder) RegisterSingleton(instance any, singletonName string) (*EntityTypeConfiguration, error) {
	if singletonName == "" {
		return nil, nilArg("singleton name")
	}
	entityType, err := structTypeOf(instance)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze singleton: %w", err)
	}
	if b.observability != nil {
		_, span := b.observability.Tracer().StartRegistration(context.Background(), "entity", entityType.Name())
		defer span.End()
	}
	entity, err := b.applyEntityConventions(entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze singleton: %w", err)
	}

	if _, err := b.AddSingleton(singletonName, entityType); err != nil {
		return nil, err
	}

	b.logger.Debug("Registered singleton",
		"entity", entity.Name(),
		"singleton", singletonName)
	return entity, nil
}

// RegisterComplexType registers the struct behind instance as a complex
// type and derives its properties the same way RegisterEntity does,
// except that complex types carry no keys and no entity set.
func (b *ModelBuilder) RegisterComplexType(instance any) (*ComplexTypeConfiguration, error) {
	structType, err := structTypeOf(instance)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze complex type: %w", err)
	}
	if b.observability != nil {
		_, span := b.observability.Tracer().StartRegistration(context.Background(), "complex", structType.Name())
		defer span.End()
	}
	complexType, err := b.applyComplexConventions(structType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze complex type: %w", err)
	}
	return complexType, nil
}

// structTypeOf extracts the struct type behind an instance, dereferencing
// one pointer level.
func structTypeOf(instance any) (reflect.Type, error) {
	if instance == nil {
		return nil, nilArg("entity instance")
	}
	entityType := reflect.TypeOf(instance)
	if entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}
	if entityType.Kind() != reflect.Struct {
		return nil, enrich(ErrInvalidArgument, "entity must be a struct, got %s", entityType.Kind())
	}
	return entityType, nil
}

// applyEntityConventions registers the struct type as an entity type and
// walks its fields once. Embedded structs are registered first so the
// base type link exists before derived properties are validated against
// the hierarchy.
func (b *ModelBuilder) applyEntityConventions(structType reflect.Type) (*EntityTypeConfiguration, error) {
	entity, err := b.ResolveOrRegisterEntityType(structType)
	if err != nil {
		return nil, err
	}
	if b.conventioned[structType] {
		return entity, nil
	}
	// Mark before walking so embedding and navigation cycles terminate.
	b.conventioned[structType] = true

	sawOwnID := false
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous {
			if err := b.applyEmbeddedField(entity.structural(), structType, field, TypeKindEntity); err != nil {
				return nil, err
			}
			continue
		}
		if field.Name == "ID" {
			sawOwnID = true
		}
		isKey, err := b.applyFieldConventions(entity.structural(), structType, field)
		if err != nil {
			return nil, err
		}
		if isKey {
			if _, err := entity.HasKey(field.Name); err != nil {
				return nil, err
			}
		}
	}

	// Without an explicit key tag, a root type's own ID field is the key.
	if entity.BaseType() == nil && len(entity.Keys()) == 0 && sawOwnID {
		if _, err := entity.HasKey("ID"); err != nil {
			return nil, err
		}
	}
	return entity, nil
}

// applyComplexConventions registers the struct type as a complex type and
// walks its fields once. Key tags are ignored; complex types have no
// identity of their own.
func (b *ModelBuilder) applyComplexConventions(structType reflect.Type) (*ComplexTypeConfiguration, error) {
	complexType, err := b.ResolveOrRegisterComplexType(structType)
	if err != nil {
		return nil, err
	}
	if b.conventioned[structType] {
		return complexType, nil
	}
	b.conventioned[structType] = true

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous {
			if err := b.applyEmbeddedField(complexType.structural(), structType, field, TypeKindComplex); err != nil {
				return nil, err
			}
			continue
		}
		isKey, err := b.applyFieldConventions(complexType.structural(), structType, field)
		if err != nil {
			return nil, err
		}
		if isKey {
			b.logger.Warn("Ignoring key tag on complex type field",
				"complexType", complexType.Name(),
				"field", field.Name)
		}
	}
	return complexType, nil
}

// applyEmbeddedField maps an anonymous field. Container types keep their
// container role, the first embedded plain struct becomes the base type,
// and any further embedded structs are kept as complex properties under
// the embedded type's name.
func (b *ModelBuilder) applyEmbeddedField(target *StructuralTypeConfiguration, structType reflect.Type, field reflect.StructField, kind TypeKind) error {
	if tag := field.Tag.Get("odata"); tag == "-" {
		return target.RemoveProperty(propertyRefOfField(structType, field))
	}
	if isDynamicPropertyDictionary(field.Type) {
		return target.AddDynamicPropertyDictionary(propertyRefOfField(structType, field))
	}
	if isInstanceAnnotationContainer(field.Type) {
		return target.AddInstanceAnnotationContainer(propertyRefOfField(structType, field))
	}

	embeddedType, _ := stripNullable(field.Type)
	if embeddedType.Kind() != reflect.Struct || isPrimitiveStruct(embeddedType) {
		// Embedded non-struct types carry no promoted fields worth
		// modeling; treat them as regular properties.
		_, err := b.applyFieldConventions(target, structType, field)
		return err
	}

	if target.BaseType() == nil && !target.BaseTypeConfigured() {
		if kind == TypeKindEntity {
			base, err := b.applyEntityConventions(embeddedType)
			if err != nil {
				return err
			}
			return target.setBaseType(base)
		}
		base, err := b.applyComplexConventions(embeddedType)
		if err != nil {
			return err
		}
		return target.setBaseType(base)
	}

	if _, err := target.AddComplexProperty(propertyRefOfField(structType, field)); err != nil {
		return err
	}
	_, err := b.applyComplexConventions(embeddedType)
	return err
}

// applyFieldConventions classifies one declared field and registers the
// matching property kind, then applies tag-driven facets, nullability and
// annotations. It reports whether the field carried a key tag; key
// registration is the caller's concern because only entity types have
// keys.
func (b *ModelBuilder) applyFieldConventions(target *StructuralTypeConfiguration, structType reflect.Type, field reflect.StructField) (bool, error) {
	tags, err := parseFieldTags(field)
	if err != nil {
		return false, err
	}
	ref := propertyRefOfField(structType, field)

	if tags.skip {
		return false, target.RemoveProperty(ref)
	}

	// Container designations claim the field before value classification.
	if isDynamicPropertyDictionary(field.Type) {
		return false, target.AddDynamicPropertyDictionary(ref)
	}
	if isInstanceAnnotationContainer(field.Type) {
		return false, target.AddInstanceAnnotationContainer(ref)
	}

	underlying, _ := stripNullable(field.Type)

	var property structuralProperty
	switch {
	case isUntypedMarker(underlying):
		untyped, err := target.AddUntypedProperty(ref)
		if err != nil {
			return false, err
		}
		property = untyped

	case isEnumCandidate(underlying):
		enum, err := target.AddEnumProperty(ref)
		if err != nil {
			return false, err
		}
		if tags.enumName != "" {
			enum.EnumType().SetName(tags.enumName)
		}
		if tags.isFlags {
			enum.EnumType().SetFlags(true)
		}
		property = enum

	case isPrimitiveType(underlying):
		primitive, err := target.AddProperty(ref)
		if err != nil {
			return false, err
		}
		applyPrimitiveFacets(primitive, tags)
		property = primitive

	case underlying.Kind() == reflect.Slice || underlying.Kind() == reflect.Array:
		elemType, _ := stripNullable(underlying.Elem())
		if elemType.Kind() == reflect.Struct && !isPrimitiveStruct(elemType) && !tags.embedded {
			return tags.isKey, b.addNavigationFromField(target, ref, MultiplicityMany, tags)
		}
		collection, err := target.AddCollectionProperty(ref)
		if err != nil {
			return false, err
		}
		if elemType.Kind() == reflect.Struct && !isPrimitiveStruct(elemType) {
			if _, err := b.applyComplexConventions(elemType); err != nil {
				return false, err
			}
		}
		property = collection

	case underlying.Kind() == reflect.Struct:
		if tags.hasRelationshipMarker() {
			multiplicity := MultiplicityOne
			if field.Type.Kind() == reflect.Ptr {
				multiplicity = MultiplicityZeroOrOne
			}
			return tags.isKey, b.addNavigationFromField(target, ref, multiplicity, tags)
		}
		complexProp, err := target.AddComplexProperty(ref)
		if err != nil {
			return false, err
		}
		if _, err := b.applyComplexConventions(underlying); err != nil {
			return false, err
		}
		property = complexProp

	default:
		b.logger.Warn("Skipping field with unsupported type",
			"type", target.Name(),
			"field", field.Name,
			"fieldType", field.Type.String())
		return false, nil
	}

	if err := finishProperty(property, field, tags); err != nil {
		return false, err
	}
	return tags.isKey, nil
}

// addNavigationFromField registers a navigation property, its referential
// constraints, and walks the target entity type.
func (b *ModelBuilder) addNavigationFromField(target *StructuralTypeConfiguration, ref PropertyRef, multiplicity Multiplicity, tags fieldTags) error {
	var property *NavigationPropertyConfiguration
	var err error
	if tags.contained {
		property, err = target.AddContainedNavigationProperty(ref, multiplicity)
	} else {
		property, err = target.AddNavigationProperty(ref, multiplicity)
	}
	if err != nil {
		return err
	}

	// many2many relationships express their join through a separate
	// structure, not a dependent property pair.
	if tags.foreignKey != "" && tags.many2many == "" {
		references := tags.references
		if references == "" {
			references = "ID"
		}
		property.AddReferentialConstraint(tags.foreignKey, references)
	}
	applyAnnotations(property.Annotations(), tags)

	if tags.jsonName != "" && tags.jsonName != ref.Name {
		property.SetName(tags.jsonName)
	}

	_, err = b.applyEntityConventions(property.Target().GoType())
	return err
}

// structuralProperty is the mutation surface shared by every property
// configuration the conventions produce.
type structuralProperty interface {
	PropertyConfiguration
	SetName(name string)
	setNullable(nullable bool)
}

// finishProperty applies the tag-driven state that is independent of the
// property kind: nullability, schema name and vocabulary annotations.
func finishProperty(property structuralProperty, field reflect.StructField, tags fieldTags) error {
	nullable, err := resolveNullability(field, tags)
	if err != nil {
		return err
	}
	if nullable != nil {
		property.setNullable(*nullable)
	}
	if tags.jsonName != "" && tags.jsonName != field.Name {
		property.SetName(tags.jsonName)
	}
	applyAnnotations(property.Annotations(), tags)
	return nil
}

// applyPrimitiveFacets transfers tag facets onto a primitive property.
func applyPrimitiveFacets(property *PrimitivePropertyConfiguration, tags fieldTags) {
	if tags.maxLength > 0 {
		property.SetMaxLength(tags.maxLength)
	}
	if tags.precision > 0 {
		property.SetPrecision(tags.precision)
	}
	if tags.scale > 0 {
		property.SetScale(tags.scale)
	}
	if tags.srid != nil {
		property.SetSRID(*tags.srid)
	}
	if tags.hasDefault {
		property.SetDefaultValue(tags.defaultValue)
	}
}

// resolveNullability reconciles explicit nullable tags and required
// markers with the Go field shape. A nil result keeps the shape-derived
// default. An explicit nullable tag on a type that cannot hold nil is an
// error rather than silently wrong metadata.
func resolveNullability(field reflect.StructField, tags fieldTags) (*bool, error) {
	if tags.nullable != nil {
		if *tags.nullable && !isNilable(field.Type) {
			return nil, enrich(ErrInvalidArgument,
				"property %s is marked nullable but has non-nullable Go type %s (use *%s to make it nullable)",
				field.Name, field.Type, field.Type)
		}
		return tags.nullable, nil
	}
	if tags.isRequired {
		value := false
		return &value, nil
	}
	return nil, nil
}

func applyAnnotations(collection *AnnotationCollection, tags fieldTags) {
	for _, annotation := range tags.annotations {
		collection.Add(annotation)
	}
}

// isPrimitiveType reports whether the type maps to a primitive kind.
func isPrimitiveType(t reflect.Type) bool {
	_, ok := primitiveKindOf(t)
	return ok
}

// isPrimitiveStruct reports whether a struct type is claimed by an exact
// primitive mapping, such as time.Time, and therefore never classifies as
// a complex type or navigation target.
func isPrimitiveStruct(t reflect.Type) bool {
	_, ok := primitivesByType[t]
	return ok
}

// fieldTags carries the parsed odata, json and gorm tag state for one
// struct field.
type fieldTags struct {
	skip     bool
	jsonName string

	isKey      bool
	isRequired bool
	nullable   *bool

	maxLength    int
	precision    int
	scale        int
	srid         *int
	defaultValue string
	hasDefault   bool

	enumName string
	isFlags  bool

	contained  bool
	embedded   bool
	foreignKey string
	references string
	many2many  string

	annotations []Annotation
}

func (t *fieldTags) hasRelationshipMarker() bool {
	return t.foreignKey != "" || t.references != "" || t.many2many != ""
}

func parseFieldTags(field reflect.StructField) (fieldTags, error) {
	tags := fieldTags{jsonName: jsonNameOf(field)}

	odataTag := field.Tag.Get("odata")
	if odataTag == "-" {
		tags.skip = true
		return tags, nil
	}
	if odataTag != "" {
		for _, part := range strings.Split(odataTag, ",") {
			if err := tags.applyODataPart(strings.TrimSpace(part)); err != nil {
				return tags, fmt.Errorf("field %s: %w", field.Name, err)
			}
		}
	}

	if gormTag := field.Tag.Get("gorm"); gormTag != "" {
		tags.applyGormSettings(schema.ParseTagSetting(gormTag, ";"))
	}
	return tags, nil
}

func (t *fieldTags) applyODataPart(part string) error {
	switch {
	case part == "":
	case part == "key":
		t.isKey = true
	case part == "required":
		t.isRequired = true
	case part == "nullable":
		value := true
		t.nullable = &value
	case part == "nullable=false":
		value := false
		t.nullable = &value
	case strings.HasPrefix(part, "maxlength="):
		t.maxLength = parseIntFacet(part, "maxlength=")
	case strings.HasPrefix(part, "precision="):
		t.precision = parseIntFacet(part, "precision=")
	case strings.HasPrefix(part, "scale="):
		t.scale = parseIntFacet(part, "scale=")
	case strings.HasPrefix(part, "srid="):
		// Zero is a meaningful identifier, keep presence separate.
		if value, err := strconv.Atoi(strings.TrimPrefix(part, "srid=")); err == nil && value >= 0 {
			t.srid = &value
		}
	case strings.HasPrefix(part, "default="):
		t.defaultValue = strings.TrimPrefix(part, "default=")
		t.hasDefault = true
	case strings.HasPrefix(part, "enum="):
		t.enumName = strings.TrimPrefix(part, "enum=")
	case part == "flags":
		t.isFlags = true
	case part == "contained":
		t.contained = true
	case part == "embedded":
		t.embedded = true
	case strings.HasPrefix(part, "foreignKey:"):
		t.foreignKey = strings.TrimPrefix(part, "foreignKey:")
	case strings.HasPrefix(part, "references:"):
		t.references = strings.TrimPrefix(part, "references:")
	case strings.HasPrefix(part, "many2many:"):
		t.many2many = strings.TrimPrefix(part, "many2many:")
	case strings.HasPrefix(part, "annotation:"):
		annotation, err := ParseAnnotationTag(strings.TrimPrefix(part, "annotation:"))
		if err != nil {
			return fmt.Errorf("invalid annotation tag %q: %w", part, err)
		}
		t.annotations = append(t.annotations, annotation)
	default:
		// Unknown parts are ignored; tags may carry hints for other layers.
	}
	return nil
}

// applyGormSettings folds gorm tag settings into the parsed state.
// Explicit odata parts win over gorm equivalents.
func (t *fieldTags) applyGormSettings(settings map[string]string) {
	if _, ok := settings["NOT NULL"]; ok {
		t.isRequired = true
	}
	if t.foreignKey == "" {
		t.foreignKey = settings["FOREIGNKEY"]
	}
	if t.references == "" {
		t.references = settings["REFERENCES"]
	}
	if t.many2many == "" && settings["MANY2MANY"] != "" {
		t.many2many = settings["MANY2MANY"]
	}
	if _, ok := settings["EMBEDDED"]; ok {
		t.embedded = true
	}
	if value, ok := settings["DEFAULT"]; ok && !t.hasDefault {
		t.defaultValue = value
		t.hasDefault = true
	}
}

func parseIntFacet(part, prefix string) int {
	value, err := strconv.Atoi(strings.TrimPrefix(part, prefix))
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// jsonNameOf returns the schema property name from the json tag, or the
// empty string when the tag does not rename the field.
func jsonNameOf(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return ""
	}
	name := strings.Split(jsonTag, ",")[0]
	if name == "" || name == "-" {
		return ""
	}
	return name
}

// entitySetNameOf determines the entity set name for an entity type. It
// first checks for a duck-typed EntitySetName() string method, similar to
// how GORM's TableName() works, then falls back to pluralizing the type
// name.
func entitySetNameOf(entityType reflect.Type) string {
	if name := tryEntitySetName(entityType, entityType); name != "" {
		return name
	}
	if name := tryEntitySetName(reflect.PointerTo(entityType), entityType); name != "" {
		return name
	}
	return naming.Pluralize(entityType.Name())
}

// tryEntitySetName calls EntitySetName on a zero value of the type when
// the method exists with a func() string signature.
func tryEntitySetName(checkType, entityType reflect.Type) string {
	method, found := checkType.MethodByName("EntitySetName")
	if !found {
		return ""
	}
	methodType := method.Type
	if methodType.NumIn() != 1 || methodType.NumOut() != 1 || methodType.Out(0).Kind() != reflect.String {
		return ""
	}

	var receiver reflect.Value
	if checkType.Kind() == reflect.Ptr {
		receiver = reflect.New(entityType)
	} else {
		receiver = reflect.New(entityType).Elem()
	}
	result := receiver.MethodByName("EntitySetName").Call(nil)
	if len(result) > 0 {
		return result[0].String()
	}
	return ""
}
