package modelbuilder

import (
	"fmt"
	"reflect"
)

// PropertyRef identifies one declared property: the struct type that
// carries the field, the field name, and the field's declared type. It is
// comparable and serves as the property identity throughout the builder.
type PropertyRef struct {
	DeclaringType reflect.Type
	Name          string
	Type          reflect.Type
}

// PropertyRefOf resolves a field by name on a struct type, following
// promoted fields from embedded structs. A pointer type is dereferenced
// first.
func PropertyRefOf(structType reflect.Type, name string) (PropertyRef, error) {
	if structType == nil {
		return PropertyRef{}, nilArg("struct type")
	}
	if name == "" {
		return PropertyRef{}, nilArg("field name")
	}
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return PropertyRef{}, enrich(ErrInvalidArgument, "type must be a struct, got %s", structType.Kind())
	}
	field, ok := structType.FieldByName(name)
	if !ok {
		return PropertyRef{}, enrich(ErrInvalidArgument, "type %s has no field '%s'", structType.Name(), name)
	}
	declaring := structType
	if len(field.Index) > 1 {
		// Promoted field, walk to the embedded struct that declares it.
		for _, i := range field.Index[:len(field.Index)-1] {
			declaring = declaring.Field(i).Type
			if declaring.Kind() == reflect.Ptr {
				declaring = declaring.Elem()
			}
		}
	}
	return PropertyRef{DeclaringType: declaring, Name: name, Type: field.Type}, nil
}

// propertyRefOfField builds a ref directly from a struct field.
func propertyRefOfField(declaring reflect.Type, field reflect.StructField) PropertyRef {
	return PropertyRef{DeclaringType: declaring, Name: field.Name, Type: field.Type}
}

// IsZero reports whether the ref carries no identity.
func (r PropertyRef) IsZero() bool {
	return r.DeclaringType == nil && r.Name == "" && r.Type == nil
}

func (r PropertyRef) String() string {
	if r.DeclaringType == nil {
		return r.Name
	}
	return fmt.Sprintf("%s.%s", r.DeclaringType.Name(), r.Name)
}

// stripNullable removes one pointer level and reports whether the type was
// declared nullable. Pointers are the Go spelling of a nullable value.
func stripNullable(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Ptr {
		return t.Elem(), true
	}
	return t, false
}

// isNilable reports whether a value of the type can be nil.
func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

// isEnumCandidate reports whether the type is a user-declared named
// integer type, the Go shape of an enumeration. Well-known primitive
// types such as time.Duration are excluded.
func isEnumCandidate(t reflect.Type) bool {
	if _, exact := primitivesByType[t]; exact {
		return false
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// isUntypedMarker reports whether the type is the empty interface, the
// declaration shape for properties and parameters without a static type.
func isUntypedMarker(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0
}

// isDynamicPropertyDictionary reports whether the type can hold dynamic
// properties: a map from string to values of any type.
func isDynamicPropertyDictionary(t reflect.Type) bool {
	return t.Kind() == reflect.Map &&
		t.Key().Kind() == reflect.String &&
		isUntypedMarker(t.Elem())
}

var instanceAnnotationContainerType = reflect.TypeOf((*InstanceAnnotationContainer)(nil)).Elem()

// isInstanceAnnotationContainer reports whether the type, or a pointer to
// it, implements InstanceAnnotationContainer.
func isInstanceAnnotationContainer(t reflect.Type) bool {
	if t.Implements(instanceAnnotationContainerType) {
		return true
	}
	return t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(instanceAnnotationContainerType)
}

// embedsType reports whether outer embeds base, directly or through a
// chain of anonymous struct fields. Embedding is the Go analogue of
// inheritance for schema purposes.
func embedsType(outer, base reflect.Type) bool {
	if outer == nil || base == nil {
		return false
	}
	if outer.Kind() != reflect.Struct || base.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < outer.NumField(); i++ {
		field := outer.Field(i)
		if !field.Anonymous {
			continue
		}
		fieldType := field.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}
		if fieldType == base {
			return true
		}
		if fieldType.Kind() == reflect.Struct && embedsType(fieldType, base) {
			return true
		}
	}
	return false
}

// TypeRef is a resolved reference to a schema type: a primitive kind, a
// registered enum or structural configuration, or the untyped marker,
// together with nullability and collection wrapping.
type TypeRef struct {
	goType     reflect.Type
	primitive  PrimitiveKind
	enum       *EnumTypeConfiguration
	structured TypeConfiguration
	untyped    bool
	collection bool
	nullable   bool
}

// GoType returns the Go type the reference was resolved from. For
// collection references this is the element type.
func (r TypeRef) GoType() reflect.Type { return r.goType }

// IsCollection reports whether the reference is wrapped in a collection.
func (r TypeRef) IsCollection() bool { return r.collection }

// Nullable reports whether the referenced value may be absent. For
// collection references it describes the elements.
func (r TypeRef) Nullable() bool { return r.nullable }

// PrimitiveKind returns the primitive kind, or PrimitiveKindNone when the
// reference is not primitive.
func (r TypeRef) PrimitiveKind() PrimitiveKind { return r.primitive }

// Enum returns the enum configuration, or nil.
func (r TypeRef) Enum() *EnumTypeConfiguration { return r.enum }

// Structured returns the entity or complex configuration, or nil.
func (r TypeRef) Structured() TypeConfiguration { return r.structured }

// IsUntyped reports whether the reference is the untyped marker.
func (r TypeRef) IsUntyped() bool { return r.untyped }

// IsZero reports whether the reference is unresolved.
func (r TypeRef) IsZero() bool {
	return r.goType == nil && r.primitive == PrimitiveKindNone &&
		r.enum == nil && r.structured == nil && !r.untyped
}

// Name returns the qualified schema name of the referenced type,
// including a Collection(...) wrapper where applicable.
func (r TypeRef) Name() string {
	var inner string
	switch {
	case r.enum != nil:
		inner = r.enum.FullName()
	case r.structured != nil:
		inner = r.structured.FullName()
	case r.untyped:
		inner = "Edm.Untyped"
	default:
		inner = r.primitive.String()
	}
	if r.collection {
		return fmt.Sprintf("Collection(%s)", inner)
	}
	return inner
}

// resolveTypeRef implements the type classification shared by property
// registration and operation signature resolution: strip one pointer
// level, then classify as enum, untyped, primitive, an existing
// registration, or a newly registered complex type. Referencing the same
// Go type from two places always yields the same configuration instance.
func resolveTypeRef(registry Registry, goType reflect.Type) (TypeRef, error) {
	if goType == nil {
		return TypeRef{}, nilArg("type")
	}
	underlying, nullable := stripNullable(goType)
	ref := TypeRef{goType: underlying, nullable: nullable || isNilable(underlying)}

	switch {
	case isEnumCandidate(underlying):
		enumCfg, err := registry.ResolveOrRegisterEnumType(underlying)
		if err != nil {
			return TypeRef{}, err
		}
		ref.enum = enumCfg
	case isUntypedMarker(underlying):
		ref.untyped = true
	default:
		if kind, ok := primitiveKindOf(underlying); ok {
			ref.primitive = kind
			break
		}
		if existing := registry.GetTypeConfiguration(underlying); existing != nil {
			ref.structured = existing
			break
		}
		if underlying.Kind() == reflect.Slice || underlying.Kind() == reflect.Array {
			return TypeRef{}, enrich(ErrInvalidArgument, "nested collections are not supported, got %s", underlying)
		}
		complexCfg, err := registry.ResolveOrRegisterComplexType(underlying)
		if err != nil {
			return TypeRef{}, err
		}
		ref.structured = complexCfg
	}
	return ref, nil
}

// resolveCollectionRef classifies an element type and wraps the result in
// a collection reference.
func resolveCollectionRef(registry Registry, elementType reflect.Type) (TypeRef, error) {
	ref, err := resolveTypeRef(registry, elementType)
	if err != nil {
		return TypeRef{}, err
	}
	ref.collection = true
	return ref, nil
}
