package modelbuilder

// PropertyKind tags the configuration variant of a declared property.
type PropertyKind int

const (
	PropertyKindPrimitive PropertyKind = iota + 1
	PropertyKindEnum
	PropertyKindComplex
	PropertyKindCollection
	PropertyKindNavigation
	PropertyKindUntyped
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyKindPrimitive:
		return "primitive"
	case PropertyKindEnum:
		return "enum"
	case PropertyKindComplex:
		return "complex"
	case PropertyKindCollection:
		return "collection"
	case PropertyKindNavigation:
		return "navigation"
	case PropertyKindUntyped:
		return "untyped"
	default:
		return "unknown"
	}
}

// PropertyConfiguration is the common surface of all configured
// properties. Concrete configurations carry kind-specific facets.
type PropertyConfiguration interface {
	// Ref returns the property identity.
	Ref() PropertyRef
	// Name returns the schema name, the field name unless renamed.
	Name() string
	// DeclaringType returns the type configuration that owns the property.
	DeclaringType() TypeConfiguration
	// Kind returns the configuration variant.
	Kind() PropertyKind
	// Nullable reports whether the property value may be absent.
	Nullable() bool
	// Annotations returns the property's vocabulary annotations.
	Annotations() *AnnotationCollection
}

// propertyBase carries the state shared by every property configuration.
type propertyBase struct {
	ref         PropertyRef
	declaring   TypeConfiguration
	name        string
	nullable    bool
	annotations *AnnotationCollection
}

func newPropertyBase(ref PropertyRef, declaring TypeConfiguration, nullable bool) propertyBase {
	return propertyBase{ref: ref, declaring: declaring, name: ref.Name, nullable: nullable}
}

func (p *propertyBase) Ref() PropertyRef { return p.ref }

func (p *propertyBase) Name() string { return p.name }

// SetName renames the property in the schema. The backing field identity
// is unchanged; hierarchy validation always uses field names.
func (p *propertyBase) SetName(name string) {
	if name != "" {
		p.name = name
	}
}

func (p *propertyBase) DeclaringType() TypeConfiguration { return p.declaring }

func (p *propertyBase) Nullable() bool { return p.nullable }

func (p *propertyBase) setNullable(nullable bool) { p.nullable = nullable }

func (p *propertyBase) Annotations() *AnnotationCollection {
	if p.annotations == nil {
		p.annotations = NewAnnotationCollection()
	}
	return p.annotations
}

// PrimitivePropertyConfiguration describes a property backed by an EDM
// primitive type. The facets that apply depend on the primitive kind:
// decimals carry precision and scale, strings and binaries a maximum
// length, temporal kinds a precision, geospatial kinds a coordinate
// reference system identifier. A facet set on a kind it does not apply
// to is never reported.
type PrimitivePropertyConfiguration struct {
	propertyBase
	primitiveKind PrimitiveKind
	facets        facetProfile
	maxLength     *int
	precision     *int
	scale         *int
	srid          *int
	defaultValue  *string
}

func (p *PrimitivePropertyConfiguration) Kind() PropertyKind { return PropertyKindPrimitive }

// PrimitiveKind returns the EDM primitive kind of the backing field.
func (p *PrimitivePropertyConfiguration) PrimitiveKind() PrimitiveKind { return p.primitiveKind }

// Optional marks the property as nullable.
func (p *PrimitivePropertyConfiguration) Optional() *PrimitivePropertyConfiguration {
	p.nullable = true
	return p
}

// Required marks the property as non-nullable.
func (p *PrimitivePropertyConfiguration) Required() *PrimitivePropertyConfiguration {
	p.nullable = false
	return p
}

// SetMaxLength sets the maximum length facet.
func (p *PrimitivePropertyConfiguration) SetMaxLength(length int) *PrimitivePropertyConfiguration {
	p.maxLength = &length
	return p
}

// MaxLength returns the maximum length facet.
func (p *PrimitivePropertyConfiguration) MaxLength() (int, bool) {
	if !p.facets.maxLength || p.maxLength == nil {
		return 0, false
	}
	return *p.maxLength, true
}

// SetPrecision sets the precision facet.
func (p *PrimitivePropertyConfiguration) SetPrecision(precision int) *PrimitivePropertyConfiguration {
	p.precision = &precision
	return p
}

// Precision returns the precision facet.
func (p *PrimitivePropertyConfiguration) Precision() (int, bool) {
	if !p.facets.precision || p.precision == nil {
		return 0, false
	}
	return *p.precision, true
}

// SetScale sets the scale facet.
func (p *PrimitivePropertyConfiguration) SetScale(scale int) *PrimitivePropertyConfiguration {
	p.scale = &scale
	return p
}

// Scale returns the scale facet.
func (p *PrimitivePropertyConfiguration) Scale() (int, bool) {
	if !p.facets.scale || p.scale == nil {
		return 0, false
	}
	return *p.scale, true
}

// SetSRID sets the coordinate reference system facet.
func (p *PrimitivePropertyConfiguration) SetSRID(srid int) *PrimitivePropertyConfiguration {
	p.srid = &srid
	return p
}

// SRID returns the coordinate reference system facet. When unset,
// geospatial properties assume the kind's DefaultSRID.
func (p *PrimitivePropertyConfiguration) SRID() (int, bool) {
	if !p.facets.srid || p.srid == nil {
		return 0, false
	}
	return *p.srid, true
}

// SetDefaultValue sets the default value facet.
func (p *PrimitivePropertyConfiguration) SetDefaultValue(value string) *PrimitivePropertyConfiguration {
	p.defaultValue = &value
	return p
}

// DefaultValue returns the default value facet.
func (p *PrimitivePropertyConfiguration) DefaultValue() (string, bool) {
	if p.defaultValue == nil {
		return "", false
	}
	return *p.defaultValue, true
}

// EnumPropertyConfiguration describes a property backed by an enum type.
type EnumPropertyConfiguration struct {
	propertyBase
	enumType *EnumTypeConfiguration
}

func (p *EnumPropertyConfiguration) Kind() PropertyKind { return PropertyKindEnum }

// EnumType returns the configuration of the backing enum type.
func (p *EnumPropertyConfiguration) EnumType() *EnumTypeConfiguration { return p.enumType }

// Optional marks the property as nullable.
func (p *EnumPropertyConfiguration) Optional() *EnumPropertyConfiguration {
	p.nullable = true
	return p
}

// Required marks the property as non-nullable.
func (p *EnumPropertyConfiguration) Required() *EnumPropertyConfiguration {
	p.nullable = false
	return p
}

// ComplexPropertyConfiguration describes a property backed by a complex
// type.
type ComplexPropertyConfiguration struct {
	propertyBase
	complexType *ComplexTypeConfiguration
}

func (p *ComplexPropertyConfiguration) Kind() PropertyKind { return PropertyKindComplex }

// ComplexType returns the configuration of the backing complex type.
func (p *ComplexPropertyConfiguration) ComplexType() *ComplexTypeConfiguration { return p.complexType }

// Optional marks the property as nullable.
func (p *ComplexPropertyConfiguration) Optional() *ComplexPropertyConfiguration {
	p.nullable = true
	return p
}

// Required marks the property as non-nullable.
func (p *ComplexPropertyConfiguration) Required() *ComplexPropertyConfiguration {
	p.nullable = false
	return p
}

// CollectionPropertyConfiguration describes a property backed by a slice
// or array. Nullability describes the elements, not the collection.
type CollectionPropertyConfiguration struct {
	propertyBase
	element TypeRef
}

func (p *CollectionPropertyConfiguration) Kind() PropertyKind { return PropertyKindCollection }

// ElementRef returns the resolved element type reference.
func (p *CollectionPropertyConfiguration) ElementRef() TypeRef { return p.element }

// Optional marks the collection elements as nullable.
func (p *CollectionPropertyConfiguration) Optional() *CollectionPropertyConfiguration {
	p.nullable = true
	return p
}

// Required marks the collection elements as non-nullable.
func (p *CollectionPropertyConfiguration) Required() *CollectionPropertyConfiguration {
	p.nullable = false
	return p
}

// UntypedPropertyConfiguration describes a property declared without a
// static type. Untyped properties are always nullable.
type UntypedPropertyConfiguration struct {
	propertyBase
}

func (p *UntypedPropertyConfiguration) Kind() PropertyKind { return PropertyKindUntyped }
