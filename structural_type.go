package modelbuilder

import (
	"reflect"
	"sort"
)

// TypeKind identifies the schema kind of a structural type.
type TypeKind int

const (
	TypeKindEntity TypeKind = iota + 1
	TypeKindComplex
)

func (k TypeKind) String() string {
	switch k {
	case TypeKindEntity:
		return "entity"
	case TypeKindComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// TypeConfiguration is the read surface shared by entity and complex type
// configurations.
type TypeConfiguration interface {
	// Kind returns the schema kind.
	Kind() TypeKind
	// GoType returns the backing Go struct type.
	GoType() reflect.Type
	// Name returns the schema type name.
	Name() string
	// Namespace returns the type's namespace, falling back to the owning
	// builder's namespace when none was set explicitly.
	Namespace() string
	// FullName returns the namespace-qualified name.
	FullName() string
	// IsAbstract reports whether the type was marked abstract.
	IsAbstract() bool
	// IsOpen reports whether a dynamic property container is registered.
	IsOpen() bool
	// HasInstanceAnnotations reports whether an instance annotation
	// container is registered.
	HasInstanceAnnotations() bool
	// BaseType returns the configured base type, or nil.
	BaseType() TypeConfiguration
	// BaseTypeConfigured reports whether the base type link was set or
	// cleared explicitly, as opposed to never configured.
	BaseTypeConfigured() bool
	// AddedExplicitly reports whether the type was named or namespaced by
	// the caller rather than discovered through type resolution.
	AddedExplicitly() bool
	// Properties returns the explicit properties ordered by field name.
	Properties() []PropertyConfiguration
	// IgnoredProperties returns removed property identities in removal
	// order.
	IgnoredProperties() []PropertyRef
	// Annotations returns the type's vocabulary annotations.
	Annotations() *AnnotationCollection

	structural() *StructuralTypeConfiguration
}

// StructuralTypeConfiguration is the property registration engine shared
// by entity and complex type configurations. It owns the explicit
// property set, the ignored property list and the base type link, and it
// enforces hierarchy-wide name uniqueness and container cardinality.
// Every mutator validates before it mutates, so a failed call leaves the
// configuration unchanged.
type StructuralTypeConfiguration struct {
	registry Registry
	self     TypeConfiguration
	kind     TypeKind
	goType   reflect.Type

	name            string
	namespace       string
	addedExplicitly bool
	isAbstract      *bool

	baseType           TypeConfiguration
	baseTypeConfigured bool

	properties map[string]PropertyConfiguration
	removed    []PropertyRef

	dynamicProperty    *PropertyRef
	annotationProperty *PropertyRef

	annotations *AnnotationCollection
}

func newStructuralTypeConfiguration(registry Registry, goType reflect.Type, kind TypeKind) *StructuralTypeConfiguration {
	return &StructuralTypeConfiguration{
		registry:   registry,
		kind:       kind,
		goType:     goType,
		name:       goType.Name(),
		properties: make(map[string]PropertyConfiguration),
	}
}

func (c *StructuralTypeConfiguration) structural() *StructuralTypeConfiguration { return c }

// Kind returns the schema kind.
func (c *StructuralTypeConfiguration) Kind() TypeKind { return c.kind }

// GoType returns the backing Go struct type.
func (c *StructuralTypeConfiguration) GoType() reflect.Type { return c.goType }

// Name returns the schema type name.
func (c *StructuralTypeConfiguration) Name() string { return c.name }

// SetName overrides the schema type name and marks the type as explicitly
// added.
func (c *StructuralTypeConfiguration) SetName(name string) {
	if name != "" {
		c.name = name
		c.addedExplicitly = true
	}
}

// Namespace returns the type's namespace, falling back to the owning
// builder's namespace when none was set explicitly.
func (c *StructuralTypeConfiguration) Namespace() string {
	if c.namespace != "" {
		return c.namespace
	}
	if c.registry != nil {
		return c.registry.Namespace()
	}
	return ""
}

// SetNamespace overrides the type's namespace and marks the type as
// explicitly added.
func (c *StructuralTypeConfiguration) SetNamespace(namespace string) {
	if namespace != "" {
		c.namespace = namespace
		c.addedExplicitly = true
	}
}

// FullName returns the namespace-qualified type name.
func (c *StructuralTypeConfiguration) FullName() string {
	ns := c.Namespace()
	if ns == "" {
		return c.name
	}
	return ns + "." + c.name
}

// AddedExplicitly reports whether the type was named or namespaced by the
// caller rather than discovered through type resolution.
func (c *StructuralTypeConfiguration) AddedExplicitly() bool { return c.addedExplicitly }

// IsAbstract reports whether the type was marked abstract.
func (c *StructuralTypeConfiguration) IsAbstract() bool {
	return c.isAbstract != nil && *c.isAbstract
}

// markAbstract sets the abstract flag. Idempotent.
func (c *StructuralTypeConfiguration) markAbstract() {
	abstract := true
	c.isAbstract = &abstract
}

// BaseType returns the configured base type, or nil.
func (c *StructuralTypeConfiguration) BaseType() TypeConfiguration { return c.baseType }

// BaseTypeConfigured reports whether the base type link was set or
// cleared explicitly.
func (c *StructuralTypeConfiguration) BaseTypeConfigured() bool { return c.baseTypeConfigured }

// IsOpen reports whether a dynamic property container is registered.
func (c *StructuralTypeConfiguration) IsOpen() bool { return c.dynamicProperty != nil }

// HasInstanceAnnotations reports whether an instance annotation container
// is registered.
func (c *StructuralTypeConfiguration) HasInstanceAnnotations() bool {
	return c.annotationProperty != nil
}

// DynamicPropertyDictionary returns the identity of the dynamic property
// container, if one is registered.
func (c *StructuralTypeConfiguration) DynamicPropertyDictionary() (PropertyRef, bool) {
	if c.dynamicProperty == nil {
		return PropertyRef{}, false
	}
	return *c.dynamicProperty, true
}

// InstanceAnnotationProperty returns the identity of the instance
// annotation container, if one is registered.
func (c *StructuralTypeConfiguration) InstanceAnnotationProperty() (PropertyRef, bool) {
	if c.annotationProperty == nil {
		return PropertyRef{}, false
	}
	return *c.annotationProperty, true
}

// Annotations returns the type's vocabulary annotations.
func (c *StructuralTypeConfiguration) Annotations() *AnnotationCollection {
	if c.annotations == nil {
		c.annotations = NewAnnotationCollection()
	}
	return c.annotations
}

// setBaseType links the base type after validating assignment
// compatibility and re-validating every own property against the
// prospective ancestor chain and against known derived types. Nothing is
// mutated when any check fails.
func (c *StructuralTypeConfiguration) setBaseType(base TypeConfiguration) error {
	if base == nil || base.structural() == nil {
		return nilArg("base type")
	}
	if base.Kind() != c.kind {
		return enrich(ErrInvalidArgument, "base type '%s' is a %s type, '%s' is a %s type",
			base.FullName(), base.Kind(), c.FullName(), c.kind)
	}
	if base.GoType() == c.goType {
		return enrich(ErrInvalidArgument, "type %s cannot derive from itself", c.goType)
	}
	if !embedsType(c.goType, base.GoType()) {
		return enrich(ErrInvalidArgument, "type %s does not embed base type %s", c.goType, base.GoType())
	}

	for _, name := range c.ownPropertyNames() {
		for ancestor := base; ancestor != nil; ancestor = ancestor.BaseType() {
			if ancestor.structural().hasOwnProperty(name) {
				return enrich(ErrBasePropertyConflict, "cannot redefine property '%s' already defined on base type '%s'",
					name, ancestor.FullName())
			}
		}
		if err := c.validateNotInDerived(name); err != nil {
			return err
		}
	}

	c.baseType = base
	c.baseTypeConfigured = true
	return nil
}

// clearBaseType removes the base type link and records that the
// relationship is explicitly empty rather than not yet configured.
func (c *StructuralTypeConfiguration) clearBaseType() {
	c.baseType = nil
	c.baseTypeConfigured = true
}

// AddProperty registers a primitive property for the referenced field.
// Re-adding the same identity returns the existing configuration; the
// identity leaves the ignored list when it is added.
func (c *StructuralTypeConfiguration) AddProperty(ref PropertyRef) (*PrimitivePropertyConfiguration, error) {
	if err := c.validateRef(ref); err != nil {
		return nil, err
	}
	if err := c.validateNotInHierarchy(ref.Name); err != nil {
		return nil, err
	}
	if existing, ok := c.properties[ref.Name]; ok {
		primitive, ok := existing.(*PrimitivePropertyConfiguration)
		if !ok {
			return nil, enrich(ErrPropertyKindConflict, "property '%s' must be a primitive property, it is configured as a %s property",
				ref.Name, existing.Kind())
		}
		return primitive, nil
	}

	underlying, nullable := stripNullable(ref.Type)
	kind, ok := primitiveKindOf(underlying)
	if !ok {
		return nil, enrich(ErrInvalidArgument, "field type %s of property '%s' does not map to a primitive kind", ref.Type, ref.Name)
	}
	cfg := &PrimitivePropertyConfiguration{
		propertyBase:  newPropertyBase(ref, c.self, nullable || isNilable(underlying)),
		primitiveKind: kind,
		facets:        facetProfileOf(kind),
	}
	c.properties[ref.Name] = cfg
	c.unremove(ref.Name)
	return cfg, nil
}

// AddEnumProperty registers an enum property for the referenced field and
// registers the enum type with the owning builder.
func (c *StructuralTypeConfiguration) AddEnumProperty(ref PropertyRef) (*EnumPropertyConfiguration, error) {
	if err := c.validateRef(ref); err != nil {
		return nil, err
	}
	if err := c.validateNotInHierarchy(ref.Name); err != nil {
		return nil, err
	}
	if existing, ok := c.properties[ref.Name]; ok {
		enum, ok := existing.(*EnumPropertyConfiguration)
		if !ok {
			return nil, enrich(ErrPropertyKindConflict, "property '%s' must be an enum property, it is configured as a %s property",
				ref.Name, existing.Kind())
		}
		return enum, nil
	}

	underlying, nullable := stripNullable(ref.Type)
	if !isEnumCandidate(underlying) {
		return nil, enrich(ErrPropertyKindConflict, "property '%s' must be backed by an enumeration type, got %s", ref.Name, ref.Type)
	}
	enumType, err := c.registry.ResolveOrRegisterEnumType(underlying)
	if err != nil {
		return nil, err
	}
	cfg := &EnumPropertyConfiguration{
		propertyBase: newPropertyBase(ref, c.self, nullable),
		enumType:     enumType,
	}
	c.properties[ref.Name] = cfg
	c.unremove(ref.Name)
	return cfg, nil
}

// AddComplexProperty registers a complex property for the referenced
// field and registers the field's struct type as a complex type with the
// owning builder.
func (c *StructuralTypeConfiguration) AddComplexProperty(ref PropertyRef) (*ComplexPropertyConfiguration, error) {
	if err := c.validateRef(ref); err != nil {
		return nil, err
	}
	if err := c.validateNotInHierarchy(ref.Name); err != nil {
		return nil, err
	}
	if existing, ok := c.properties[ref.Name]; ok {
		complexProp, ok := existing.(*ComplexPropertyConfiguration)
		if !ok {
			return nil, enrich(ErrPropertyKindConflict, "property '%s' must be a complex property, it is configured as a %s property",
				ref.Name, existing.Kind())
		}
		return complexProp, nil
	}

	underlying, nullable := stripNullable(ref.Type)
	complexType, err := c.registry.ResolveOrRegisterComplexType(underlying)
	if err != nil {
		return nil, err
	}
	cfg := &ComplexPropertyConfiguration{
		propertyBase: newPropertyBase(ref, c.self, nullable),
		complexType:  complexType,
	}
	c.properties[ref.Name] = cfg
	c.unremove(ref.Name)
	return cfg, nil
}

// AddCollectionProperty registers a collection property for the
// referenced slice field. The element type is classified with the same
// rules as operation signatures: struct elements that are neither
// primitive, enum nor untyped are registered as complex types.
func (c *StructuralTypeConfiguration) AddCollectionProperty(ref PropertyRef) (*CollectionPropertyConfiguration, error) {
	if err := c.validateRef(ref); err != nil {
		return nil, err
	}
	if err := c.validateNotInHierarchy(ref.Name); err != nil {
		return nil, err
	}
	if existing, ok := c.properties[ref.Name]; ok {
		collection, ok := existing.(*CollectionPropertyConfiguration)
		if !ok {
			return nil, enrich(ErrPropertyKindConflict, "property '%s' must be a collection property, it is configured as a %s property",
				ref.Name, existing.Kind())
		}
		return collection, nil
	}

	underlying, _ := stripNullable(ref.Type)
	if underlying.Kind() != reflect.Slice && underlying.Kind() != reflect.Array {
		return nil, enrich(ErrInvalidArgument, "property '%s' must be backed by a slice or array, got %s", ref.Name, ref.Type)
	}
	if underlying.Kind() == reflect.Slice && underlying.Elem().Kind() == reflect.Uint8 {
		return nil, enrich(ErrInvalidArgument, "property '%s' is []byte which maps to Edm.Binary, add it as a primitive property", ref.Name)
	}
	element, err := resolveCollectionRef(c.registry, underlying.Elem())
	if err != nil {
		return nil, err
	}
	cfg := &CollectionPropertyConfiguration{
		propertyBase: newPropertyBase(ref, c.self, element.Nullable()),
		element:      element,
	}
	c.properties[ref.Name] = cfg
	c.unremove(ref.Name)
	return cfg, nil
}

// AddUntypedProperty registers a property declared as interface{}.
func (c *StructuralTypeConfiguration) AddUntypedProperty(ref PropertyRef) (*UntypedPropertyConfiguration, error) {
	if err := c.validateRef(ref); err != nil {
		return nil, err
	}
	if err := c.validateNotInHierarchy(ref.Name); err != nil {
		return nil, err
	}
	if existing, ok := c.properties[ref.Name]; ok {
		untyped, ok := existing.(*UntypedPropertyConfiguration)
		if !ok {
			return nil, enrich(ErrPropertyKindConflict, "property '%s' must be an untyped property, it is configured as a %s property",
				ref.Name, existing.Kind())
		}
		return untyped, nil
	}

	if !isUntypedMarker(ref.Type) {
		return nil, enrich(ErrPropertyKindConflict, "property '%s' must be declared as interface{}, got %s", ref.Name, ref.Type)
	}
	cfg := &UntypedPropertyConfiguration{
		propertyBase: newPropertyBase(ref, c.self, true),
	}
	c.properties[ref.Name] = cfg
	c.unremove(ref.Name)
	return cfg, nil
}

// AddNavigationProperty registers a relationship to another entity type
// and registers that entity type with the owning builder. Re-adding the
// same identity with the same multiplicity returns the existing
// configuration unchanged; a different multiplicity is an error.
func (c *StructuralTypeConfiguration) AddNavigationProperty(ref PropertyRef, multiplicity Multiplicity) (*NavigationPropertyConfiguration, error) {
	return c.addNavigationProperty(ref, multiplicity, false)
}

// AddContainedNavigationProperty registers a containment relationship:
// related entities are addressed through the declaring entity instead of
// their own entity set.
func (c *StructuralTypeConfiguration) AddContainedNavigationProperty(ref PropertyRef, multiplicity Multiplicity) (*NavigationPropertyConfiguration, error) {
	return c.addNavigationProperty(ref, multiplicity, true)
}

func (c *StructuralTypeConfiguration) addNavigationProperty(ref PropertyRef, multiplicity Multiplicity, containsTarget bool) (*NavigationPropertyConfiguration, error) {
	if err := c.validateRef(ref); err != nil {
		return nil, err
	}
	if multiplicity == 0 {
		return nil, nilArg("multiplicity")
	}
	if multiplicity < MultiplicityZeroOrOne || multiplicity > MultiplicityMany {
		return nil, enrich(ErrInvalidArgument, "unknown multiplicity %d", multiplicity)
	}
	if err := c.validateNotInHierarchy(ref.Name); err != nil {
		return nil, err
	}
	if existing, ok := c.properties[ref.Name]; ok {
		nav, ok := existing.(*NavigationPropertyConfiguration)
		if !ok {
			return nil, enrich(ErrPropertyKindConflict, "property '%s' must be a navigation property, it is configured as a %s property",
				ref.Name, existing.Kind())
		}
		if nav.multiplicity != multiplicity {
			return nil, enrich(ErrMultiplicityConflict, "navigation property '%s' was added with multiplicity %s, requested %s",
				ref.Name, nav.multiplicity, multiplicity)
		}
		return nav, nil
	}

	targetType, err := navigationTargetType(ref, multiplicity)
	if err != nil {
		return nil, err
	}
	target, err := c.registry.ResolveOrRegisterEntityType(targetType)
	if err != nil {
		return nil, err
	}
	cfg := &NavigationPropertyConfiguration{
		propertyBase:   newPropertyBase(ref, c.self, multiplicity == MultiplicityZeroOrOne),
		multiplicity:   multiplicity,
		containsTarget: containsTarget,
		target:         target,
	}
	c.properties[ref.Name] = cfg
	c.unremove(ref.Name)
	return cfg, nil
}

// navigationTargetType validates the backing field shape against the
// requested multiplicity and returns the related struct type.
func navigationTargetType(ref PropertyRef, multiplicity Multiplicity) (reflect.Type, error) {
	fieldType := ref.Type
	switch multiplicity {
	case MultiplicityMany:
		if fieldType.Kind() != reflect.Slice {
			return nil, enrich(ErrInvalidArgument, "navigation property '%s' with multiplicity Many must be backed by a slice, got %s",
				ref.Name, fieldType)
		}
		fieldType = fieldType.Elem()
	case MultiplicityZeroOrOne:
		if fieldType.Kind() != reflect.Ptr {
			return nil, enrich(ErrInvalidArgument, "navigation property '%s' with multiplicity ZeroOrOne must be backed by a pointer, got %s",
				ref.Name, fieldType)
		}
	case MultiplicityOne:
		if fieldType.Kind() == reflect.Slice {
			return nil, enrich(ErrInvalidArgument, "navigation property '%s' with multiplicity One must not be backed by a slice", ref.Name)
		}
	}
	if fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}
	return fieldType, nil
}

// AddDynamicPropertyDictionary designates the referenced field as the
// type's dynamic property container, making the type open. A type can
// have at most one.
func (c *StructuralTypeConfiguration) AddDynamicPropertyDictionary(ref PropertyRef) error {
	if err := c.validateRef(ref); err != nil {
		return err
	}
	if !isDynamicPropertyDictionary(ref.Type) {
		return enrich(ErrInvalidArgument, "property '%s' must be a map with string keys and interface{} values to hold dynamic properties, got %s",
			ref.Name, ref.Type)
	}
	if c.dynamicProperty != nil {
		return enrich(ErrDynamicContainerExists, "type '%s' already uses '%s' as its dynamic property container",
			c.FullName(), c.dynamicProperty.Name)
	}
	c.dynamicProperty = &ref
	return nil
}

// AddInstanceAnnotationContainer designates the referenced field as the
// type's instance annotation container. A type can have at most one.
func (c *StructuralTypeConfiguration) AddInstanceAnnotationContainer(ref PropertyRef) error {
	if err := c.validateRef(ref); err != nil {
		return err
	}
	if !isInstanceAnnotationContainer(ref.Type) {
		return enrich(ErrInvalidArgument, "property '%s' must implement InstanceAnnotationContainer, got %s", ref.Name, ref.Type)
	}
	if c.annotationProperty != nil {
		return enrich(ErrAnnotationContainerExists, "type '%s' already uses '%s' as its instance annotation container",
			c.FullName(), c.annotationProperty.Name)
	}
	c.annotationProperty = &ref
	return nil
}

// RemoveProperty removes the identity from the explicit property set and
// records it in the ignored list. Removing an absent identity only
// records it; removing the dynamic property container clears that
// designation.
func (c *StructuralTypeConfiguration) RemoveProperty(ref PropertyRef) error {
	if ref.DeclaringType == nil || ref.Name == "" || ref.Type == nil {
		return nilArg("property reference")
	}
	delete(c.properties, ref.Name)
	if !c.isRemoved(ref.Name) {
		c.removed = append(c.removed, ref)
	}
	if c.dynamicProperty != nil && c.dynamicProperty.Name == ref.Name {
		c.dynamicProperty = nil
	}
	return nil
}

// Properties returns the explicit properties ordered by field name.
func (c *StructuralTypeConfiguration) Properties() []PropertyConfiguration {
	names := c.ownPropertyNames()
	out := make([]PropertyConfiguration, 0, len(names))
	for _, name := range names {
		out = append(out, c.properties[name])
	}
	return out
}

// NavigationProperties returns the navigation properties ordered by field
// name.
func (c *StructuralTypeConfiguration) NavigationProperties() []*NavigationPropertyConfiguration {
	var out []*NavigationPropertyConfiguration
	for _, name := range c.ownPropertyNames() {
		if nav, ok := c.properties[name].(*NavigationPropertyConfiguration); ok {
			out = append(out, nav)
		}
	}
	return out
}

// IgnoredProperties returns removed property identities in removal order.
func (c *StructuralTypeConfiguration) IgnoredProperties() []PropertyRef {
	out := make([]PropertyRef, len(c.removed))
	copy(out, c.removed)
	return out
}

func (c *StructuralTypeConfiguration) validateRef(ref PropertyRef) error {
	if ref.DeclaringType == nil || ref.Name == "" || ref.Type == nil {
		return nilArg("property reference")
	}
	if ref.DeclaringType != c.goType && !embedsType(c.goType, ref.DeclaringType) {
		return enrich(ErrInvalidArgument, "property '%s' is declared on %s, which is not %s or one of its embedded types",
			ref.Name, ref.DeclaringType, c.goType)
	}
	return nil
}

// validateNotInHierarchy enforces hierarchy-wide property name uniqueness
// in both directions. It runs before every property addition and again
// when a base type is attached, because attachment can retroactively
// create a conflict.
func (c *StructuralTypeConfiguration) validateNotInHierarchy(name string) error {
	for ancestor := c.baseType; ancestor != nil; ancestor = ancestor.BaseType() {
		if ancestor.structural().hasOwnProperty(name) {
			return enrich(ErrBasePropertyConflict, "cannot redefine property '%s' already defined on base type '%s'",
				name, ancestor.FullName())
		}
	}
	return c.validateNotInDerived(name)
}

func (c *StructuralTypeConfiguration) validateNotInDerived(name string) error {
	if c.registry == nil || c.self == nil {
		return nil
	}
	for _, derived := range c.registry.DerivedTypesOf(c.self) {
		if derived.structural().hasOwnProperty(name) {
			return enrich(ErrDerivedPropertyConflict, "property '%s' is already defined on derived type '%s'",
				name, derived.FullName())
		}
	}
	return nil
}

func (c *StructuralTypeConfiguration) hasOwnProperty(name string) bool {
	_, ok := c.properties[name]
	return ok
}

func (c *StructuralTypeConfiguration) ownPropertyNames() []string {
	names := make([]string, 0, len(c.properties))
	for name := range c.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *StructuralTypeConfiguration) isRemoved(name string) bool {
	for _, ref := range c.removed {
		if ref.Name == name {
			return true
		}
	}
	return false
}

func (c *StructuralTypeConfiguration) unremove(name string) {
	kept := c.removed[:0]
	for _, ref := range c.removed {
		if ref.Name != name {
			kept = append(kept, ref)
		}
	}
	c.removed = kept
}
