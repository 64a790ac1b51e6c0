package modelbuilder

import "reflect"

// OperationKind identifies an exposed callable as an action or a
// function.
type OperationKind int

const (
	// OperationKindAction is a side-effecting callable.
	OperationKindAction OperationKind = iota + 1
	// OperationKindFunction is a side-effect-free callable that must
	// return a value.
	OperationKindFunction
)

func (k OperationKind) String() string {
	switch k {
	case OperationKindAction:
		return "action"
	case OperationKindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// DefaultBindingParameterName is the conventional name of the implicit
// self parameter of a bound operation.
const DefaultBindingParameterName = "bindingParameter"

// Operation is the common surface of action and function configurations.
type Operation interface {
	// Name returns the operation name.
	Name() string
	// Namespace returns the operation's namespace, falling back to the
	// owning builder's namespace.
	Namespace() string
	// FullName returns the namespace-qualified name.
	FullName() string
	// Kind returns OperationKindAction or OperationKindFunction.
	Kind() OperationKind
	// IsSideEffecting reports whether invoking the operation mutates
	// state. True for actions, false for functions.
	IsSideEffecting() bool
	// IsBindable reports whether a binding parameter is present.
	IsBindable() bool
	// BindingParameter returns the binding parameter, or nil.
	BindingParameter() *ParameterConfiguration
	// Parameters returns the binding parameter, if any, followed by the
	// non-binding parameters in registration order.
	Parameters() []*ParameterConfiguration
	// ReturnType returns the resolved return type reference.
	ReturnType() (TypeRef, bool)
	// ReturnNullable reports whether the return value may be absent.
	ReturnNullable() bool
	// NavigationSource returns the entity set the operation returns
	// entities from, or nil.
	NavigationSource() NavigationSourceConfiguration
	// EntitySetPath returns the navigation path that locates the
	// returned entities, or nil.
	EntitySetPath() []string
	// Annotations returns the operation's vocabulary annotations.
	Annotations() *AnnotationCollection

	operation() *OperationConfiguration
}

// ParameterConfiguration describes one operation parameter.
type ParameterConfiguration struct {
	name         string
	typeRef      TypeRef
	binding      bool
	optional     bool
	defaultValue *string
}

// Name returns the parameter name.
func (p *ParameterConfiguration) Name() string { return p.name }

// TypeRef returns the resolved parameter type reference.
func (p *ParameterConfiguration) TypeRef() TypeRef { return p.typeRef }

// IsBindingParameter reports whether this is the operation's implicit
// self parameter.
func (p *ParameterConfiguration) IsBindingParameter() bool { return p.binding }

// Nullable reports whether the parameter value may be absent.
func (p *ParameterConfiguration) Nullable() bool { return p.typeRef.Nullable() }

// SetOptional marks the parameter as omittable on invocation.
func (p *ParameterConfiguration) SetOptional(optional bool) *ParameterConfiguration {
	p.optional = optional
	return p
}

// IsOptional reports whether the parameter may be omitted.
func (p *ParameterConfiguration) IsOptional() bool { return p.optional }

// SetDefaultValue records a default and marks the parameter optional.
func (p *ParameterConfiguration) SetDefaultValue(value string) *ParameterConfiguration {
	p.defaultValue = &value
	p.optional = true
	return p
}

// DefaultValue returns the recorded default value.
func (p *ParameterConfiguration) DefaultValue() (string, bool) {
	if p.defaultValue == nil {
		return "", false
	}
	return *p.defaultValue, true
}

// OperationConfiguration is the builder shared by actions and functions.
// All parameter and return type resolution routes through the owning
// builder, so every referenced complex, entity and enum type is
// registered exactly once.
type OperationConfiguration struct {
	registry Registry
	kind     OperationKind
	name     string

	namespace string

	returnType     TypeRef
	returnNullable bool

	navigationSource NavigationSourceConfiguration
	entitySetPath    []string

	bindingParameter *ParameterConfiguration
	parameters       []*ParameterConfiguration

	composable bool

	annotations *AnnotationCollection
}

func newOperationConfiguration(registry Registry, name string, kind OperationKind) *OperationConfiguration {
	return &OperationConfiguration{registry: registry, name: name, kind: kind}
}

func (o *OperationConfiguration) operation() *OperationConfiguration { return o }

// Name returns the operation name.
func (o *OperationConfiguration) Name() string { return o.name }

// Namespace returns the operation's namespace, falling back to the
// owning builder's namespace.
func (o *OperationConfiguration) Namespace() string {
	if o.namespace != "" {
		return o.namespace
	}
	if o.registry != nil {
		return o.registry.Namespace()
	}
	return ""
}

// SetNamespace overrides the operation's namespace.
func (o *OperationConfiguration) SetNamespace(namespace string) {
	if namespace != "" {
		o.namespace = namespace
	}
}

// FullName returns the namespace-qualified name.
func (o *OperationConfiguration) FullName() string {
	ns := o.Namespace()
	if ns == "" {
		return o.name
	}
	return ns + "." + o.name
}

// Kind returns OperationKindAction or OperationKindFunction.
func (o *OperationConfiguration) Kind() OperationKind { return o.kind }

// IsSideEffecting reports whether invoking the operation mutates state.
func (o *OperationConfiguration) IsSideEffecting() bool { return o.kind == OperationKindAction }

// IsBindable reports whether a binding parameter is present.
func (o *OperationConfiguration) IsBindable() bool { return o.bindingParameter != nil }

// BindingParameter returns the binding parameter, or nil.
func (o *OperationConfiguration) BindingParameter() *ParameterConfiguration {
	return o.bindingParameter
}

// Parameters returns the binding parameter, if any, followed by the
// non-binding parameters in registration order.
func (o *OperationConfiguration) Parameters() []*ParameterConfiguration {
	out := make([]*ParameterConfiguration, 0, len(o.parameters)+1)
	if o.bindingParameter != nil {
		out = append(out, o.bindingParameter)
	}
	return append(out, o.parameters...)
}

// ReturnType returns the resolved return type reference.
func (o *OperationConfiguration) ReturnType() (TypeRef, bool) {
	return o.returnType, !o.returnType.IsZero()
}

// ReturnNullable reports whether the return value may be absent. For
// collection returns it describes the elements.
func (o *OperationConfiguration) ReturnNullable() bool { return o.returnNullable }

// NavigationSource returns the entity set the operation returns entities
// from, or nil.
func (o *OperationConfiguration) NavigationSource() NavigationSourceConfiguration {
	return o.navigationSource
}

// EntitySetPath returns the navigation path that locates the returned
// entities, or nil.
func (o *OperationConfiguration) EntitySetPath() []string {
	if o.entitySetPath == nil {
		return nil
	}
	out := make([]string, len(o.entitySetPath))
	copy(out, o.entitySetPath)
	return out
}

// Annotations returns the operation's vocabulary annotations.
func (o *OperationConfiguration) Annotations() *AnnotationCollection {
	if o.annotations == nil {
		o.annotations = NewAnnotationCollection()
	}
	return o.annotations
}

// Returns declares the return type. The type is classified with the same
// rules as property registration: enums and struct types are resolved or
// registered with the owning builder. Nullability follows the declared
// type.
func (o *OperationConfiguration) Returns(goType reflect.Type) error {
	ref, err := resolveTypeRef(o.registry, goType)
	if err != nil {
		return err
	}
	o.returnType = ref
	o.returnNullable = ref.Nullable()
	return nil
}

// ReturnsCollection declares a collection return type from its element
// type. Nullability describes the elements, the collection itself is
// always present.
func (o *OperationConfiguration) ReturnsCollection(elementType reflect.Type) error {
	ref, err := resolveCollectionRef(o.registry, elementType)
	if err != nil {
		return err
	}
	o.returnType = ref
	o.returnNullable = ref.Nullable()
	return nil
}

// ReturnsFromEntitySet declares that the operation returns a single
// entity from the named entity set, binding the set on the owning
// builder. The return is always nullable.
func (o *OperationConfiguration) ReturnsFromEntitySet(entityType reflect.Type, entitySetName string) error {
	ref, source, err := o.resolveEntitySetReturn(entityType, entitySetName)
	if err != nil {
		return err
	}
	o.returnType = ref
	o.returnNullable = true
	o.navigationSource = source
	return nil
}

// ReturnsCollectionFromEntitySet declares that the operation returns a
// collection of entities from the named entity set, binding the set on
// the owning builder.
func (o *OperationConfiguration) ReturnsCollectionFromEntitySet(entityType reflect.Type, entitySetName string) error {
	ref, source, err := o.resolveEntitySetReturn(entityType, entitySetName)
	if err != nil {
		return err
	}
	ref.collection = true
	o.returnType = ref
	o.returnNullable = true
	o.navigationSource = source
	return nil
}

func (o *OperationConfiguration) resolveEntitySetReturn(entityType reflect.Type, entitySetName string) (TypeRef, NavigationSourceConfiguration, error) {
	if entitySetName == "" {
		return TypeRef{}, nil, nilArg("entity set name")
	}
	if entityType == nil {
		return TypeRef{}, nil, nilArg("entity type")
	}
	underlying, _ := stripNullable(entityType)
	entity, err := o.registry.ResolveOrRegisterEntityType(underlying)
	if err != nil {
		return TypeRef{}, nil, err
	}
	source, err := o.registry.BindNavigationSource(entitySetName, underlying)
	if err != nil {
		return TypeRef{}, nil, err
	}
	return TypeRef{goType: underlying, structured: entity}, source, nil
}

// ReturnsEntityViaEntitySetPath declares that the operation returns a
// single entity located by following the given navigation property path
// from the binding parameter. Path segments must be non-empty; resolving
// the path against the model is deferred to the export stage.
func (o *OperationConfiguration) ReturnsEntityViaEntitySetPath(entityType reflect.Type, path ...string) error {
	ref, err := o.resolveEntitySetPathReturn(entityType, path)
	if err != nil {
		return err
	}
	o.returnType = ref
	o.returnNullable = true
	o.entitySetPath = path
	return nil
}

// ReturnsCollectionViaEntitySetPath declares a collection return located
// by following the given navigation property path from the binding
// parameter.
func (o *OperationConfiguration) ReturnsCollectionViaEntitySetPath(entityType reflect.Type, path ...string) error {
	ref, err := o.resolveEntitySetPathReturn(entityType, path)
	if err != nil {
		return err
	}
	ref.collection = true
	o.returnType = ref
	o.returnNullable = true
	o.entitySetPath = path
	return nil
}

func (o *OperationConfiguration) resolveEntitySetPathReturn(entityType reflect.Type, path []string) (TypeRef, error) {
	if entityType == nil {
		return TypeRef{}, nilArg("entity type")
	}
	if len(path) == 0 {
		return TypeRef{}, nilArg("entity set path")
	}
	for _, segment := range path {
		if segment == "" {
			return TypeRef{}, enrich(ErrInvalidArgument, "entity set path segments must not be empty")
		}
	}
	underlying, _ := stripNullable(entityType)
	entity, err := o.registry.ResolveOrRegisterEntityType(underlying)
	if err != nil {
		return TypeRef{}, err
	}
	return TypeRef{goType: underlying, structured: entity}, nil
}

// SetBindingParameter declares the implicit self parameter, replacing any
// existing one. A slice type binds the operation to a collection. Struct
// types that are not yet registered classify as complex types, so
// register the type as an entity first when binding to an entity.
// Name collisions with non-binding parameters are reported by Build.
func (o *OperationConfiguration) SetBindingParameter(name string, goType reflect.Type) error {
	if name == "" {
		return nilArg("parameter name")
	}
	if goType == nil {
		return nilArg("type")
	}
	ref, err := o.resolveParameterRef(goType)
	if err != nil {
		return err
	}
	o.bindingParameter = &ParameterConfiguration{name: name, typeRef: ref, binding: true}
	return nil
}

// AddParameter appends a non-binding parameter. A slice type declares a
// collection parameter. Duplicate names are reported by Build.
func (o *OperationConfiguration) AddParameter(name string, goType reflect.Type) (*ParameterConfiguration, error) {
	if name == "" {
		return nil, nilArg("parameter name")
	}
	if goType == nil {
		return nil, nilArg("type")
	}
	ref, err := o.resolveParameterRef(goType)
	if err != nil {
		return nil, err
	}
	parameter := &ParameterConfiguration{name: name, typeRef: ref}
	o.parameters = append(o.parameters, parameter)
	return parameter, nil
}

// resolveParameterRef classifies a parameter or binding parameter type,
// unwrapping one slice level into a collection reference. []byte stays a
// primitive binary value.
func (o *OperationConfiguration) resolveParameterRef(goType reflect.Type) (TypeRef, error) {
	underlying, _ := stripNullable(goType)
	if underlying.Kind() == reflect.Slice && underlying.Elem().Kind() != reflect.Uint8 {
		return resolveCollectionRef(o.registry, underlying.Elem())
	}
	return resolveTypeRef(o.registry, goType)
}

// ActionConfiguration configures a side-effecting callable.
type ActionConfiguration struct {
	*OperationConfiguration
}

// FunctionConfiguration configures a side-effect-free callable.
type FunctionConfiguration struct {
	*OperationConfiguration
}

// SetComposable marks the function as composable: its result can be used
// as the starting point of further navigation.
func (f *FunctionConfiguration) SetComposable(composable bool) *FunctionConfiguration {
	f.composable = composable
	return f
}

// IsComposable reports whether the function is composable.
func (f *FunctionConfiguration) IsComposable() bool { return f.composable }

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Parameter adds a non-binding parameter of type T to the operation.
func Parameter[T any](op Operation, name string) (*ParameterConfiguration, error) {
	return op.operation().AddParameter(name, typeOf[T]())
}

// CollectionParameter adds a non-binding collection parameter with
// elements of type T.
func CollectionParameter[T any](op Operation, name string) (*ParameterConfiguration, error) {
	return op.operation().AddParameter(name, reflect.SliceOf(typeOf[T]()))
}

// EntityParameter adds a non-binding parameter referencing the entity
// type T, registering T as an entity type with the owning builder.
func EntityParameter[T any](op Operation, name string) (*ParameterConfiguration, error) {
	o := op.operation()
	if name == "" {
		return nil, nilArg("parameter name")
	}
	entityType, nullable := stripNullable(typeOf[T]())
	entity, err := o.registry.ResolveOrRegisterEntityType(entityType)
	if err != nil {
		return nil, err
	}
	parameter := &ParameterConfiguration{
		name:    name,
		typeRef: TypeRef{goType: entityType, structured: entity, nullable: nullable},
	}
	o.parameters = append(o.parameters, parameter)
	return parameter, nil
}

// CollectionEntityParameter adds a non-binding collection parameter with
// entity elements of type T, registering T as an entity type with the
// owning builder.
func CollectionEntityParameter[T any](op Operation, name string) (*ParameterConfiguration, error) {
	parameter, err := EntityParameter[T](op, name)
	if err != nil {
		return nil, err
	}
	parameter.typeRef.collection = true
	return parameter, nil
}
