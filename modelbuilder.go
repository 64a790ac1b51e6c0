// Package modelbuilder builds conceptual schema models from Go types.
//
// A ModelBuilder owns a registry of entity types, complex types and
// enumeration types keyed by their backing reflect.Type, plus the entity
// sets, singletons, actions and functions that expose them. Types can be
// registered explicitly through the fluent API or discovered by the
// struct-tag conventions in RegisterEntity. Build validates the
// accumulated graph and produces an immutable Model snapshot.
package modelbuilder

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/ElizabethOkerio/ModelBuilder/internal/naming"
	"github.com/ElizabethOkerio/ModelBuilder/internal/observability"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultNamespace is used when no explicit namespace is configured.
const DefaultNamespace = "Default"

// DefaultContainerName is used when no explicit container name is configured.
const DefaultContainerName = "Container"

// Registry is the contract type and operation configurations consume from
// the builder that owns them. It resolves Go types to configurations,
// registering them on first reference, and answers hierarchy and
// navigation source queries during validation.
type Registry interface {
	// Namespace returns the ambient namespace applied to types and
	// operations that have none set explicitly.
	Namespace() string
	// ResolveOrRegisterEntityType returns the entity type configuration
	// for the Go type, registering it on first reference.
	ResolveOrRegisterEntityType(goType reflect.Type) (*EntityTypeConfiguration, error)
	// ResolveOrRegisterComplexType returns the complex type configuration
	// for the Go type, registering it on first reference.
	ResolveOrRegisterComplexType(goType reflect.Type) (*ComplexTypeConfiguration, error)
	// ResolveOrRegisterEnumType returns the enumeration type
	// configuration for the Go type, registering it on first reference.
	ResolveOrRegisterEnumType(goType reflect.Type) (*EnumTypeConfiguration, error)
	// GetTypeConfiguration returns the registered structured type for the
	// Go type, or nil when the type was never registered.
	GetTypeConfiguration(goType reflect.Type) TypeConfiguration
	// DerivedTypesOf returns registered types deriving from the given
	// configuration, directly or transitively.
	DerivedTypesOf(cfg TypeConfiguration) []TypeConfiguration
	// BindNavigationSource returns the navigation source with the given
	// name, creating an entity set for the entity type when absent.
	BindNavigationSource(name string, entityType reflect.Type) (NavigationSourceConfiguration, error)
}

// ModelBuilder accumulates type, operation and navigation source
// configurations and validates them into a Model.
//
// The zero value is not usable; create builders with NewModelBuilder.
// A builder is intended for single-threaded configuration: register all
// types and operations, then call Build.
type ModelBuilder struct {
	namespace         string
	explicitNamespace bool
	containerName     string

	entityTypes  map[reflect.Type]*EntityTypeConfiguration
	complexTypes map[reflect.Type]*ComplexTypeConfiguration
	enumTypes    map[reflect.Type]*EnumTypeConfiguration

	entityOrder  []reflect.Type
	complexOrder []reflect.Type
	enumOrder    []reflect.Type

	navigationSources map[string]NavigationSourceConfiguration
	sourceOrder       []string

	actions   []*ActionConfiguration
	functions []*FunctionConfiguration

	annotations *AnnotationCollection

	// conventioned tracks struct types whose fields were already walked
	// by RegisterEntity, so re-registration does not replay mutations.
	conventioned map[reflect.Type]bool

	logger        *slog.Logger
	observability *observability.Config
}

var _ Registry = (*ModelBuilder)(nil)

// NewModelBuilder creates an empty builder with the default namespace and
// container name.
func NewModelBuilder() *ModelBuilder {
	return &ModelBuilder{
		namespace:         DefaultNamespace,
		containerName:     DefaultContainerName,
		entityTypes:       make(map[reflect.Type]*EntityTypeConfiguration),
		complexTypes:      make(map[reflect.Type]*ComplexTypeConfiguration),
		enumTypes:         make(map[reflect.Type]*EnumTypeConfiguration),
		navigationSources: make(map[string]NavigationSourceConfiguration),
		conventioned:      make(map[reflect.Type]bool),
		logger:            slog.Default(),
	}
}

// Namespace returns the ambient namespace applied to types and operations
// that have none set explicitly.
func (b *ModelBuilder) Namespace() string { return b.namespace }

// HasExplicitNamespace reports whether SetNamespace was called.
func (b *ModelBuilder) HasExplicitNamespace() bool { return b.explicitNamespace }

// SetNamespace configures the ambient namespace. The namespace must be
// one or more dot-separated simple identifiers.
func (b *ModelBuilder) SetNamespace(namespace string) error {
	if namespace == "" {
		return nilArg("namespace")
	}
	if !naming.IsNamespace(namespace) {
		return enrich(ErrInvalidArgument, "namespace '%s' is not a valid namespace", namespace)
	}
	b.namespace = namespace
	b.explicitNamespace = true
	return nil
}

// ContainerName returns the name of the entity container exposing the
// model's entity sets and singletons.
func (b *ModelBuilder) ContainerName() string { return b.containerName }

// SetContainerName configures the entity container name.
func (b *ModelBuilder) SetContainerName(name string) error {
	if name == "" {
		return nilArg("container name")
	}
	if !naming.IsSimpleIdentifier(name) {
		return enrich(ErrInvalidArgument, "container name '%s' is not a valid simple identifier", name)
	}
	b.containerName = name
	return nil
}

// SetLogger sets a custom logger for the builder.
// If logger is nil, slog.Default() is used.
//
// # Example
//
//	builder.SetLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
func (b *ModelBuilder) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	b.logger = logger
}

// Annotations returns the vocabulary annotations attached to the entity
// container.
func (b *ModelBuilder) Annotations() *AnnotationCollection {
	if b.annotations == nil {
		b.annotations = NewAnnotationCollection()
	}
	return b.annotations
}

// ObservabilityConfig configures observability features (tracing, metrics)
// for a builder.
type ObservabilityConfig struct {
	// TracerProvider enables distributed tracing of registration and
	// build activity. If nil, tracing is disabled.
	TracerProvider trace.TracerProvider

	// MeterProvider enables metrics collection. If nil, metrics are
	// disabled.
	MeterProvider metric.MeterProvider

	// ServiceName identifies the owning service in telemetry backends.
	ServiceName string

	// ServiceVersion is reported alongside the service name.
	ServiceVersion string
}

// SetObservability configures OpenTelemetry-based observability for the
// builder. Type registrations are counted and Build runs under a span
// carrying the model's type and operation counts.
//
// # Example
//
//	exporter, _ := otlptracehttp.New(ctx)
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	defer tp.Shutdown(ctx)
//
//	builder.SetObservability(modelbuilder.ObservabilityConfig{
//	    TracerProvider: tp,
//	    ServiceName:    "my-metadata-service",
//	    ServiceVersion: "1.0.0",
//	})
func (b *ModelBuilder) SetObservability(cfg ObservabilityConfig) error {
	opts := []observability.Option{}

	if cfg.TracerProvider != nil {
		opts = append(opts, observability.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, observability.WithMeterProvider(cfg.MeterProvider))
	}
	if cfg.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		opts = append(opts, observability.WithServiceVersion(cfg.ServiceVersion))
	}
	if b.logger != nil {
		opts = append(opts, observability.WithLogger(b.logger))
	}

	obsCfg := observability.NewConfig(opts...)
	if err := obsCfg.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	b.observability = obsCfg

	b.logger.Info("Observability configured",
		"tracing_enabled", cfg.TracerProvider != nil,
		"metrics_enabled", cfg.MeterProvider != nil,
		"service_name", cfg.ServiceName,
	)
	return nil
}

// Observability returns the current observability configuration.
// Returns nil if observability is not configured.
func (b *ModelBuilder) Observability() *observability.Config {
	return b.observability
}

// ResolveOrRegisterEntityType returns the entity type configuration for
// the Go struct type, registering it on first reference. One pointer
// level is stripped. A type already registered under another kind is a
// conflict.
func (b *ModelBuilder) ResolveOrRegisterEntityType(goType reflect.Type) (*EntityTypeConfiguration, error) {
	if goType == nil {
		return nil, nilArg("entity type")
	}
	underlying, _ := stripNullable(goType)
	if existing, ok := b.entityTypes[underlying]; ok {
		return existing, nil
	}
	if _, ok := b.complexTypes[underlying]; ok {
		return nil, enrich(ErrTypeKindConflict, "type %s is already registered as a complex type", underlying)
	}
	if _, ok := b.enumTypes[underlying]; ok {
		return nil, enrich(ErrTypeKindConflict, "type %s is already registered as an enumeration type", underlying)
	}
	if underlying.Kind() != reflect.Struct {
		return nil, enrich(ErrInvalidArgument, "entity type must be a struct, got %s", underlying)
	}

	cfg := newEntityTypeConfiguration(b, underlying)
	b.entityTypes[underlying] = cfg
	b.entityOrder = append(b.entityOrder, underlying)
	b.logRegistered("Registered entity type", "entityType", cfg)
	return cfg, nil
}

// ResolveOrRegisterComplexType returns the complex type configuration for
// the Go struct type, registering it on first reference. One pointer
// level is stripped. A type already registered under another kind is a
// conflict.
func (b *ModelBuilder) ResolveOrRegisterComplexType(goType reflect.Type) (*ComplexTypeConfiguration, error) {
	if goType == nil {
		return nil, nilArg("complex type")
	}
	underlying, _ := stripNullable(goType)
	if existing, ok := b.complexTypes[underlying]; ok {
		return existing, nil
	}
	if _, ok := b.entityTypes[underlying]; ok {
		return nil, enrich(ErrTypeKindConflict, "type %s is already registered as an entity type", underlying)
	}
	if _, ok := b.enumTypes[underlying]; ok {
		return nil, enrich(ErrTypeKindConflict, "type %s is already registered as an enumeration type", underlying)
	}
	if underlying.Kind() != reflect.Struct {
		return nil, enrich(ErrInvalidArgument, "complex type must be a struct, got %s", underlying)
	}

	cfg := newComplexTypeConfiguration(b, underlying)
	b.complexTypes[underlying] = cfg
	b.complexOrder = append(b.complexOrder, underlying)
	b.logRegistered("Registered complex type", "complexType", cfg)
	return cfg, nil
}

// ResolveOrRegisterEnumType returns the enumeration type configuration
// for the Go type, registering it on first reference. The type must be a
// named integer type. Members are discovered through the type's
// EnumMembers method when it has one.
func (b *ModelBuilder) ResolveOrRegisterEnumType(goType reflect.Type) (*EnumTypeConfiguration, error) {
	if goType == nil {
		return nil, nilArg("enumeration type")
	}
	underlying, _ := stripNullable(goType)
	if existing, ok := b.enumTypes[underlying]; ok {
		return existing, nil
	}
	if _, ok := b.entityTypes[underlying]; ok {
		return nil, enrich(ErrTypeKindConflict, "type %s is already registered as an entity type", underlying)
	}
	if _, ok := b.complexTypes[underlying]; ok {
		return nil, enrich(ErrTypeKindConflict, "type %s is already registered as a complex type", underlying)
	}
	if !isEnumCandidate(underlying) {
		return nil, enrich(ErrInvalidArgument, "enumeration type must be a named integer type, got %s", underlying)
	}

	cfg, err := newEnumTypeConfiguration(b, underlying)
	if err != nil {
		return nil, err
	}
	b.enumTypes[underlying] = cfg
	b.enumOrder = append(b.enumOrder, underlying)
	b.logger.Debug("Registered enumeration type",
		"enumType", cfg.FullName(),
		"goType", underlying.String(),
		"members", len(cfg.Members()))
	if b.observability != nil {
		b.observability.Metrics().RecordTypeRegistered(context.Background(), "enum")
	}
	return cfg, nil
}

// GetTypeConfiguration returns the registered entity or complex type for
// the Go type, or nil when the type was never registered. Enumeration
// types are resolved separately through ResolveOrRegisterEnumType.
func (b *ModelBuilder) GetTypeConfiguration(goType reflect.Type) TypeConfiguration {
	if goType == nil {
		return nil
	}
	if cfg, ok := b.entityTypes[goType]; ok {
		return cfg
	}
	if cfg, ok := b.complexTypes[goType]; ok {
		return cfg
	}
	return nil
}

// GetEnumConfiguration returns the registered enumeration type for the Go
// type, or nil when the type was never registered.
func (b *ModelBuilder) GetEnumConfiguration(goType reflect.Type) *EnumTypeConfiguration {
	if goType == nil {
		return nil
	}
	return b.enumTypes[goType]
}

// DerivedTypesOf returns the registered types deriving from the given
// configuration, directly or transitively, in registration order. A type
// derives from another through its configured base type chain, or, when
// no base type was configured explicitly, through Go struct embedding.
func (b *ModelBuilder) DerivedTypesOf(cfg TypeConfiguration) []TypeConfiguration {
	if cfg == nil {
		return nil
	}
	var derived []TypeConfiguration
	switch cfg.Kind() {
	case TypeKindEntity:
		for _, goType := range b.entityOrder {
			candidate := b.entityTypes[goType]
			if isDerivedFrom(candidate, cfg) {
				derived = append(derived, candidate)
			}
		}
	case TypeKindComplex:
		for _, goType := range b.complexOrder {
			candidate := b.complexTypes[goType]
			if isDerivedFrom(candidate, cfg) {
				derived = append(derived, candidate)
			}
		}
	}
	return derived
}

// isDerivedFrom reports whether candidate inherits from base: the
// configured base type chain reaches base, or, when the candidate never
// had a base type set or cleared explicitly, its Go struct embeds the
// base's Go struct.
func isDerivedFrom(candidate, base TypeConfiguration) bool {
	if candidate == nil || base == nil || candidate == base {
		return false
	}
	for ancestor := candidate.BaseType(); ancestor != nil; ancestor = ancestor.BaseType() {
		if ancestor == base {
			return true
		}
	}
	if !candidate.BaseTypeConfigured() {
		return embedsType(candidate.GoType(), base.GoType())
	}
	return false
}

// AddEntityType registers the Go struct type as an entity type and marks
// it explicitly added. Re-adding a registered type returns the existing
// configuration.
func (b *ModelBuilder) AddEntityType(goType reflect.Type) (*EntityTypeConfiguration, error) {
	cfg, err := b.ResolveOrRegisterEntityType(goType)
	if err != nil {
		return nil, err
	}
	cfg.structural().addedExplicitly = true
	return cfg, nil
}

// AddComplexType registers the Go struct type as a complex type and marks
// it explicitly added. Re-adding a registered type returns the existing
// configuration.
func (b *ModelBuilder) AddComplexType(goType reflect.Type) (*ComplexTypeConfiguration, error) {
	cfg, err := b.ResolveOrRegisterComplexType(goType)
	if err != nil {
		return nil, err
	}
	cfg.structural().addedExplicitly = true
	return cfg, nil
}

// AddEnumType registers the Go type as an enumeration type and marks it
// explicitly added. Re-adding a registered type returns the existing
// configuration.
func (b *ModelBuilder) AddEnumType(goType reflect.Type) (*EnumTypeConfiguration, error) {
	cfg, err := b.ResolveOrRegisterEnumType(goType)
	if err != nil {
		return nil, err
	}
	cfg.addedExplicitly = true
	return cfg, nil
}

// EntityType registers T as an entity type and marks it explicitly added.
//
// # Example
//
//	product, err := modelbuilder.EntityType[Product](builder)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	product.MarkAbstract()
func EntityType[T any](b *ModelBuilder) (*EntityTypeConfiguration, error) {
	return b.AddEntityType(typeOf[T]())
}

// ComplexType registers T as a complex type and marks it explicitly added.
func ComplexType[T any](b *ModelBuilder) (*ComplexTypeConfiguration, error) {
	return b.AddComplexType(typeOf[T]())
}

// EnumType registers T as an enumeration type and marks it explicitly added.
func EnumType[T any](b *ModelBuilder) (*EnumTypeConfiguration, error) {
	return b.AddEnumType(typeOf[T]())
}

// AddEntitySet exposes the entity type under a named entity set.
// Re-binding an existing name to the same entity type returns the
// existing configuration; binding it to a different entity type or to a
// name held by a singleton is a conflict.
func (b *ModelBuilder) AddEntitySet(name string, entityType reflect.Type) (*EntitySetConfiguration, error) {
	source, err := b.bindSource(name, entityType, NavigationSourceKindEntitySet)
	if err != nil {
		return nil, err
	}
	return source.(*EntitySetConfiguration), nil
}

// AddSingleton exposes the entity type under a named singleton.
// Re-binding follows the same rules as AddEntitySet.
func (b *ModelBuilder) AddSingleton(name string, entityType reflect.Type) (*SingletonConfiguration, error) {
	source, err := b.bindSource(name, entityType, NavigationSourceKindSingleton)
	if err != nil {
		return nil, err
	}
	return source.(*SingletonConfiguration), nil
}

// EntitySet registers T as an entity type and exposes it under a named
// entity set.
func EntitySet[T any](b *ModelBuilder, name string) (*EntitySetConfiguration, error) {
	return b.AddEntitySet(name, typeOf[T]())
}

// Singleton registers T as an entity type and exposes it under a named
// singleton.
func Singleton[T any](b *ModelBuilder, name string) (*SingletonConfiguration, error) {
	return b.AddSingleton(name, typeOf[T]())
}

// BindNavigationSource returns the navigation source with the given name,
// creating an entity set for the entity type when absent. A name bound to
// a different entity type or source kind is a conflict.
func (b *ModelBuilder) BindNavigationSource(name string, entityType reflect.Type) (NavigationSourceConfiguration, error) {
	return b.bindSource(name, entityType, NavigationSourceKindEntitySet)
}

func (b *ModelBuilder) bindSource(name string, entityType reflect.Type, kind NavigationSourceKind) (NavigationSourceConfiguration, error) {
	if name == "" {
		return nil, nilArg("navigation source name")
	}
	if entityType == nil {
		return nil, nilArg("entity type")
	}
	entity, err := b.ResolveOrRegisterEntityType(entityType)
	if err != nil {
		return nil, err
	}

	if existing, ok := b.navigationSources[name]; ok {
		if existing.Kind() != kind {
			return nil, enrich(ErrNavigationSourceConflict, "'%s' is already registered as a %s", name, existing.Kind())
		}
		if existing.EntityType() != entity {
			return nil, enrich(ErrNavigationSourceConflict, "%s '%s' exposes entity type '%s', requested '%s'",
				existing.Kind(), name, existing.EntityType().FullName(), entity.FullName())
		}
		return existing, nil
	}

	var source NavigationSourceConfiguration
	switch kind {
	case NavigationSourceKindSingleton:
		source = &SingletonConfiguration{navigationSourceBase: navigationSourceBase{name: name, entityType: entity}}
		b.logger.Debug("Registered singleton",
			"singleton", name,
			"entityType", entity.FullName())
	default:
		source = &EntitySetConfiguration{navigationSourceBase: navigationSourceBase{name: name, entityType: entity}}
		b.logger.Debug("Registered entity set",
			"entitySet", name,
			"entityType", entity.FullName())
	}
	b.navigationSources[name] = source
	b.sourceOrder = append(b.sourceOrder, name)
	return source, nil
}

// Action creates and registers a new action configuration. Calling Action
// again with the same name creates an overload; signature collisions
// between overloads are reported by Build.
//
// # Example
//
//	rate, err := builder.Action("Rate")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := rate.SetBindingParameter("product", reflect.TypeOf(Product{})); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := modelbuilder.Parameter[int](rate, "stars"); err != nil {
//	    log.Fatal(err)
//	}
func (b *ModelBuilder) Action(name string) (*ActionConfiguration, error) {
	if name == "" {
		return nil, nilArg("action name")
	}
	if !naming.IsSimpleIdentifier(name) {
		return nil, enrich(ErrInvalidArgument, "action name '%s' is not a valid simple identifier", name)
	}
	cfg := &ActionConfiguration{OperationConfiguration: newOperationConfiguration(b, name, OperationKindAction)}
	b.actions = append(b.actions, cfg)
	b.logger.Debug("Registered action", "name", name)
	return cfg, nil
}

// Function creates and registers a new function configuration. Calling
// Function again with the same name creates an overload; signature
// collisions between overloads are reported by Build.
func (b *ModelBuilder) Function(name string) (*FunctionConfiguration, error) {
	if name == "" {
		return nil, nilArg("function name")
	}
	if !naming.IsSimpleIdentifier(name) {
		return nil, enrich(ErrInvalidArgument, "function name '%s' is not a valid simple identifier", name)
	}
	cfg := &FunctionConfiguration{OperationConfiguration: newOperationConfiguration(b, name, OperationKindFunction)}
	b.functions = append(b.functions, cfg)
	b.logger.Debug("Registered function", "name", name)
	return cfg, nil
}

// EntityTypes returns the registered entity type configurations in
// registration order.
func (b *ModelBuilder) EntityTypes() []*EntityTypeConfiguration {
	types := make([]*EntityTypeConfiguration, 0, len(b.entityOrder))
	for _, goType := range b.entityOrder {
		types = append(types, b.entityTypes[goType])
	}
	return types
}

// ComplexTypes returns the registered complex type configurations in
// registration order.
func (b *ModelBuilder) ComplexTypes() []*ComplexTypeConfiguration {
	types := make([]*ComplexTypeConfiguration, 0, len(b.complexOrder))
	for _, goType := range b.complexOrder {
		types = append(types, b.complexTypes[goType])
	}
	return types
}

// EnumTypes returns the registered enumeration type configurations in
// registration order.
func (b *ModelBuilder) EnumTypes() []*EnumTypeConfiguration {
	types := make([]*EnumTypeConfiguration, 0, len(b.enumOrder))
	for _, goType := range b.enumOrder {
		types = append(types, b.enumTypes[goType])
	}
	return types
}

// StructuralTypes returns the registered entity and complex type
// configurations, entities first, each group in registration order.
func (b *ModelBuilder) StructuralTypes() []TypeConfiguration {
	types := make([]TypeConfiguration, 0, len(b.entityOrder)+len(b.complexOrder))
	for _, goType := range b.entityOrder {
		types = append(types, b.entityTypes[goType])
	}
	for _, goType := range b.complexOrder {
		types = append(types, b.complexTypes[goType])
	}
	return types
}

// NavigationSources returns the registered entity sets and singletons in
// registration order.
func (b *ModelBuilder) NavigationSources() []NavigationSourceConfiguration {
	sources := make([]NavigationSourceConfiguration, 0, len(b.sourceOrder))
	for _, name := range b.sourceOrder {
		sources = append(sources, b.navigationSources[name])
	}
	return sources
}

// NavigationSource returns the navigation source with the given name.
func (b *ModelBuilder) NavigationSource(name string) (NavigationSourceConfiguration, bool) {
	source, ok := b.navigationSources[name]
	return source, ok
}

// Actions returns the registered action configurations in registration
// order.
func (b *ModelBuilder) Actions() []*ActionConfiguration {
	return append([]*ActionConfiguration(nil), b.actions...)
}

// Functions returns the registered function configurations in
// registration order.
func (b *ModelBuilder) Functions() []*FunctionConfiguration {
	return append([]*FunctionConfiguration(nil), b.functions...)
}

// Operations returns all registered operations, actions first, each group
// in registration order.
func (b *ModelBuilder) Operations() []Operation {
	operations := make([]Operation, 0, len(b.actions)+len(b.functions))
	for _, action := range b.actions {
		operations = append(operations, action)
	}
	for _, function := range b.functions {
		operations = append(operations, function)
	}
	return operations
}

func (b *ModelBuilder) logRegistered(message, key string, cfg TypeConfiguration) {
	b.logger.Debug(message,
		key, cfg.FullName(),
		"goType", cfg.GoType().String())
	if b.observability != nil {
		b.observability.Metrics().RecordTypeRegistered(context.Background(), cfg.Kind().String())
	}
}
