package modelbuilder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ElizabethOkerio/ModelBuilder/internal/observability"
	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/trace"
)

// Model is the validated result of Build: the namespace, the entity
// container, every registered schema type, navigation source and
// operation, and a content fingerprint of the whole graph. The
// fingerprint is frozen at build time, so it can serve as the ETag of a
// metadata document generated from the model.
type Model struct {
	namespace     string
	containerName string

	entityTypes  []*EntityTypeConfiguration
	complexTypes []*ComplexTypeConfiguration
	enumTypes    []*EnumTypeConfiguration
	sources      []NavigationSourceConfiguration
	actions      []*ActionConfiguration
	functions    []*FunctionConfiguration

	annotations []Annotation

	fingerprint uint64
}

// Build validates the accumulated configuration graph and produces a
// Model. All findings are collected before returning, so one call
// surfaces every problem; each finding matches ErrValidation with
// errors.Is. The builder stays usable after a failed Build, fix the
// reported configurations and call Build again.
//
// # Example
//
//	model, err := builder.Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(model.ETag())
func (b *ModelBuilder) Build(ctx context.Context) (*Model, error) {
	start := time.Now()
	if b.observability != nil {
		var span trace.Span
		ctx, span = b.observability.Tracer().StartBuild(ctx)
		defer span.End()
		span.SetAttributes(
			observability.TypeCountAttr(len(b.entityOrder)+len(b.complexOrder)+len(b.enumOrder)),
			observability.OperationCountAttr(len(b.actions)+len(b.functions)),
		)
	}

	if err := b.validate(); err != nil {
		if b.observability != nil {
			trace.SpanFromContext(ctx).RecordError(err)
			b.observability.Metrics().RecordBuild(ctx, time.Since(start), false)
		}
		return nil, err
	}

	model := &Model{
		namespace:     b.namespace,
		containerName: b.containerName,
		entityTypes:   b.EntityTypes(),
		complexTypes:  b.ComplexTypes(),
		enumTypes:     b.EnumTypes(),
		sources:       b.NavigationSources(),
		actions:       b.Actions(),
		functions:     b.Functions(),
		annotations:   b.Annotations().All(),
	}
	model.fingerprint = model.computeFingerprint()

	if b.observability != nil {
		b.observability.Metrics().RecordBuild(ctx, time.Since(start), true)
	}
	b.logger.Debug("Built model",
		"entityTypes", len(model.entityTypes),
		"complexTypes", len(model.complexTypes),
		"enumTypes", len(model.enumTypes),
		"navigationSources", len(model.sources),
		"operations", len(model.actions)+len(model.functions),
		"etag", model.ETag())
	return model, nil
}

// validate runs the deferred structural checks and joins every finding
// into one error.
func (b *ModelBuilder) validate() error {
	var errs []error

	for _, source := range b.NavigationSources() {
		root := hierarchyRoot(source.EntityType())
		if root.IsAbstract() {
			continue
		}
		if len(root.Keys()) == 0 {
			errs = append(errs, enrich(ErrValidation, "%s '%s' exposes entity type '%s' which declares no key",
				source.Kind(), source.Name(), source.EntityType().FullName()))
		}
	}

	for _, op := range b.Operations() {
		errs = append(errs, validateOperation(op)...)
	}
	errs = append(errs, validateOverloads(b.Operations())...)

	return errors.Join(errs...)
}

// hierarchyRoot walks the base type chain of an entity type to the root,
// where key properties live.
func hierarchyRoot(entity *EntityTypeConfiguration) *EntityTypeConfiguration {
	var cfg TypeConfiguration = entity
	for cfg.BaseType() != nil {
		cfg = cfg.BaseType()
	}
	if root, ok := cfg.(*EntityTypeConfiguration); ok {
		return root
	}
	return entity
}

// validateOperation checks one operation's parameter list for name
// collisions and functions for a missing return type. Configuration time
// is deliberately permissive about these; they only become defects once
// the operation is final.
func validateOperation(op Operation) []error {
	var errs []error
	seen := make(map[string]bool)
	binding := op.BindingParameter()
	for _, parameter := range op.Parameters() {
		name := parameter.Name()
		if !seen[name] {
			seen[name] = true
			continue
		}
		if binding != nil && binding.Name() == name && !parameter.IsBindingParameter() {
			errs = append(errs, enrich(ErrValidation, "%s '%s' parameter '%s' collides with the binding parameter",
				op.Kind(), op.FullName(), name))
			continue
		}
		errs = append(errs, enrich(ErrValidation, "%s '%s' declares parameter '%s' more than once",
			op.Kind(), op.FullName(), name))
	}
	if op.Kind() == OperationKindFunction {
		if _, ok := op.ReturnType(); !ok {
			errs = append(errs, enrich(ErrValidation, "function '%s' must declare a return type", op.FullName()))
		}
	}
	return errs
}

// validateOverloads rejects overloads of one operation name that share a
// parameter signature, since nothing could ever distinguish them at
// invocation time.
func validateOverloads(operations []Operation) []error {
	var errs []error
	seen := make(map[string]map[string]bool)
	for _, op := range operations {
		key := op.Kind().String() + " " + op.FullName()
		signature := parameterSignature(op)
		if seen[key] == nil {
			seen[key] = make(map[string]bool)
		}
		if seen[key][signature] {
			errs = append(errs, enrich(ErrValidation, "%s '%s' declares two overloads with the same parameter signature",
				op.Kind(), op.FullName()))
			continue
		}
		seen[key][signature] = true
	}
	return errs
}

func parameterSignature(op Operation) string {
	var signature string
	for _, parameter := range op.Parameters() {
		signature += parameter.Name() + ":" + parameter.TypeRef().Name() + ";"
	}
	return signature
}

// Namespace returns the model's namespace.
func (m *Model) Namespace() string { return m.namespace }

// ContainerName returns the entity container name.
func (m *Model) ContainerName() string { return m.containerName }

// EntityTypes returns the entity types in registration order.
func (m *Model) EntityTypes() []*EntityTypeConfiguration {
	return append([]*EntityTypeConfiguration(nil), m.entityTypes...)
}

// ComplexTypes returns the complex types in registration order.
func (m *Model) ComplexTypes() []*ComplexTypeConfiguration {
	return append([]*ComplexTypeConfiguration(nil), m.complexTypes...)
}

// EnumTypes returns the enumeration types in registration order.
func (m *Model) EnumTypes() []*EnumTypeConfiguration {
	return append([]*EnumTypeConfiguration(nil), m.enumTypes...)
}

// NavigationSources returns the entity sets and singletons in
// registration order.
func (m *Model) NavigationSources() []NavigationSourceConfiguration {
	return append([]NavigationSourceConfiguration(nil), m.sources...)
}

// NavigationSource returns the navigation source with the given name.
func (m *Model) NavigationSource(name string) (NavigationSourceConfiguration, bool) {
	for _, source := range m.sources {
		if source.Name() == name {
			return source, true
		}
	}
	return nil, false
}

// Actions returns the actions in registration order.
func (m *Model) Actions() []*ActionConfiguration {
	return append([]*ActionConfiguration(nil), m.actions...)
}

// Functions returns the functions in registration order.
func (m *Model) Functions() []*FunctionConfiguration {
	return append([]*FunctionConfiguration(nil), m.functions...)
}

// Operations returns all operations, actions first.
func (m *Model) Operations() []Operation {
	operations := make([]Operation, 0, len(m.actions)+len(m.functions))
	for _, action := range m.actions {
		operations = append(operations, action)
	}
	for _, function := range m.functions {
		operations = append(operations, function)
	}
	return operations
}

// Annotations returns the entity container annotations.
func (m *Model) Annotations() []Annotation {
	return append([]Annotation(nil), m.annotations...)
}

// Fingerprint returns the content hash of the model graph computed at
// build time. Two models describing the same schema have the same
// fingerprint regardless of registration order.
func (m *Model) Fingerprint() uint64 { return m.fingerprint }

// ETag returns the fingerprint formatted as a weak HTTP entity tag,
// suitable for a metadata document response.
func (m *Model) ETag() string {
	return fmt.Sprintf("W/%q", strconv.FormatUint(m.fingerprint, 16))
}

// computeFingerprint hashes a canonical rendering of the graph. Types,
// sources and operations are rendered in name order and every line
// carries only schema-relevant state, so the hash is independent of
// registration order but sensitive to any semantic change.
func (m *Model) computeFingerprint() uint64 {
	w := canonicalWriter{digest: xxhash.New()}

	w.line("namespace", m.namespace)
	w.line("container", m.containerName)
	for _, annotation := range sortedAnnotations(m.annotations) {
		w.annotation("containerannotation", annotation)
	}

	for _, enum := range sortedByName(m.enumTypes, (*EnumTypeConfiguration).FullName) {
		w.line("enum", enum.FullName(),
			"underlying="+enum.UnderlyingType().String(),
			"flags="+strconv.FormatBool(enum.IsFlags()))
		for _, member := range enum.Members() {
			w.line("member", member.Name, strconv.FormatInt(member.Value, 10))
		}
		w.annotations(enum.Annotations())
	}

	for _, entity := range sortedByName(m.entityTypes, (*EntityTypeConfiguration).FullName) {
		w.line("entitytype", entity.FullName())
		w.structuralBody(entity.structural())
		for _, key := range entity.Keys() {
			w.line("key", key.Name)
		}
	}

	for _, complexType := range sortedByName(m.complexTypes, (*ComplexTypeConfiguration).FullName) {
		w.line("complextype", complexType.FullName())
		w.structuralBody(complexType.structural())
	}

	for _, source := range sortedByName(m.sources, NavigationSourceConfiguration.Name) {
		w.line(source.Kind().String(), source.Name(), source.EntityType().FullName())
		w.annotations(source.Annotations())
	}

	operations := m.Operations()
	sort.Slice(operations, func(i, j int) bool {
		if operations[i].FullName() != operations[j].FullName() {
			return operations[i].FullName() < operations[j].FullName()
		}
		if operations[i].Kind() != operations[j].Kind() {
			return operations[i].Kind() < operations[j].Kind()
		}
		return parameterSignature(operations[i]) < parameterSignature(operations[j])
	})
	for _, op := range operations {
		w.line(op.Kind().String(), op.FullName())
		for _, parameter := range op.Parameters() {
			parts := []string{"parameter", parameter.Name(), parameter.TypeRef().Name(),
				"binding=" + strconv.FormatBool(parameter.IsBindingParameter()),
				"optional=" + strconv.FormatBool(parameter.IsOptional())}
			if value, ok := parameter.DefaultValue(); ok {
				parts = append(parts, "default="+value)
			}
			w.line(parts...)
		}
		if returnType, ok := op.ReturnType(); ok {
			w.line("returns", returnType.Name(), "nullable="+strconv.FormatBool(op.ReturnNullable()))
		}
		if source := op.NavigationSource(); source != nil {
			w.line("navigationsource", source.Name())
		}
		if path := op.EntitySetPath(); len(path) > 0 {
			w.line(append([]string{"entitysetpath"}, path...)...)
		}
		if function, ok := op.(*FunctionConfiguration); ok {
			w.line("composable", strconv.FormatBool(function.IsComposable()))
		}
		w.annotations(op.Annotations())
	}

	return w.digest.Sum64()
}

// canonicalWriter renders graph lines into the fingerprint digest.
type canonicalWriter struct {
	digest *xxhash.Digest
}

func (w *canonicalWriter) line(parts ...string) {
	for i, part := range parts {
		if i > 0 {
			_, _ = w.digest.WriteString(" ")
		}
		_, _ = w.digest.WriteString(part)
	}
	_, _ = w.digest.WriteString("\n")
}

func (w *canonicalWriter) annotation(prefix string, annotation Annotation) {
	w.line(prefix, annotation.Term, fmt.Sprintf("%v", annotation.Value))
}

func (w *canonicalWriter) annotations(collection *AnnotationCollection) {
	for _, annotation := range collection.Sorted() {
		w.annotation("annotation", annotation)
	}
}

// structuralBody renders the shared structural type state: hierarchy,
// flags, properties with their facets, and navigation properties with
// their constraints.
func (w *canonicalWriter) structuralBody(c *StructuralTypeConfiguration) {
	if base := c.BaseType(); base != nil {
		w.line("base", base.FullName())
	}
	if c.IsAbstract() {
		w.line("abstract")
	}
	if c.IsOpen() {
		w.line("open")
	}
	if c.HasInstanceAnnotations() {
		w.line("instanceannotations")
	}
	for _, property := range c.Properties() {
		w.property(property)
	}
	for _, ref := range c.IgnoredProperties() {
		w.line("ignored", ref.Name)
	}
	w.annotations(c.Annotations())
}

func (w *canonicalWriter) property(property PropertyConfiguration) {
	switch p := property.(type) {
	case *PrimitivePropertyConfiguration:
		parts := []string{"property", p.Name(), p.PrimitiveKind().String(),
			"nullable=" + strconv.FormatBool(p.Nullable())}
		if length, ok := p.MaxLength(); ok {
			parts = append(parts, "maxlength="+strconv.Itoa(length))
		}
		if precision, ok := p.Precision(); ok {
			parts = append(parts, "precision="+strconv.Itoa(precision))
		}
		if scale, ok := p.Scale(); ok {
			parts = append(parts, "scale="+strconv.Itoa(scale))
		}
		if srid, ok := p.SRID(); ok {
			parts = append(parts, "srid="+strconv.Itoa(srid))
		}
		if value, ok := p.DefaultValue(); ok {
			parts = append(parts, "default="+value)
		}
		w.line(parts...)
	case *EnumPropertyConfiguration:
		w.line("property", p.Name(), p.EnumType().FullName(),
			"nullable="+strconv.FormatBool(p.Nullable()))
	case *ComplexPropertyConfiguration:
		w.line("property", p.Name(), p.ComplexType().FullName(),
			"nullable="+strconv.FormatBool(p.Nullable()))
	case *CollectionPropertyConfiguration:
		w.line("property", p.Name(), p.ElementRef().Name(),
			"nullable="+strconv.FormatBool(p.Nullable()))
	case *UntypedPropertyConfiguration:
		w.line("property", p.Name(), "Edm.Untyped",
			"nullable="+strconv.FormatBool(p.Nullable()))
	case *NavigationPropertyConfiguration:
		w.line("navigation", p.Name(), p.Target().FullName(),
			"multiplicity="+p.Multiplicity().String(),
			"contained="+strconv.FormatBool(p.ContainsTarget()))
		for _, constraint := range p.ReferentialConstraints() {
			w.line("constraint", constraint.Dependent, constraint.Principal)
		}
	}
	w.annotations(property.Annotations())
}

// sortedAnnotations orders container annotations by term.
func sortedAnnotations(annotations []Annotation) []Annotation {
	out := append([]Annotation(nil), annotations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}

// sortedByName copies and orders configurations by a name accessor.
func sortedByName[T any](items []T, name func(T) string) []T {
	out := append([]T(nil), items...)
	sort.Slice(out, func(i, j int) bool { return name(out[i]) < name(out[j]) })
	return out
}
