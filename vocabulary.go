package modelbuilder

import (
	"sort"
	"strings"
)

// Well-known vocabulary terms from the Org.OData.Core.V1 vocabulary.
const (
	CoreComputed    = "Org.OData.Core.V1.Computed"
	CoreDescription = "Org.OData.Core.V1.Description"
	CoreImmutable   = "Org.OData.Core.V1.Immutable"
	CorePermissions = "Org.OData.Core.V1.Permissions"
)

// Annotation is one vocabulary annotation: a qualified term and its value.
type Annotation struct {
	Term  string
	Value interface{}
}

// AnnotationCollection holds the vocabulary annotations of one target,
// keyed by term. Re-adding a term replaces its value and keeps the
// original position.
type AnnotationCollection struct {
	byTerm map[string]int
	items  []Annotation
}

// NewAnnotationCollection creates an empty annotation collection.
func NewAnnotationCollection() *AnnotationCollection {
	return &AnnotationCollection{byTerm: make(map[string]int)}
}

// Add stores the annotation, replacing any previous value for its term.
func (c *AnnotationCollection) Add(annotation Annotation) *AnnotationCollection {
	if i, ok := c.byTerm[annotation.Term]; ok {
		c.items[i].Value = annotation.Value
		return c
	}
	c.byTerm[annotation.Term] = len(c.items)
	c.items = append(c.items, annotation)
	return c
}

// AddTerm stores a term and value, replacing any previous value.
func (c *AnnotationCollection) AddTerm(term string, value interface{}) *AnnotationCollection {
	return c.Add(Annotation{Term: term, Value: value})
}

// Has reports whether the term is present.
func (c *AnnotationCollection) Has(term string) bool {
	_, ok := c.byTerm[term]
	return ok
}

// Get returns the value stored for the term.
func (c *AnnotationCollection) Get(term string) (interface{}, bool) {
	i, ok := c.byTerm[term]
	if !ok {
		return nil, false
	}
	return c.items[i].Value, true
}

// All returns the annotations in insertion order.
func (c *AnnotationCollection) All() []Annotation {
	out := make([]Annotation, len(c.items))
	copy(out, c.items)
	return out
}

// Sorted returns the annotations ordered by term.
func (c *AnnotationCollection) Sorted() []Annotation {
	out := c.All()
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}

// Len returns the number of annotations.
func (c *AnnotationCollection) Len() int {
	return len(c.items)
}

// ParseAnnotationTag parses the annotation form used in struct tags:
// either "Term" for a boolean true annotation or "Term=Value" for a
// string-valued one.
//
//	annotation:Org.OData.Core.V1.Computed
//	annotation:Org.OData.Core.V1.Description=Primary contact
func ParseAnnotationTag(tag string) (Annotation, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Annotation{}, nilArg("annotation tag")
	}
	term, value, found := strings.Cut(tag, "=")
	term = strings.TrimSpace(term)
	if term == "" {
		return Annotation{}, enrich(ErrInvalidArgument, "annotation tag %q has no term", tag)
	}
	if !found {
		return Annotation{Term: term, Value: true}, nil
	}
	return Annotation{Term: term, Value: value}, nil
}

// InstanceAnnotationContainer is the capability a property type must
// provide to act as a type's instance annotation container. A struct can
// embed InstanceAnnotations to satisfy it.
type InstanceAnnotationContainer interface {
	// SetInstanceAnnotation stores an annotation on the instance.
	SetInstanceAnnotation(term string, value interface{})
	// InstanceAnnotation returns the value stored for the term.
	InstanceAnnotation(term string) (interface{}, bool)
	// InstanceAnnotations returns all stored annotations.
	InstanceAnnotations() map[string]interface{}
}

// InstanceAnnotations is a ready-made InstanceAnnotationContainer.
type InstanceAnnotations struct {
	values map[string]interface{}
}

// SetInstanceAnnotation stores an annotation on the instance.
func (a *InstanceAnnotations) SetInstanceAnnotation(term string, value interface{}) {
	if a.values == nil {
		a.values = make(map[string]interface{})
	}
	a.values[term] = value
}

// InstanceAnnotation returns the value stored for the term.
func (a *InstanceAnnotations) InstanceAnnotation(term string) (interface{}, bool) {
	value, ok := a.values[term]
	return value, ok
}

// InstanceAnnotations returns a copy of all stored annotations.
func (a *InstanceAnnotations) InstanceAnnotations() map[string]interface{} {
	out := make(map[string]interface{}, len(a.values))
	for term, value := range a.values {
		out[term] = value
	}
	return out
}
