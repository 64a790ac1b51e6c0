package modelbuilder

// NavigationSourceKind identifies the kind of a navigation source.
type NavigationSourceKind int

const (
	NavigationSourceKindEntitySet NavigationSourceKind = iota + 1
	NavigationSourceKindSingleton
)

func (k NavigationSourceKind) String() string {
	switch k {
	case NavigationSourceKindEntitySet:
		return "entity set"
	case NavigationSourceKindSingleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// NavigationSourceConfiguration is the common surface of entity set and
// singleton configurations.
type NavigationSourceConfiguration interface {
	// Name returns the source name used for addressing.
	Name() string
	// Kind returns the source kind.
	Kind() NavigationSourceKind
	// EntityType returns the entity type exposed by this source.
	EntityType() *EntityTypeConfiguration
	// Annotations returns the source's vocabulary annotations.
	Annotations() *AnnotationCollection
}

type navigationSourceBase struct {
	name        string
	entityType  *EntityTypeConfiguration
	annotations *AnnotationCollection
}

func (s *navigationSourceBase) Name() string { return s.name }

func (s *navigationSourceBase) EntityType() *EntityTypeConfiguration { return s.entityType }

func (s *navigationSourceBase) Annotations() *AnnotationCollection {
	if s.annotations == nil {
		s.annotations = NewAnnotationCollection()
	}
	return s.annotations
}

// EntitySetConfiguration configures a named collection of entities of one
// entity type.
type EntitySetConfiguration struct {
	navigationSourceBase
}

func (s *EntitySetConfiguration) Kind() NavigationSourceKind { return NavigationSourceKindEntitySet }

// SingletonConfiguration configures a single named entity instance.
type SingletonConfiguration struct {
	navigationSourceBase
}

func (s *SingletonConfiguration) Kind() NavigationSourceKind { return NavigationSourceKindSingleton }
