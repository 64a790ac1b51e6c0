package modelbuilder

// Multiplicity describes how many related entities a navigation property
// can reach.
type Multiplicity int

const (
	// MultiplicityZeroOrOne relates to at most one entity. The backing
	// field must be a pointer so absence is representable.
	MultiplicityZeroOrOne Multiplicity = iota + 1
	// MultiplicityOne relates to exactly one entity.
	MultiplicityOne
	// MultiplicityMany relates to any number of entities. The backing
	// field must be a slice.
	MultiplicityMany
)

func (m Multiplicity) String() string {
	switch m {
	case MultiplicityZeroOrOne:
		return "ZeroOrOne"
	case MultiplicityOne:
		return "One"
	case MultiplicityMany:
		return "Many"
	default:
		return "Unknown"
	}
}

// NavigationPropertyConfiguration describes a relationship to another
// entity type. Multiplicity is fixed when the property is added and is
// validated against the shape of the backing field.
type NavigationPropertyConfiguration struct {
	propertyBase
	multiplicity   Multiplicity
	containsTarget bool
	target         *EntityTypeConfiguration
	constraints    map[string]string
	constraintKeys []string
}

func (p *NavigationPropertyConfiguration) Kind() PropertyKind { return PropertyKindNavigation }

// Multiplicity returns the relationship multiplicity.
func (p *NavigationPropertyConfiguration) Multiplicity() Multiplicity { return p.multiplicity }

// ContainsTarget reports whether related entities are contained by the
// declaring entity rather than reached through their own entity set.
func (p *NavigationPropertyConfiguration) ContainsTarget() bool { return p.containsTarget }

// Target returns the configuration of the related entity type.
func (p *NavigationPropertyConfiguration) Target() *EntityTypeConfiguration { return p.target }

// Nullable reports whether the relationship may be absent. It is derived
// from the multiplicity.
func (p *NavigationPropertyConfiguration) Nullable() bool {
	return p.multiplicity == MultiplicityZeroOrOne
}

// AddReferentialConstraint records that the dependent property on the
// declaring type references the principal property on the target type.
// Re-adding a dependent property replaces its principal.
func (p *NavigationPropertyConfiguration) AddReferentialConstraint(dependent, principal string) *NavigationPropertyConfiguration {
	if dependent == "" || principal == "" {
		return p
	}
	if p.constraints == nil {
		p.constraints = make(map[string]string)
	}
	if _, ok := p.constraints[dependent]; !ok {
		p.constraintKeys = append(p.constraintKeys, dependent)
	}
	p.constraints[dependent] = principal
	return p
}

// ReferentialConstraints returns the dependent-to-principal property
// pairs in the order they were added.
func (p *NavigationPropertyConfiguration) ReferentialConstraints() []ReferentialConstraint {
	out := make([]ReferentialConstraint, 0, len(p.constraintKeys))
	for _, dependent := range p.constraintKeys {
		out = append(out, ReferentialConstraint{Dependent: dependent, Principal: p.constraints[dependent]})
	}
	return out
}

// ReferentialConstraint ties a dependent property on the declaring type
// to a principal property on the target type.
type ReferentialConstraint struct {
	Dependent string
	Principal string
}
