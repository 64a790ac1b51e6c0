package modelbuilder

import "reflect"

// ComplexTypeConfiguration configures a complex type: a structural type
// without identity, embedded in entities or other complex types.
type ComplexTypeConfiguration struct {
	*StructuralTypeConfiguration
}

func newComplexTypeConfiguration(registry Registry, goType reflect.Type) *ComplexTypeConfiguration {
	cfg := &ComplexTypeConfiguration{
		StructuralTypeConfiguration: newStructuralTypeConfiguration(registry, goType, TypeKindComplex),
	}
	cfg.self = cfg
	return cfg
}

// SetBaseType declares that this complex type derives from base. The Go
// type must embed the base's Go type, and no property name may collide
// across the resulting hierarchy.
func (c *ComplexTypeConfiguration) SetBaseType(base *ComplexTypeConfiguration) error {
	if base == nil {
		return nilArg("base type")
	}
	return c.setBaseType(base)
}

// ClearBaseType removes the base type link and records the relationship
// as explicitly empty.
func (c *ComplexTypeConfiguration) ClearBaseType() *ComplexTypeConfiguration {
	c.clearBaseType()
	return c
}

// MarkAbstract marks the complex type abstract. Idempotent.
func (c *ComplexTypeConfiguration) MarkAbstract() *ComplexTypeConfiguration {
	c.markAbstract()
	return c
}
