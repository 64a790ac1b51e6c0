package modelbuilder

import "reflect"

// EntityTypeConfiguration configures an entity type: a structural type
// with identity, addressable through navigation sources and relationships.
type EntityTypeConfiguration struct {
	*StructuralTypeConfiguration
	keys []PropertyRef
}

func newEntityTypeConfiguration(registry Registry, goType reflect.Type) *EntityTypeConfiguration {
	cfg := &EntityTypeConfiguration{
		StructuralTypeConfiguration: newStructuralTypeConfiguration(registry, goType, TypeKindEntity),
	}
	cfg.self = cfg
	return cfg
}

// SetBaseType declares that this entity type derives from base. The Go
// type must embed the base's Go type, and no property name may collide
// across the resulting hierarchy.
func (e *EntityTypeConfiguration) SetBaseType(base *EntityTypeConfiguration) error {
	if base == nil {
		return nilArg("base type")
	}
	return e.setBaseType(base)
}

// ClearBaseType removes the base type link and records the relationship
// as explicitly empty.
func (e *EntityTypeConfiguration) ClearBaseType() *EntityTypeConfiguration {
	e.clearBaseType()
	return e
}

// MarkAbstract marks the entity type abstract. Idempotent.
func (e *EntityTypeConfiguration) MarkAbstract() *EntityTypeConfiguration {
	e.markAbstract()
	return e
}

// HasKey declares the named field as a key property, adding it as a
// primitive or enum property if it is not yet configured. Keys can only
// be declared on the root type of a hierarchy. Re-declaring a key is a
// no-op.
func (e *EntityTypeConfiguration) HasKey(fieldName string) (*EntityTypeConfiguration, error) {
	if fieldName == "" {
		return nil, nilArg("field name")
	}
	if e.baseType != nil {
		return nil, enrich(ErrKeyOnDerivedType, "type '%s' derives from '%s'", e.FullName(), e.baseType.FullName())
	}
	ref, err := PropertyRefOf(e.goType, fieldName)
	if err != nil {
		return nil, err
	}
	underlying, _ := stripNullable(ref.Type)
	if isEnumCandidate(underlying) {
		_, err = e.AddEnumProperty(ref)
	} else {
		_, err = e.AddProperty(ref)
	}
	if err != nil {
		return nil, err
	}
	for _, key := range e.keys {
		if key.Name == ref.Name {
			return e, nil
		}
	}
	e.keys = append(e.keys, ref)
	return e, nil
}

// RemoveKey removes the named field from the key set. The property
// itself stays configured.
func (e *EntityTypeConfiguration) RemoveKey(fieldName string) *EntityTypeConfiguration {
	kept := e.keys[:0]
	for _, key := range e.keys {
		if key.Name != fieldName {
			kept = append(kept, key)
		}
	}
	e.keys = kept
	return e
}

// Keys returns the key property identities declared on this type, in
// declaration order. Inherited keys live on the hierarchy root.
func (e *EntityTypeConfiguration) Keys() []PropertyRef {
	out := make([]PropertyRef, len(e.keys))
	copy(out, e.keys)
	return out
}
