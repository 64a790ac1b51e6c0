package modelbuilder

import (
	"reflect"
	"sort"
)

// EnumMember is one named value of an enum type.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumTypeConfiguration configures an enumeration type backed by a named
// Go integer type. Members are discovered from an EnumMembers method when
// the type provides one, and can be added explicitly with AddMember.
//
// # Example
//
//	type OrderStatus int
//
//	const (
//		OrderStatusPending OrderStatus = iota
//		OrderStatusShipped
//		OrderStatusDelivered
//	)
//
//	func (OrderStatus) EnumMembers() map[string]int64 {
//		return map[string]int64{
//			"Pending":   int64(OrderStatusPending),
//			"Shipped":   int64(OrderStatusShipped),
//			"Delivered": int64(OrderStatusDelivered),
//		}
//	}
type EnumTypeConfiguration struct {
	registry Registry
	goType   reflect.Type

	name            string
	namespace       string
	addedExplicitly bool
	isFlags         bool
	underlying      PrimitiveKind

	members     []EnumMember
	memberIndex map[string]int

	annotations *AnnotationCollection
}

func newEnumTypeConfiguration(registry Registry, goType reflect.Type) (*EnumTypeConfiguration, error) {
	underlying, err := enumUnderlyingKind(goType)
	if err != nil {
		return nil, err
	}
	cfg := &EnumTypeConfiguration{
		registry:    registry,
		goType:      goType,
		name:        goType.Name(),
		underlying:  underlying,
		memberIndex: make(map[string]int),
	}
	for _, member := range discoverEnumMembers(goType) {
		cfg.memberIndex[member.Name] = len(cfg.members)
		cfg.members = append(cfg.members, member)
	}
	return cfg, nil
}

// GoType returns the backing Go type.
func (c *EnumTypeConfiguration) GoType() reflect.Type { return c.goType }

// Name returns the schema type name.
func (c *EnumTypeConfiguration) Name() string { return c.name }

// SetName overrides the schema type name and marks the type as
// explicitly added.
func (c *EnumTypeConfiguration) SetName(name string) {
	if name != "" {
		c.name = name
		c.addedExplicitly = true
	}
}

// Namespace returns the type's namespace, falling back to the owning
// builder's namespace when none was set explicitly.
func (c *EnumTypeConfiguration) Namespace() string {
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
func (c *EnumTypeConfiguration) SetNamespace(namespace string) {
	if namespace != "" {
		c.namespace = namespace
		c.addedExplicitly = true
	}
}

// FullName returns the namespace-qualified type name.
func (c *EnumTypeConfiguration) FullName() string {
	ns := c.Namespace()
	if ns == "" {
		return c.name
	}
	return ns + "." + c.name
}

// AddedExplicitly reports whether the type was named or namespaced by the
// caller rather than discovered through type resolution.
func (c *EnumTypeConfiguration) AddedExplicitly() bool { return c.addedExplicitly }

// UnderlyingType returns the EDM primitive kind the enum values map to.
func (c *EnumTypeConfiguration) UnderlyingType() PrimitiveKind { return c.underlying }

// IsFlags reports whether members combine as bit flags.
func (c *EnumTypeConfiguration) IsFlags() bool { return c.isFlags }

// SetFlags marks the enum as a flags enum whose members combine with
// bitwise or.
func (c *EnumTypeConfiguration) SetFlags(flags bool) *EnumTypeConfiguration {
	c.isFlags = flags
	return c
}

// AddMember adds a named member. Re-adding a member with its existing
// value is a no-op; re-adding it with a different value is an error.
func (c *EnumTypeConfiguration) AddMember(name string, value int64) error {
	if name == "" {
		return nilArg("member name")
	}
	if i, ok := c.memberIndex[name]; ok {
		if c.members[i].Value != value {
			return enrich(ErrInvalidArgument, "enum member '%s' of '%s' already has value %d, requested %d",
				name, c.FullName(), c.members[i].Value, value)
		}
		return nil
	}
	c.memberIndex[name] = len(c.members)
	c.members = append(c.members, EnumMember{Name: name, Value: value})
	return nil
}

// RemoveMember removes a named member. Removing an absent member is a
// no-op.
func (c *EnumTypeConfiguration) RemoveMember(name string) {
	i, ok := c.memberIndex[name]
	if !ok {
		return
	}
	c.members = append(c.members[:i], c.members[i+1:]...)
	delete(c.memberIndex, name)
	for j := i; j < len(c.members); j++ {
		c.memberIndex[c.members[j].Name] = j
	}
}

// Members returns the members in declaration order.
func (c *EnumTypeConfiguration) Members() []EnumMember {
	out := make([]EnumMember, len(c.members))
	copy(out, c.members)
	return out
}

// Member returns the value of a named member.
func (c *EnumTypeConfiguration) Member(name string) (int64, bool) {
	i, ok := c.memberIndex[name]
	if !ok {
		return 0, false
	}
	return c.members[i].Value, true
}

// Annotations returns the type's vocabulary annotations.
func (c *EnumTypeConfiguration) Annotations() *AnnotationCollection {
	if c.annotations == nil {
		c.annotations = NewAnnotationCollection()
	}
	return c.annotations
}

// discoverEnumMembers collects members from an EnumMembers method on the
// type or its pointer. The method is discovered via reflection, there is
// no interface to implement. Members are ordered by value, then by name.
func discoverEnumMembers(enumType reflect.Type) []EnumMember {
	values := tryGetEnumMembers(enumType, enumType)
	if values == nil {
		values = tryGetEnumMembers(reflect.PointerTo(enumType), enumType)
	}
	if len(values) == 0 {
		return nil
	}
	members := make([]EnumMember, 0, len(values))
	for name, value := range values {
		members = append(members, EnumMember{Name: name, Value: value})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Value != members[j].Value {
			return members[i].Value < members[j].Value
		}
		return members[i].Name < members[j].Name
	})
	return members
}

// tryGetEnumMembers attempts to call the EnumMembers method on the given
// type. Returns nil if the method doesn't exist or has the wrong
// signature.
func tryGetEnumMembers(checkType, enumType reflect.Type) map[string]int64 {
	method, found := checkType.MethodByName("EnumMembers")
	if !found {
		return nil
	}

	// Verify the method signature: func() map[string]int64
	methodType := method.Type
	if methodType.NumIn() != 1 || methodType.NumOut() != 1 {
		return nil
	}
	if methodType.Out(0) != reflect.TypeOf(map[string]int64(nil)) {
		return nil
	}

	var receiver reflect.Value
	if checkType.Kind() == reflect.Ptr {
		receiver = reflect.New(enumType)
	} else {
		receiver = reflect.New(enumType).Elem()
	}
	result := receiver.MethodByName("EnumMembers").Call(nil)
	if len(result) != 1 {
		return nil
	}
	values, ok := result[0].Interface().(map[string]int64)
	if !ok {
		return nil
	}
	return values
}
