package modelbuilder

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrimitiveKind identifies an EDM primitive type.
type PrimitiveKind int

const (
	PrimitiveKindNone PrimitiveKind = iota
	PrimitiveKindBinary
	PrimitiveKindBoolean
	PrimitiveKindByte
	PrimitiveKindDate
	PrimitiveKindDateTimeOffset
	PrimitiveKindDecimal
	PrimitiveKindDouble
	PrimitiveKindDuration
	PrimitiveKindGuid
	PrimitiveKindInt16
	PrimitiveKindInt32
	PrimitiveKindInt64
	PrimitiveKindSByte
	PrimitiveKindSingle
	PrimitiveKindString
	PrimitiveKindTimeOfDay
	// Geospatial kinds. Keep this block contiguous, IsGeospatial
	// relies on the range.
	PrimitiveKindGeographyPoint
	PrimitiveKindGeographyLineString
	PrimitiveKindGeographyPolygon
	PrimitiveKindGeographyMultiPoint
	PrimitiveKindGeographyMultiLineString
	PrimitiveKindGeographyMultiPolygon
	PrimitiveKindGeographyCollection
	PrimitiveKindGeometryPoint
	PrimitiveKindGeometryLineString
	PrimitiveKindGeometryPolygon
	PrimitiveKindGeometryMultiPoint
	PrimitiveKindGeometryMultiLineString
	PrimitiveKindGeometryMultiPolygon
	PrimitiveKindGeometryCollection
)

// String returns the qualified EDM name, such as "Edm.Int32".
func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveKindBinary:
		return "Edm.Binary"
	case PrimitiveKindBoolean:
		return "Edm.Boolean"
	case PrimitiveKindByte:
		return "Edm.Byte"
	case PrimitiveKindDate:
		return "Edm.Date"
	case PrimitiveKindDateTimeOffset:
		return "Edm.DateTimeOffset"
	case PrimitiveKindDecimal:
		return "Edm.Decimal"
	case PrimitiveKindDouble:
		return "Edm.Double"
	case PrimitiveKindDuration:
		return "Edm.Duration"
	case PrimitiveKindGuid:
		return "Edm.Guid"
	case PrimitiveKindInt16:
		return "Edm.Int16"
	case PrimitiveKindInt32:
		return "Edm.Int32"
	case PrimitiveKindInt64:
		return "Edm.Int64"
	case PrimitiveKindSByte:
		return "Edm.SByte"
	case PrimitiveKindSingle:
		return "Edm.Single"
	case PrimitiveKindString:
		return "Edm.String"
	case PrimitiveKindTimeOfDay:
		return "Edm.TimeOfDay"
	case PrimitiveKindGeographyPoint:
		return "Edm.GeographyPoint"
	case PrimitiveKindGeographyLineString:
		return "Edm.GeographyLineString"
	case PrimitiveKindGeographyPolygon:
		return "Edm.GeographyPolygon"
	case PrimitiveKindGeographyMultiPoint:
		return "Edm.GeographyMultiPoint"
	case PrimitiveKindGeographyMultiLineString:
		return "Edm.GeographyMultiLineString"
	case PrimitiveKindGeographyMultiPolygon:
		return "Edm.GeographyMultiPolygon"
	case PrimitiveKindGeographyCollection:
		return "Edm.GeographyCollection"
	case PrimitiveKindGeometryPoint:
		return "Edm.GeometryPoint"
	case PrimitiveKindGeometryLineString:
		return "Edm.GeometryLineString"
	case PrimitiveKindGeometryPolygon:
		return "Edm.GeometryPolygon"
	case PrimitiveKindGeometryMultiPoint:
		return "Edm.GeometryMultiPoint"
	case PrimitiveKindGeometryMultiLineString:
		return "Edm.GeometryMultiLineString"
	case PrimitiveKindGeometryMultiPolygon:
		return "Edm.GeometryMultiPolygon"
	case PrimitiveKindGeometryCollection:
		return "Edm.GeometryCollection"
	default:
		return "Edm.None"
	}
}

// IsGeospatial reports whether the kind is one of the geography or
// geometry kinds.
func (k PrimitiveKind) IsGeospatial() bool {
	return k >= PrimitiveKindGeographyPoint && k <= PrimitiveKindGeometryCollection
}

// primitivesByType maps well-known Go types that need an exact match
// before any kind-based classification. time.Duration would otherwise
// look like an enum candidate, []byte like a collection, and the
// geospatial value types like complex types.
var primitivesByType = map[reflect.Type]PrimitiveKind{
	reflect.TypeOf(time.Time{}):       PrimitiveKindDateTimeOffset,
	reflect.TypeOf(time.Duration(0)):  PrimitiveKindDuration,
	reflect.TypeOf(uuid.UUID{}):       PrimitiveKindGuid,
	reflect.TypeOf(decimal.Decimal{}): PrimitiveKindDecimal,
	reflect.TypeOf([]byte(nil)):       PrimitiveKindBinary,

	reflect.TypeOf(GeographyPoint{}):           PrimitiveKindGeographyPoint,
	reflect.TypeOf(GeographyLineString{}):      PrimitiveKindGeographyLineString,
	reflect.TypeOf(GeographyPolygon{}):         PrimitiveKindGeographyPolygon,
	reflect.TypeOf(GeographyMultiPoint{}):      PrimitiveKindGeographyMultiPoint,
	reflect.TypeOf(GeographyMultiLineString{}): PrimitiveKindGeographyMultiLineString,
	reflect.TypeOf(GeographyMultiPolygon{}):    PrimitiveKindGeographyMultiPolygon,
	reflect.TypeOf(GeographyCollection{}):      PrimitiveKindGeographyCollection,
	reflect.TypeOf(GeometryPoint{}):            PrimitiveKindGeometryPoint,
	reflect.TypeOf(GeometryLineString{}):       PrimitiveKindGeometryLineString,
	reflect.TypeOf(GeometryPolygon{}):          PrimitiveKindGeometryPolygon,
	reflect.TypeOf(GeometryMultiPoint{}):       PrimitiveKindGeometryMultiPoint,
	reflect.TypeOf(GeometryMultiLineString{}):  PrimitiveKindGeometryMultiLineString,
	reflect.TypeOf(GeometryMultiPolygon{}):     PrimitiveKindGeometryMultiPolygon,
	reflect.TypeOf(GeometryCollection{}):       PrimitiveKindGeometryCollection,
}

// primitiveKindOf maps a Go type to its EDM primitive kind. Named integer
// types are excluded because they classify as enum candidates; other named
// types of a primitive kind (for example a named string) map by kind.
func primitiveKindOf(t reflect.Type) (PrimitiveKind, bool) {
	if kind, ok := primitivesByType[t]; ok {
		return kind, true
	}
	if isEnumCandidate(t) {
		return PrimitiveKindNone, false
	}
	switch t.Kind() {
	case reflect.String:
		return PrimitiveKindString, true
	case reflect.Bool:
		return PrimitiveKindBoolean, true
	case reflect.Int8:
		return PrimitiveKindSByte, true
	case reflect.Uint8:
		return PrimitiveKindByte, true
	case reflect.Int16:
		return PrimitiveKindInt16, true
	case reflect.Int32, reflect.Uint16:
		return PrimitiveKindInt32, true
	case reflect.Int, reflect.Int64, reflect.Uint32:
		return PrimitiveKindInt64, true
	case reflect.Uint, reflect.Uint64:
		// No signed EDM integer holds the full range, Edm.Decimal does.
		return PrimitiveKindDecimal, true
	case reflect.Float32:
		return PrimitiveKindSingle, true
	case reflect.Float64:
		return PrimitiveKindDouble, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return PrimitiveKindBinary, true
		}
		return PrimitiveKindNone, false
	default:
		return PrimitiveKindNone, false
	}
}

// facetProfile describes which facets apply to a primitive kind, mirroring
// the specialization of property configurations by kind: decimals carry
// precision and scale, string-like kinds carry a maximum length, temporal
// kinds carry a precision, and geospatial kinds carry a coordinate
// reference system identifier.
type facetProfile struct {
	maxLength bool
	precision bool
	scale     bool
	srid      bool
}

func facetProfileOf(kind PrimitiveKind) facetProfile {
	switch kind {
	case PrimitiveKindDecimal:
		return facetProfile{precision: true, scale: true}
	case PrimitiveKindString, PrimitiveKindBinary:
		return facetProfile{maxLength: true}
	case PrimitiveKindDateTimeOffset, PrimitiveKindDuration, PrimitiveKindTimeOfDay:
		return facetProfile{precision: true}
	default:
		if kind.IsGeospatial() {
			return facetProfile{srid: true}
		}
		return facetProfile{}
	}
}

// enumUnderlyingKind maps a Go enum type's integer kind to the EDM
// primitive kinds permitted as enum underlying types.
func enumUnderlyingKind(t reflect.Type) (PrimitiveKind, error) {
	switch t.Kind() {
	case reflect.Int8:
		return PrimitiveKindSByte, nil
	case reflect.Uint8:
		return PrimitiveKindByte, nil
	case reflect.Int16:
		return PrimitiveKindInt16, nil
	case reflect.Int32, reflect.Uint16:
		return PrimitiveKindInt32, nil
	case reflect.Int, reflect.Int64, reflect.Uint32:
		return PrimitiveKindInt64, nil
	default:
		return PrimitiveKindNone, enrich(ErrInvalidArgument, "unsupported enum underlying type %s", t.Kind())
	}
}
