package modelbuilder

// Position is a single coordinate pair. Geography positions carry
// longitude in X and latitude in Y, in degrees; geometry positions carry
// planar coordinates in the units of their coordinate reference system.
type Position struct {
	X float64
	Y float64
}

// GeographyPoint is a single position on the round-earth coordinate
// system. Fields of this type map to Edm.GeographyPoint.
type GeographyPoint struct {
	Position Position
}

// GeographyLineString is a connected sequence of positions. It maps to
// Edm.GeographyLineString.
type GeographyLineString struct {
	Positions []Position
}

// GeographyPolygon is an outer ring followed by interior rings describing
// holes. It maps to Edm.GeographyPolygon.
type GeographyPolygon struct {
	Rings [][]Position
}

// GeographyMultiPoint maps to Edm.GeographyMultiPoint.
type GeographyMultiPoint struct {
	Points []Position
}

// GeographyMultiLineString maps to Edm.GeographyMultiLineString.
type GeographyMultiLineString struct {
	LineStrings [][]Position
}

// GeographyMultiPolygon maps to Edm.GeographyMultiPolygon.
type GeographyMultiPolygon struct {
	Polygons [][][]Position
}

// GeographyCollection holds a mix of geography values. It maps to
// Edm.GeographyCollection.
type GeographyCollection struct {
	Members []any
}

// GeometryPoint is a single position on a flat-earth coordinate system.
// Fields of this type map to Edm.GeometryPoint.
type GeometryPoint struct {
	Position Position
}

// GeometryLineString maps to Edm.GeometryLineString.
type GeometryLineString struct {
	Positions []Position
}

// GeometryPolygon maps to Edm.GeometryPolygon.
type GeometryPolygon struct {
	Rings [][]Position
}

// GeometryMultiPoint maps to Edm.GeometryMultiPoint.
type GeometryMultiPoint struct {
	Points []Position
}

// GeometryMultiLineString maps to Edm.GeometryMultiLineString.
type GeometryMultiLineString struct {
	LineStrings [][]Position
}

// GeometryMultiPolygon maps to Edm.GeometryMultiPolygon.
type GeometryMultiPolygon struct {
	Polygons [][][]Position
}

// GeometryCollection holds a mix of geometry values. It maps to
// Edm.GeometryCollection.
type GeometryCollection struct {
	Members []any
}

// DefaultSRID returns the coordinate reference system identifier assumed
// when a geospatial property declares none: 4326 (WGS 84) for geography
// kinds and 0 for geometry kinds.
func (k PrimitiveKind) DefaultSRID() int {
	if k >= PrimitiveKindGeographyPoint && k <= PrimitiveKindGeographyCollection {
		return 4326
	}
	return 0
}
