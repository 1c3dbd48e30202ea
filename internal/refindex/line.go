package refindex

import (
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// LineFeature is a named line geometry from a geodata source. Geometry is
// expected to be a *geom.LineString or *geom.MultiLineString in lon/lat
// order.
type LineFeature struct {
	Name     string
	RefID    string
	Geometry geom.T
	Origin   string
}

// BuildLines indexes line features under label, reducing each geometry to
// the mean of its vertices. Features without a name, with an empty or
// unsupported geometry are skipped.
func BuildLines(label string, features []LineFeature) *Index {
	ix := New(label)
	var skipped int
	for _, f := range features {
		lon, lat, ok := Centroid(f.Geometry)
		if !ok {
			skipped++
			continue
		}
		if !ix.putName(f.Name, Entry{
			Lat:       lat,
			Lon:       lon,
			Source:    label,
			SourceURL: f.Origin,
			RawName:   f.Name,
			RefID:     f.RefID,
		}) {
			skipped++
		}
	}
	if skipped > 0 {
		zap.L().Debug("refindex: skipped line features",
			zap.String("source", label),
			zap.Int("skipped", skipped),
		)
	}
	return ix
}

// Centroid returns the arithmetic mean of all vertices of a LineString or
// MultiLineString, longitude and latitude independently. Other geometry
// types and empty geometries report false.
func Centroid(g geom.T) (lon, lat float64, ok bool) {
	switch g := g.(type) {
	case *geom.LineString:
		if g == nil {
			return 0, 0, false
		}
		return meanXY(g.FlatCoords(), g.Stride())
	case *geom.MultiLineString:
		if g == nil {
			return 0, 0, false
		}
		return meanXY(g.FlatCoords(), g.Stride())
	default:
		return 0, 0, false
	}
}

func meanXY(flat []float64, stride int) (x, y float64, ok bool) {
	if stride < 2 || len(flat) < stride {
		return 0, 0, false
	}
	var sumX, sumY float64
	n := 0
	for i := 0; i+1 < len(flat); i += stride {
		sumX += flat[i]
		sumY += flat[i+1]
		n++
	}
	return sumX / float64(n), sumY / float64(n), true
}
