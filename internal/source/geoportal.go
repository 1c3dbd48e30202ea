package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/bridge-geocode/internal/fetcher"
	"github.com/sells-group/bridge-geocode/internal/refindex"
)

// Geoportal property defaults for the Berlin bridge structure layer.
const (
	DefaultNameProperty = "bauwerksname"
	DefaultIDProperty   = "bauwerksnummer"
)

// GeoportalOptions configures the Geoportal source. Location is either an
// http(s) URL returning GeoJSON (for example a WFS GetFeature request with
// srsName=EPSG:4326) or a local .geojson, .json or .shp file. Coordinates
// must already be in WGS84 lon/lat order.
type GeoportalOptions struct {
	Location     string
	NameProperty string
	IDProperty   string
}

// Geoportal reads bridge structures as line geometries and indexes each at
// the mean of its vertices.
type Geoportal struct {
	opts GeoportalOptions
}

// NewGeoportal creates the Geoportal source.
func NewGeoportal(opts GeoportalOptions) *Geoportal {
	if opts.NameProperty == "" {
		opts.NameProperty = DefaultNameProperty
	}
	if opts.IDProperty == "" {
		opts.IDProperty = DefaultIDProperty
	}
	return &Geoportal{opts: opts}
}

func (g *Geoportal) Name() string  { return "geoportal" }
func (g *Geoportal) Label() string { return "Geoportal" }

// Build loads the configured location and indexes its line features.
func (g *Geoportal) Build(ctx context.Context, f fetcher.Fetcher) (*refindex.Index, error) {
	loc := g.opts.Location
	if loc == "" {
		return nil, eris.New("geoportal: no location configured")
	}

	var (
		features []refindex.LineFeature
		err      error
	)
	switch {
	case isURL(loc):
		doc, ferr := f.Fetch(ctx, loc)
		if ferr != nil {
			return nil, eris.Wrap(ferr, "geoportal: fetch")
		}
		features, err = ReadGeoJSON(doc.Body, loc, g.opts.NameProperty, g.opts.IDProperty)
	case strings.EqualFold(filepath.Ext(loc), ".shp"):
		features, err = ReadShapefile(loc, g.opts.NameProperty, g.opts.IDProperty)
	default:
		data, rerr := os.ReadFile(loc)
		if rerr != nil {
			return nil, eris.Wrapf(rerr, "geoportal: read %s", loc)
		}
		features, err = ReadGeoJSON(data, loc, g.opts.NameProperty, g.opts.IDProperty)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Debug("geoportal features read",
		zap.String("location", loc),
		zap.Int("features", len(features)),
	)
	return refindex.BuildLines(g.Label(), features), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ReadGeoJSON reduces a GeoJSON FeatureCollection to line features. Features
// whose geometry cannot be decoded are skipped.
func ReadGeoJSON(data []byte, origin, nameProp, idProp string) ([]refindex.LineFeature, error) {
	if !gjson.ValidBytes(data) {
		return nil, eris.New("geoportal: invalid geojson")
	}
	root := gjson.ParseBytes(data)
	if t := root.Get("type").String(); t != "FeatureCollection" {
		return nil, eris.Errorf("geoportal: expected FeatureCollection, got %q", t)
	}

	var (
		out     []refindex.LineFeature
		skipped int
	)
	root.Get("features").ForEach(func(_, feat gjson.Result) bool {
		raw := feat.Get("geometry")
		if !raw.Exists() || raw.Type == gjson.Null {
			skipped++
			return true
		}
		var g geom.T
		if err := geojson.Unmarshal([]byte(raw.Raw), &g); err != nil {
			skipped++
			return true
		}
		props := feat.Get("properties").Map()
		out = append(out, refindex.LineFeature{
			Name:     strings.TrimSpace(props[nameProp].String()),
			RefID:    strings.TrimSpace(props[idProp].String()),
			Geometry: g,
			Origin:   origin,
		})
		return true
	})

	if skipped > 0 {
		zap.L().Debug("geoportal: skipped features without usable geometry", zap.Int("skipped", skipped))
	}
	return out, nil
}

// ReadShapefile reduces the PolyLine shapes of an ESRI shapefile to line
// features.
func ReadShapefile(path, nameProp, idProp string) ([]refindex.LineFeature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoportal: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, fld := range reader.Fields() {
		name := strings.TrimRight(fld.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	attr := func(prop string) string {
		idx, ok := fieldIdx[strings.ToLower(prop)]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var (
		out     []refindex.LineFeature
		skipped int
	)
	for reader.Next() {
		_, shape := reader.Shape()
		pl, ok := shape.(*shp.PolyLine)
		if !ok {
			skipped++
			continue
		}
		g := polyLineToMultiLineString(pl)
		if g == nil {
			skipped++
			continue
		}
		out = append(out, refindex.LineFeature{
			Name:     attr(nameProp),
			RefID:    attr(idProp),
			Geometry: g,
			Origin:   path,
		})
	}

	if skipped > 0 {
		zap.L().Debug("geoportal: skipped non-polyline shapes", zap.Int("skipped", skipped))
	}
	return out, nil
}

// polyLineToMultiLineString converts a shapefile PolyLine to a
// geom.MultiLineString, one line string per part.
func polyLineToMultiLineString(pl *shp.PolyLine) *geom.MultiLineString {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	parts := min(pl.NumParts, int32(len(pl.Parts)))
	mls := geom.NewMultiLineString(geom.XY)
	for i := int32(0); i < parts; i++ {
		start := pl.Parts[i]
		end := int32(len(pl.Points))
		if i+1 < parts {
			end = pl.Parts[i+1]
		}
		if start < 0 || end > int32(len(pl.Points)) || end-start < 2 {
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}
		if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("geoportal: skipping malformed line part", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}
