package refindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestIndex_PutGet(t *testing.T) {
	ix := New("Wikipedia")
	ix.Put("a", Entry{Lat: 1})
	ix.Put("", Entry{Lat: 9})
	ix.Put("b", Entry{Lat: 2})
	ix.Put("a", Entry{Lat: 3})

	e, ok := ix.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3.0, e.Lat)
	assert.Equal(t, []string{"a", "b"}, ix.Keys())
	assert.Equal(t, 2, ix.Len())

	_, ok = ix.Get("")
	assert.False(t, ok)
	assert.Equal(t, "Wikipedia", ix.Label())
}

func TestIndex_NilSafe(t *testing.T) {
	var ix *Index
	_, ok := ix.Get("x")
	assert.False(t, ok)
	assert.Zero(t, ix.Len())
	assert.Nil(t, ix.Keys())
	ix.Each(func(string, Entry) bool { t.Fatal("unexpected call"); return false })
}

func TestIndex_EachStops(t *testing.T) {
	ix := New("x")
	ix.Put("a", Entry{})
	ix.Put("b", Entry{})
	ix.Put("c", Entry{})

	var seen []string
	ix.Each(func(k string, _ Entry) bool {
		seen = append(seen, k)
		return k != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestParseCoordPair(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		lat     float64
		lon     float64
		matched bool
	}{
		{name: "plain", input: "52.5125 13.4175", lat: 52.5125, lon: 13.4175, matched: true},
		{name: "embedded", input: "Lage: 52.49 13.44 (Karte)", lat: 52.49, lon: 13.44, matched: true},
		{name: "negative", input: "-33.85 -151.2", lat: -33.85, lon: -151.2, matched: true},
		{name: "integers", input: "52 13", lat: 52, lon: 13, matched: true},
		{name: "single number", input: "52.5", matched: false},
		{name: "no numbers", input: "Spree", matched: false},
		{name: "empty", input: "", matched: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, ok := ParseCoordPair(tt.input)
			assert.Equal(t, tt.matched, ok)
			if tt.matched {
				assert.InDelta(t, tt.lat, lat, 1e-9)
				assert.InDelta(t, tt.lon, lon, 1e-9)
			}
		})
	}
}

func TestPointFromCells(t *testing.T) {
	row := []string{"img", "Oberbaumbrücke[3]", "Spree", "1896", "52.5020 13.4457"}
	rec, ok := PointFromCells(row, "https://example.org/O")
	require.True(t, ok)
	assert.Equal(t, "Oberbaumbrücke[3]", rec.Name)
	assert.InDelta(t, 52.5020, rec.Lat, 1e-9)
	assert.InDelta(t, 13.4457, rec.Lon, 1e-9)
	assert.Equal(t, "https://example.org/O", rec.Origin)

	_, ok = PointFromCells(row[:4], "x")
	assert.False(t, ok, "short row")

	_, ok = PointFromCells([]string{"", "Brücke", "", "", "keine Angabe"}, "x")
	assert.False(t, ok, "no coordinates")
}

func TestBuildPoints(t *testing.T) {
	ix := BuildPoints("Wikipedia", []PointRecord{
		{Name: "Oberbaumbrücke[3]", Lat: 52.50, Lon: 13.44, Origin: "u1"},
		{Name: "???", Lat: 1, Lon: 1},
		{Name: "Schillingbrücke", Lat: 52.51, Lon: 13.42, Origin: "u2"},
		{Name: "OBERBAUMBRÜCKE", Lat: 52.60, Lon: 13.50, Origin: "u3"},
	})

	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, []string{"oberbaumbruecke", "schillingbruecke"}, ix.Keys())

	e, ok := ix.Get("oberbaumbruecke")
	require.True(t, ok)
	assert.Equal(t, Entry{Lat: 52.60, Lon: 13.50, Source: "Wikipedia", SourceURL: "u3", RawName: "OBERBAUMBRÜCKE"}, e)
}

func TestCentroid(t *testing.T) {
	line := geom.NewLineStringFlat(geom.XY, []float64{13.0, 52.0, 13.2, 52.2})
	lon, lat, ok := Centroid(line)
	require.True(t, ok)
	assert.Equal(t, 13.1, lon)
	assert.Equal(t, 52.1, lat)
}

func TestCentroid_MultiLine(t *testing.T) {
	mls := geom.NewMultiLineStringFlat(geom.XY,
		[]float64{0, 0, 2, 0, 4, 4, 6, 8},
		[]int{4, 8},
	)
	lon, lat, ok := Centroid(mls)
	require.True(t, ok)
	assert.InDelta(t, 3.0, lon, 1e-12)
	assert.InDelta(t, 3.0, lat, 1e-12)
}

func TestCentroid_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		g    geom.T
	}{
		{name: "nil", g: nil},
		{name: "point", g: geom.NewPointFlat(geom.XY, []float64{1, 2})},
		{name: "empty line", g: geom.NewLineString(geom.XY)},
		{name: "empty multiline", g: geom.NewMultiLineString(geom.XY)},
		{name: "typed nil", g: (*geom.LineString)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := Centroid(tt.g)
			assert.False(t, ok)
		})
	}
}

func TestBuildLines(t *testing.T) {
	ix := BuildLines("Geoportal", []LineFeature{
		{Name: "Elsenbrücke", RefID: "B-17", Geometry: geom.NewLineStringFlat(geom.XY, []float64{13.0, 52.0, 13.2, 52.2}), Origin: "wfs"},
		{Name: "", Geometry: geom.NewLineStringFlat(geom.XY, []float64{1, 1, 2, 2})},
		{Name: "Leer", Geometry: geom.NewLineString(geom.XY)},
		{Name: "Punkt", Geometry: geom.NewPointFlat(geom.XY, []float64{1, 2})},
	})

	require.Equal(t, 1, ix.Len())
	e, ok := ix.Get("elsenbruecke")
	require.True(t, ok)
	assert.Equal(t, 13.1, e.Lon)
	assert.Equal(t, 52.1, e.Lat)
	assert.Equal(t, "B-17", e.RefID)
	assert.Equal(t, "Geoportal", e.Source)
	assert.Equal(t, "Elsenbrücke", e.RawName)
}
