package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridge_SetCoords(t *testing.T) {
	t.Parallel()

	b := &Bridge{Name: "Elsenbrücke"}
	assert.False(t, b.HasCoords())

	b.SetCoords(52.49, 13.46, "Wikipedia: Elsenbrücke")
	require.True(t, b.HasCoords())
	assert.InDelta(t, 52.49, *b.Lat, 1e-9)
	assert.InDelta(t, 13.46, *b.Lon, 1e-9)
	assert.Equal(t, "Wikipedia: Elsenbrücke", b.CoordSource)
	assert.True(t, b.Updated)
}

func TestBridge_HasCoordsPartial(t *testing.T) {
	t.Parallel()

	lat := 52.5
	b := &Bridge{Lat: &lat}
	assert.False(t, b.HasCoords())
}

func TestBridge_HasCoordsKept(t *testing.T) {
	t.Parallel()

	b := &Bridge{KeepCoords: true}
	assert.True(t, b.HasCoords())
}

func TestBridge_Unmatched(t *testing.T) {
	t.Parallel()

	b := &Bridge{
		ID:      "17",
		Area:    "Mitte",
		Name:    "Weidendammer Brücke",
		Detail:  "Sanierung",
		File:    "bruecken.json",
		Section: "bezirke",
		Path:    "bezirke.0.bruecken.3",
	}
	assert.Equal(t, Unmatched{
		File:    "bruecken.json",
		Section: "bezirke",
		Area:    "Mitte",
		ID:      "17",
		Name:    "Weidendammer Brücke",
		Detail:  "Sanierung",
	}, b.Unmatched())
}
