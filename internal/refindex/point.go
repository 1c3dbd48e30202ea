package refindex

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Cell positions in a bridge-list table row.
const (
	nameCell     = 1
	locationCell = 4
	minCells     = 5
)

var coordPair = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s+(-?\d+(?:\.\d+)?)`)

// PointRecord is a named reference location from a tabular source.
type PointRecord struct {
	Name   string
	Lat    float64
	Lon    float64
	Origin string
}

// PointFromCells extracts a PointRecord from a table row. The name is cell 1
// and the first "lat lon" number pair in cell 4 is the location. Rows that
// are too short or carry no coordinates report false.
func PointFromCells(cells []string, origin string) (PointRecord, bool) {
	if len(cells) < minCells {
		return PointRecord{}, false
	}
	lat, lon, ok := ParseCoordPair(cells[locationCell])
	if !ok {
		return PointRecord{}, false
	}
	return PointRecord{
		Name:   strings.TrimSpace(cells[nameCell]),
		Lat:    lat,
		Lon:    lon,
		Origin: origin,
	}, true
}

// ParseCoordPair returns the first pair of whitespace-separated decimal
// numbers in s as latitude and longitude.
func ParseCoordPair(s string) (lat, lon float64, ok bool) {
	m := coordPair.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// BuildPoints indexes point records under label. Records whose name has an
// empty key are skipped; duplicate keys are last-write-wins.
func BuildPoints(label string, records []PointRecord) *Index {
	ix := New(label)
	var skipped int
	for _, r := range records {
		ok := ix.putName(r.Name, Entry{
			Lat:       r.Lat,
			Lon:       r.Lon,
			Source:    label,
			SourceURL: r.Origin,
			RawName:   r.Name,
		})
		if !ok {
			skipped++
		}
	}
	if skipped > 0 {
		zap.L().Debug("refindex: skipped unnamed point records",
			zap.String("source", label),
			zap.Int("skipped", skipped),
		)
	}
	return ix
}
