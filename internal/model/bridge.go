package model

// Bridge is a structure record loaded from a bridge data file. Only the
// fields the geocoder reads or writes are modelled; the rest of the source
// object is carried by the dataset layer untouched.
type Bridge struct {
	ID          string   `json:"id,omitempty"`
	Area        string   `json:"bezirk,omitempty"`
	Name        string   `json:"name"`
	AltName     string   `json:"name_original,omitempty"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Detail      string   `json:"detail,omitempty"`
	CoordSource string   `json:"coord_quelle,omitempty"`

	// File and Section locate the record for reporting; Path is its
	// position inside the file's JSON document.
	File    string `json:"-"`
	Section string `json:"-"`
	Path    string `json:"-"`

	// Updated is set when coordinates were filled in during this run.
	Updated bool `json:"-"`

	// KeepCoords marks source coordinates that are set but not numbers,
	// such as "". They count as present and are never overwritten.
	KeepCoords bool `json:"-"`
}

// HasCoords reports whether both latitude and longitude are present.
func (b *Bridge) HasCoords() bool {
	return b.KeepCoords || (b.Lat != nil && b.Lon != nil)
}

// SetCoords fills in coordinates and their provenance and marks the record
// as updated.
func (b *Bridge) SetCoords(lat, lon float64, source string) {
	b.Lat = &lat
	b.Lon = &lon
	b.CoordSource = source
	b.Updated = true
}

// Unmatched is the report projection of a bridge that could not be
// resolved.
type Unmatched struct {
	File    string `json:"file"`
	Section string `json:"section,omitempty"`
	Area    string `json:"bezirk"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Detail  string `json:"detail,omitempty"`
}

// Unmatched projects b for the unmatched report.
func (b *Bridge) Unmatched() Unmatched {
	return Unmatched{
		File:    b.File,
		Section: b.Section,
		Area:    b.Area,
		ID:      b.ID,
		Name:    b.Name,
		Detail:  b.Detail,
	}
}
