// Package dataset loads bridge records from the JSON data files and writes
// enrichment results back in place. Only lat, lon and coord_quelle of
// updated records are touched; every other field and the key order of the
// file are preserved.
package dataset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/sells-group/bridge-geocode/internal/model"
)

// Kind names a data file layout.
type Kind string

const (
	// KindFlat is a top-level "bruecken" array.
	KindFlat Kind = "flat"
	// KindDistricts is "bezirke[].bruecken" plus a top-level
	// "erhaltungsmassnahmen" array.
	KindDistricts Kind = "districts"
)

// Section names reported for records of the districts layout.
const (
	SectionDistricts   = "bezirke"
	SectionMaintenance = "erhaltungsmassnahmen"
)

// Valid reports whether k is a known layout.
func (k Kind) Valid() bool {
	return k == KindFlat || k == KindDistricts
}

// File is a data file to process.
type File struct {
	Path string `yaml:"path" mapstructure:"path"`
	Kind Kind   `yaml:"kind" mapstructure:"kind"`
}

// Document is a loaded data file and the bridges it contains.
type Document struct {
	Path    string
	Kind    Kind
	Bridges []*model.Bridge

	raw []byte
}

var outputOptions = &pretty.Options{Width: 1, Prefix: "", Indent: "  "}

// LoadAll loads every file that exists. Missing files are skipped with a
// log line; any other failure aborts.
func LoadAll(files []File) ([]*Document, error) {
	log := zap.L().With(zap.String("component", "dataset"))

	var docs []*Document
	for _, f := range files {
		if _, err := os.Stat(f.Path); errors.Is(err, fs.ErrNotExist) {
			log.Info("skipping data file (not found)", zap.String("path", f.Path))
			continue
		}
		doc, err := Load(f.Path, f.Kind)
		if err != nil {
			return nil, err
		}
		log.Info("loaded data file",
			zap.String("path", f.Path),
			zap.String("kind", string(f.Kind)),
			zap.Int("bridges", len(doc.Bridges)),
		)
		docs = append(docs, doc)
	}
	return docs, nil
}

// Load reads and parses one data file.
func Load(path string, kind Kind) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return Parse(raw, path, kind)
}

// Parse parses data file contents. path is used as the record file name
// and as the write target of Save.
func Parse(raw []byte, path string, kind Kind) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, eris.Errorf("dataset: %s is not valid JSON", path)
	}

	doc := &Document{Path: path, Kind: kind, raw: raw}
	name := filepath.Base(path)
	root := gjson.ParseBytes(raw)

	switch kind {
	case KindFlat:
		list := root.Get("bruecken")
		if !list.IsArray() {
			return nil, eris.Errorf("dataset: %s has no bruecken array", path)
		}
		list.ForEach(func(i, rec gjson.Result) bool {
			b := bridgeFrom(rec, "bruecken."+i.String())
			b.File = name
			doc.Bridges = append(doc.Bridges, b)
			return true
		})

	case KindDistricts:
		root.Get("bezirke").ForEach(func(i, district gjson.Result) bool {
			area := district.Get("bezirk").String()
			district.Get("bruecken").ForEach(func(j, rec gjson.Result) bool {
				b := bridgeFrom(rec, "bezirke."+i.String()+".bruecken."+j.String())
				b.File = name
				b.Section = SectionDistricts
				b.Area = area
				doc.Bridges = append(doc.Bridges, b)
				return true
			})
			return true
		})
		root.Get("erhaltungsmassnahmen").ForEach(func(i, rec gjson.Result) bool {
			b := bridgeFrom(rec, "erhaltungsmassnahmen."+i.String())
			b.File = name
			b.Section = SectionMaintenance
			doc.Bridges = append(doc.Bridges, b)
			return true
		})

	default:
		return nil, eris.Errorf("dataset: unknown kind %q for %s", kind, path)
	}

	return doc, nil
}

func bridgeFrom(rec gjson.Result, path string) *model.Bridge {
	lat, lon := rec.Get("lat"), rec.Get("lon")
	b := &model.Bridge{
		ID:          rec.Get("id").String(),
		Area:        rec.Get("bezirk").String(),
		Name:        rec.Get("name").String(),
		AltName:     rec.Get("name_original").String(),
		Lat:         number(lat),
		Lon:         number(lon),
		Detail:      rec.Get("detail").String(),
		CoordSource: rec.Get("coord_quelle").String(),
		Path:        path,
	}
	if present(lat) && present(lon) && !b.HasCoords() {
		b.KeepCoords = true
	}
	return b
}

// present reports whether a coordinate field is present and not null.
func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// number returns a JSON number as a float. Strings holding a number are
// accepted; null, missing and anything else yield nil.
func number(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		v := r.Float()
		return &v
	case gjson.String:
		v, err := strconv.ParseFloat(r.Str, 64)
		if err != nil {
			return nil
		}
		return &v
	default:
		return nil
	}
}

// Updated returns the number of bridges changed in this run.
func (d *Document) Updated() int {
	var n int
	for _, b := range d.Bridges {
		if b.Updated {
			n++
		}
	}
	return n
}

// Bytes returns the document with the coordinates of updated bridges
// written in, indented with two spaces.
func (d *Document) Bytes() ([]byte, error) {
	out := d.raw
	for _, b := range d.Bridges {
		if !b.Updated || b.Lat == nil || b.Lon == nil {
			continue
		}
		var err error
		for _, set := range []struct {
			key   string
			value any
		}{
			{"lat", *b.Lat},
			{"lon", *b.Lon},
			{"coord_quelle", b.CoordSource},
		} {
			out, err = sjson.SetBytes(out, b.Path+"."+set.key, set.value)
			if err != nil {
				return nil, eris.Wrapf(err, "dataset: set %s.%s", b.Path, set.key)
			}
		}
	}
	return pretty.PrettyOptions(out, outputOptions), nil
}

// Save writes the document back to its path.
func (d *Document) Save() error {
	out, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(d.Path, out, 0o644); err != nil {
		return eris.Wrapf(err, "dataset: write %s", d.Path)
	}
	d.raw = out
	return nil
}
