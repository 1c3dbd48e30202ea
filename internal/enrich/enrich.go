// Package enrich fills in missing bridge coordinates from resolved
// reference entries.
package enrich

import (
	"go.uber.org/zap"

	"github.com/sells-group/bridge-geocode/internal/match"
	"github.com/sells-group/bridge-geocode/internal/model"
)

// Resolver resolves a bridge name to a reference entry.
type Resolver interface {
	Resolve(name string) (match.Result, bool)
}

// Result summarises one enrichment pass.
type Result struct {
	Total      int
	Already    int
	Matched    int
	Unmatched  []model.Unmatched
	ByStrategy map[match.Strategy]int
	BySource   map[string]int
}

// Add merges o into r.
func (r *Result) Add(o Result) {
	r.Total += o.Total
	r.Already += o.Already
	r.Matched += o.Matched
	r.Unmatched = append(r.Unmatched, o.Unmatched...)
	for k, v := range o.ByStrategy {
		if r.ByStrategy == nil {
			r.ByStrategy = make(map[match.Strategy]int)
		}
		r.ByStrategy[k] += v
	}
	for k, v := range o.BySource {
		if r.BySource == nil {
			r.BySource = make(map[string]int)
		}
		r.BySource[k] += v
	}
}

// Enrich resolves every bridge lacking coordinates and updates it in place.
// Bridges that already have both coordinates are counted and left alone, so
// running Enrich again never re-resolves a bridge.
func Enrich(bridges []*model.Bridge, r Resolver) Result {
	log := zap.L().With(zap.String("component", "enrich"))

	res := Result{
		ByStrategy: make(map[match.Strategy]int),
		BySource:   make(map[string]int),
	}

	for _, b := range bridges {
		res.Total++
		if b.HasCoords() {
			res.Already++
			continue
		}

		hit, ok := r.Resolve(b.Name)
		if !ok && b.AltName != "" && b.AltName != b.Name {
			hit, ok = r.Resolve(b.AltName)
		}
		if !ok {
			log.Debug("no match", zap.String("name", b.Name), zap.String("file", b.File))
			res.Unmatched = append(res.Unmatched, b.Unmatched())
			continue
		}

		b.SetCoords(hit.Entry.Lat, hit.Entry.Lon, hit.Provenance())
		res.Matched++
		res.ByStrategy[hit.Strategy]++
		res.BySource[hit.Source]++
		log.Debug("matched",
			zap.String("name", b.Name),
			zap.String("strategy", string(hit.Strategy)),
			zap.String("source", hit.Source),
			zap.String("reference", hit.Entry.RawName),
		)
	}

	return res
}
