package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bridge-geocode/internal/fetcher"
	"github.com/sells-group/bridge-geocode/internal/refindex"
)

// Wikipedia list defaults.
const (
	DefaultWikipediaBaseURL = "https://de.wikipedia.org/wiki/Liste_der_Br%C3%BCcken_in_Berlin"
	DefaultTableClass       = "wikitable"
)

// DefaultSegments are the alphabetical sub-pages of the Berlin bridge list.
var DefaultSegments = []string{
	"A", "B", "CD", "E", "F", "G", "H", "IJ", "K", "L",
	"M", "N", "O", "PQ", "R", "S", "T", "UV", "W", "XYZ",
}

// WikipediaOptions configures the Wikipedia list source.
type WikipediaOptions struct {
	BaseURL     string
	Segments    []string
	TableClass  string
	Concurrency int
}

// Wikipedia reads the segmented "Liste der Brücken in Berlin" pages. Each
// table row with a name and a "lat lon" location cell becomes a point.
type Wikipedia struct {
	opts WikipediaOptions
}

// NewWikipedia creates the Wikipedia source, filling unset options with
// defaults.
func NewWikipedia(opts WikipediaOptions) *Wikipedia {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultWikipediaBaseURL
	}
	if len(opts.Segments) == 0 {
		opts.Segments = DefaultSegments
	}
	if opts.TableClass == "" {
		opts.TableClass = DefaultTableClass
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Wikipedia{opts: opts}
}

func (w *Wikipedia) Name() string  { return "wikipedia" }
func (w *Wikipedia) Label() string { return "Wikipedia" }

// SegmentURL returns the page URL of one list segment.
func (w *Wikipedia) SegmentURL(seg string) string {
	return strings.TrimRight(w.opts.BaseURL, "/") + "/" + seg
}

// Build fetches all segments concurrently and indexes their rows in segment
// order, so later segments win on duplicate keys. A failed segment is
// skipped; the build fails only if every segment failed.
func (w *Wikipedia) Build(ctx context.Context, f fetcher.Fetcher) (*refindex.Index, error) {
	log := zap.L().With(zap.String("component", "source.wikipedia"))

	perSegment := make([][]refindex.PointRecord, len(w.opts.Segments))
	failed := make([]error, len(w.opts.Segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)
	for i, seg := range w.opts.Segments {
		g.Go(func() error {
			recs, err := w.segment(gctx, f, seg)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("skipping segment", zap.String("segment", seg), zap.Error(err))
				failed[i] = err
				return nil
			}
			log.Debug("segment parsed", zap.String("segment", seg), zap.Int("records", len(recs)))
			perSegment[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		records []refindex.PointRecord
		nFailed int
	)
	for i := range w.opts.Segments {
		if failed[i] != nil {
			nFailed++
			continue
		}
		records = append(records, perSegment[i]...)
	}
	if nFailed == len(w.opts.Segments) {
		return nil, eris.Wrapf(failed[0], "wikipedia: all %d segments failed", nFailed)
	}

	return refindex.BuildPoints(w.Label(), records), nil
}

func (w *Wikipedia) segment(ctx context.Context, f fetcher.Fetcher, seg string) ([]refindex.PointRecord, error) {
	url := w.SegmentURL(seg)
	doc, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "wikipedia: fetch segment %s", seg)
	}
	r, err := doc.Reader()
	if err != nil {
		return nil, eris.Wrapf(err, "wikipedia: decode segment %s", seg)
	}
	rows, err := ParseTableRows(r, w.opts.TableClass)
	if err != nil {
		return nil, eris.Wrapf(err, "wikipedia: parse segment %s", seg)
	}

	var recs []refindex.PointRecord
	for _, cells := range rows {
		if rec, ok := refindex.PointFromCells(cells, url); ok {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}
