// Package fetcher downloads reference documents over HTTP.
package fetcher

import (
	"bytes"
	"context"
	"io"
	"mime"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// Fetcher defines the interface for downloading remote documents.
type Fetcher interface {
	// Fetch downloads the URL and returns the full document.
	Fetch(ctx context.Context, url string) (*Document, error)

	// FetchIfChanged downloads the URL only if its ETag differs from etag.
	// When unchanged it returns (nil, false, nil).
	FetchIfChanged(ctx context.Context, url string, etag string) (*Document, bool, error)
}

// Document is a downloaded response body with the headers needed to cache
// and decode it.
type Document struct {
	URL         string
	Body        []byte
	ETag        string
	ContentType string
}

// Reader returns the body decoded to UTF-8 using the charset declared in
// ContentType. Bodies without a declared charset are returned as is.
func (d *Document) Reader() (io.Reader, error) {
	r := bytes.NewReader(d.Body)
	charset := charsetOf(d.ContentType)
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}

func charsetOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
