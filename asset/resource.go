package asset

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedScheme = errors.New("resource: unsupported scheme")
	ErrFetchFailed       = errors.New("resource: fetch failed")
)

// Resource is a readable asset payload backed by a local file, an http(s)
// URL or an in-memory stream.
type Resource struct {
	io.ReadCloser
	url    *url.URL
	stream bool
}

// Path returns the location of this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Name returns the last element of the resource path.
func (r *Resource) Name() string {
	return path.Base(r.url.Path)
}

// Ext returns the lower-cased file extension of the resource including the dot.
func (r *Resource) Ext() string {
	return strings.ToLower(path.Ext(r.url.Path))
}

// IsRemote returns true if the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme == "http" || r.url.Scheme == "https"
}

// IsStream returns true for resources created by NewResourceFromStream.
func (r *Resource) IsStream() bool {
	return r.stream
}

// NewResource opens a resource. A relative pathToResource is resolved against
// the directory of relTo when relTo is not nil; this is how material libraries
// and textures referenced by a model are located.
//
// The caller must close the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	loc, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	if loc.Scheme == "" && relTo != nil && !filepath.IsAbs(loc.Path) {
		rel := loc.Path
		loc, _ = url.Parse(relTo.url.String())
		if loc.Scheme == "" {
			base, err := filepath.Abs(relTo.url.Path)
			if err != nil {
				return nil, fmt.Errorf("resource: could not detect abs path for %s: %w", relTo.Path(), err)
			}
			loc.Path = filepath.Join(filepath.Dir(base), rel)
		} else {
			loc.Path = path.Join(path.Dir(loc.Path), rel)
		}
	}

	var reader io.ReadCloser
	switch loc.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(loc.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(loc.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, loc.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s: status %d", ErrFetchFailed, loc.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, loc.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        loc,
	}, nil
}

// NewResourceFromStream wraps an in-memory payload. The name is used for
// extension sniffing and for resolving relative references.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	loc, err := url.Parse(name)
	if err != nil {
		loc = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        loc,
		stream:     true,
	}
}
