package upload

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/streamviewer/internal/common"
)

// Target is where one recording goes.
type Target struct {
	Domain   string
	Key      string
	FileName string
	URL      string
}

// TargetResolver turns the identity of a recording into a Target.
type TargetResolver interface {
	Resolve(ctx context.Context, domain, key, fileName string) (Target, error)
}

// Transport moves size bytes of body to target. It must stop early once ctx
// is done or body returns an error.
type Transport interface {
	Send(ctx context.Context, target Target, body io.Reader, size int64) (*Result, error)
}

// Publisher receives every job change. Publish must not block.
type Publisher interface {
	Publish(s Snapshot)
}

// PathFormatError reports a recording path that is not
// .../<marker>/<domain>/<key>/<file>.
type PathFormatError struct {
	Path   string
	Marker string
	Reason string
}

func (e *PathFormatError) Error() string {
	return fmt.Sprintf("path %q: %s (expected .../%s/<domain>/<key>/<file>)", e.Path, e.Reason, e.Marker)
}

func (e *PathFormatError) Is(target error) bool {
	return target == common.ErrorPathFormatInvalid
}

// ParseRecordingPath extracts domain, key and file name from the segments
// following the last occurrence of marker in path.
func ParseRecordingPath(path, marker string) (domain, key, file string, err error) {
	segs := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")

	idx := -1
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] == marker {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", "", "", &PathFormatError{Path: path, Marker: marker, Reason: "root marker not found"}
	}

	rest := segs[idx+1:]
	if len(rest) != 3 {
		return "", "", "", &PathFormatError{
			Path: path, Marker: marker,
			Reason: fmt.Sprintf("%d segments after root marker, want 3", len(rest)),
		}
	}
	for _, s := range rest {
		if s == "" || s == "." || s == ".." {
			return "", "", "", &PathFormatError{Path: path, Marker: marker, Reason: "empty segment"}
		}
	}
	return rest[0], rest[1], rest[2], nil
}

// TemplateResolver fills the {domain}, {key} and {file} placeholders of a
// URL template. Values are path-escaped.
type TemplateResolver struct {
	template string
}

func NewTemplateResolver(template string) (*TemplateResolver, error) {
	probe := strings.NewReplacer("{domain}", "d", "{key}", "k", "{file}", "f").Replace(template)
	u, err := url.Parse(probe)
	if err != nil {
		return nil, fmt.Errorf("upload url template: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upload url template %q: absolute url required", template)
	}
	return &TemplateResolver{template: template}, nil
}

func (r *TemplateResolver) Resolve(_ context.Context, domain, key, fileName string) (Target, error) {
	u := strings.NewReplacer(
		"{domain}", url.PathEscape(domain),
		"{key}", url.PathEscape(key),
		"{file}", url.PathEscape(fileName),
	).Replace(r.template)
	return Target{Domain: domain, Key: key, FileName: fileName, URL: u}, nil
}
