package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var schemeRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// The Resource type wraps a streamable file or remote resource.
type Resource struct {
	io.ReadCloser

	// Set for remote resources.
	url *url.URL

	// Filesystem path for local resources.
	path string
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	if r.url != nil {
		return r.url.String()
	}
	return r.path
}

// Return the remote path to this resource. If this is a remote resource then
// this method returns the base path (without leading /) of the remote URL.
// Otherwise, this method returns the same value as Path().
func (r *Resource) RemotePath() string {
	if r.IsRemote() {
		return path.Base(r.url.Path)
	}
	return r.Path()
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url != nil
}

// Return the file name of the resource without its extension. Rendered
// images are named after it.
func (r *Resource) Stem() string {
	var base string
	if r.url != nil {
		base = path.Base(r.url.Path)
	} else {
		base = filepath.Base(r.path)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Create a new Resource data stream. If relTo is specified and pathToResource
// does not define a scheme, then the path to the new Resource will be generated
// by concatenating the base path of relTo and pathToResource.
//
// Only inputs starting with a scheme (e.g. http://) are parsed as URLs; anything
// else is a plain filesystem path and may contain characters such as '#', '?'
// or '%'. This function can handle http/https URLs by delegating to the
// net/http package. The caller must make sure to close the returned
// io.ReadCloser to prevent mem leaks.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	if schemeRegex.MatchString(pathToResource) {
		resURL, err := url.Parse(pathToResource)
		if err != nil {
			return nil, err
		}
		return openRemote(resURL)
	}

	if relTo == nil {
		return openLocal(pathToResource)
	}

	// Relative to a remote parent; resolve against the parent url
	if relTo.url != nil {
		ref := &url.URL{Path: strings.Replace(pathToResource, `\`, `/`, -1)}
		return openRemote(relTo.url.ResolveReference(ref))
	}

	if filepath.IsAbs(pathToResource) {
		return openLocal(pathToResource)
	}
	prefix, err := filepath.Abs(relTo.path)
	if err != nil {
		return nil, fmt.Errorf("resource: could not detect abs path for %s; %s", relTo.path, err.Error())
	}
	return openLocal(filepath.Join(filepath.Dir(prefix), pathToResource))
}

func openLocal(pathToResource string) (*Resource, error) {
	cleanPath := filepath.Clean(pathToResource)
	reader, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	return &Resource{
		ReadCloser: reader,
		path:       cleanPath,
	}, nil
}

func openRemote(resURL *url.URL) (*Resource, error) {
	switch resURL.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", resURL.Scheme)
	}

	resp, err := http.Get(resURL.String())
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %s", resURL.String(), err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
	}
	return &Resource{
		ReadCloser: resp.Body,
		url:        resURL,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	res := &Resource{ReadCloser: io.NopCloser(source)}
	if schemeRegex.MatchString(name) {
		if resURL, err := url.Parse(name); err == nil {
			res.url = resURL
			return res
		}
	}
	res.path = name
	return res
}

// Ensure that the resource at pathToResource is available on the local
// filesystem and return its path. Local paths are returned as absolute paths
// without being copied. Remote resources are downloaded into workDir under
// their remote base name so that the rendered image names are preserved.
func Materialize(pathToResource, workDir string) (string, error) {
	res, err := NewResource(pathToResource, nil)
	if err != nil {
		return "", err
	}
	defer res.Close()

	if !res.IsRemote() {
		return filepath.Abs(res.path)
	}

	if err = os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("resource: could not create work dir: %w", err)
	}

	localPath := filepath.Join(workDir, res.RemotePath())
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("resource: could not create local copy of '%s': %w", res.Path(), err)
	}
	defer f.Close()

	if _, err = io.Copy(f, res); err != nil {
		return "", fmt.Errorf("resource: could not download '%s': %w", res.Path(), err)
	}

	return localPath, nil
}
