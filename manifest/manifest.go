// Package manifest loads buttons.json, the list of sounds every board starts
// with.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/builtins"
)

// Banner is shown on the soundboard page when the manifest didn't load.
const Banner = "Could not load default buttons"

// maxManifestSize bounds a fetched manifest; a real one is a few kilobytes.
const maxManifestSize = 1 << 20

type Entry struct {
	Name      string `json:"name"`
	SoundPath string `json:"soundPath"`
}

// FetchFailure means the manifest couldn't be retrieved or wasn't a list of
// entries.  The board still works without it.
type FetchFailure struct {
	Source string
	Err    error
}

func (f *FetchFailure) Error() string {
	return fmt.Sprintf("can't load manifest from %s: %v", f.Source, f.Err)
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

func (f *FetchFailure) HTTPCode() int {
	return http.StatusBadGateway
}

// Parse decodes a manifest.  Entries must have both a name and a sound path.
func Parse(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var entries []Entry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("invalid manifest: entry %d has no name", i)
		}
		if strings.TrimSpace(e.SoundPath) == "" {
			return nil, fmt.Errorf("invalid manifest: entry %d (%q) has no soundPath", i, e.Name)
		}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Load reads the manifest named by source: an http or https URL, a file
// path, or "" for the built-in manifest.  Any failure is a *FetchFailure.
func Load(ctx context.Context, client *http.Client, source string) ([]Entry, error) {
	data, err := read(ctx, client, source)
	if err == nil {
		var entries []Entry
		if entries, err = Parse(data); err == nil {
			zap.S().Infof("loaded %d buttons from manifest %s", len(entries), describe(source))
			return entries, nil
		}
	}
	return nil, &FetchFailure{Source: describe(source), Err: err}
}

func describe(source string) string {
	if source == "" {
		return "built-in buttons.json"
	}
	return source
}

func read(ctx context.Context, client *http.Client, source string) ([]byte, error) {
	switch {
	case source == "":
		return builtins.ButtonsJSON(), nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return fetch(ctx, client, source)
	default:
		return os.ReadFile(source)
	}
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	rsp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, rsp.Status)
	}
	return io.ReadAll(io.LimitReader(rsp.Body, maxManifestSize))
}

// Result is what the server remembers about its manifest: the entries, or
// why there aren't any.
type Result struct {
	Entries []Entry
	Err     error
}

func LoadResult(ctx context.Context, client *http.Client, source string) *Result {
	entries, err := Load(ctx, client, source)
	if err != nil {
		zap.S().Warnf("%v", err)
		return &Result{Entries: []Entry{}, Err: err}
	}
	return &Result{Entries: entries}
}

// Failed reports whether the page should show Banner.
func (r *Result) Failed() bool {
	return r.Err != nil
}
