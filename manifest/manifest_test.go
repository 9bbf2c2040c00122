package manifest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoButtons = `[{"name":"Air Horn","soundPath":"air.mp3"},{"name":"Boo","soundPath":"boo.mp3"}]`

func TestParse(t *testing.T) {
	entries, err := Parse([]byte(twoButtons))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "Air Horn", SoundPath: "air.mp3"}, {Name: "Boo", SoundPath: "boo.mp3"}}, entries)
}

func TestParseEmpty(t *testing.T) {
	entries, err := Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestParseIgnoresExtraFields(t *testing.T) {
	entries, err := Parse([]byte(`[{"name":"Boo","soundPath":"boo.mp3","loud":true,"color":"red"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "Boo", SoundPath: "boo.mp3"}}, entries)
}

func TestParseRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"not json": `{{`,
		"object":   `{"name":"Boo"}`,
		"no name":  `[{"soundPath":"boo.mp3"}]`,
		"no path":  `[{"name":"Boo"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadBuiltin(t *testing.T) {
	entries, err := Load(context.Background(), nil, "")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "Air Horn", entries[0].Name)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buttons.json")
	require.NoError(t, os.WriteFile(path, []byte(twoButtons), 0o644))
	entries, err := Load(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), nil, filepath.Join(t.TempDir(), "nope.json"))
	var ff *FetchFailure
	require.True(t, errors.As(err, &ff))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/buttons.json":
			w.Write([]byte(twoButtons))
		case "/garbage.json":
			w.Write([]byte("<html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	entries, err := Load(ctx, srv.Client(), srv.URL+"/buttons.json")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = Load(ctx, srv.Client(), srv.URL+"/missing.json")
	assert.ErrorContains(t, err, "404")

	_, err = Load(ctx, srv.Client(), srv.URL+"/garbage.json")
	var ff *FetchFailure
	assert.ErrorAs(t, err, &ff)
}

func TestLoadResult(t *testing.T) {
	r := LoadResult(context.Background(), nil, filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, r.Failed())
	assert.Empty(t, r.Entries)

	r = LoadResult(context.Background(), nil, "")
	assert.False(t, r.Failed())
}
