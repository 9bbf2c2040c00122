package webapp

import (
	"bytes"
	"net/http"
	"time"

	"github.com/ts4z/clicktunes/he"
	"github.com/ts4z/clicktunes/soundmodel"
	"github.com/ts4z/clicktunes/urlpath"
)

func (app *App) handleRemoveSound(w http.ResponseWriter, r *http.Request) {
	id, err := urlpath.IDPathValue(r)
	if err != nil {
		he.SendJSONError(w, "parse url", err)
		return
	}
	if err := app.soundStorage.RemoveSound(r.Context(), id); err != nil {
		he.SendJSONError(w, "remove sound", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAudio serves a stored sound's payload.  Records are immutable, so
// the response may be cached for as long as the browser likes.
func (app *App) handleAudio(w http.ResponseWriter, r *http.Request) {
	id, err := urlpath.IDPathValue(r)
	if err != nil {
		he.SendErrorToHTTPClient(w, "parse url", err)
		return
	}
	sr, err := app.soundStorage.FetchSound(r.Context(), id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch sound", err)
		return
	}
	if !soundmodel.IsDataURL(sr.SoundPath) {
		http.Redirect(w, r, sr.SoundPath, http.StatusFound)
		return
	}
	mime, data, err := soundmodel.DecodeDataURL(sr.SoundPath)
	if err != nil {
		he.SendErrorToHTTPClient(w, "decode sound", err)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(data))
	audioServed.Add(1)
}
