package webapp

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ts4z/clicktunes/board"
	"github.com/ts4z/clicktunes/he"
	"github.com/ts4z/clicktunes/urlpath"
)

func (app *App) installBoardHandlers(r chi.Router) {
	r.Get("/", app.boardHandleFunc(app.handleBoardState))
	r.Get("/html", app.boardHandleFunc(app.handleBoardHTML))
	r.Post("/play/{key}", app.boardHandleFunc(app.handlePlay))
	r.Post("/ended/{key}", app.boardHandleFunc(app.handleEnded))
	r.Post("/delete-mode", app.boardHandleFunc(app.handleToggleDeleteMode))
	r.With(app.limiter.Wrap).Delete("/buttons/{key}", app.boardHandleFunc(app.handleDeleteButton))
	r.Post("/filter", app.boardHandleFunc(app.handleFilter))
	r.Post("/volume", app.boardHandleFunc(app.handleVolume))
	r.Get("/tooltip", app.boardHandleFunc(app.handleTooltip))
}

func (app *App) handleBoardState(_ context.Context, b *board.Board, w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, b.State())
}

func (app *App) handleBoardHTML(_ context.Context, b *board.Board, w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := b.Render(w); err != nil {
		he.SendErrorToHTTPClient(w, "render board", err)
	}
}

func (app *App) handlePlay(_ context.Context, b *board.Board, w http.ResponseWriter, r *http.Request) {
	key, err := urlpath.String(r, "key")
	if err != nil {
		he.SendJSONError(w, "parse url", err)
		return
	}
	pb, err := b.Play(key)
	if err != nil {
		he.SendJSONError(w, "play", err)
		return
	}
	writeJSON(w, pb)
}

func (app *App) handleEnded(_ context.Context, b *board.Board, w http.ResponseWriter, r *http.Request) {
	key, err := urlpath.String(r, "key")
	if err != nil {
		he.SendJSONError(w, "parse url", err)
		return
	}
	writeJSON(w, struct {
		Ended bool `json:"ended"`
	}{b.Ended(key)})
}

func (app *App) handleToggleDeleteMode(_ context.Context, b *board.Board, w http.ResponseWriter, _ *http.Request) {
	on := b.ToggleDeleteMode()
	writeJSON(w, struct {
		DeleteMode  bool   `json:"deleteMode"`
		RemoveLabel string `json:"removeLabel"`
	}{on, b.RemoveLabel()})
}

func (app *App) handleDeleteButton(ctx context.Context, b *board.Board, w http.ResponseWriter, r *http.Request) {
	key, err := urlpath.String(r, "key")
	if err != nil {
		he.SendJSONError(w, "parse url", err)
		return
	}
	if err := b.Delete(ctx, key); err != nil {
		he.SendJSONError(w, "delete button", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) handleFilter(_ context.Context, b *board.Board, w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := readJSON(r, &req); err != nil {
		he.SendJSONError(w, "filter", err)
		return
	}
	writeJSON(w, struct {
		Visible []string `json:"visible"`
	}{b.SetFilter(req.Text)})
}

func (app *App) handleVolume(_ context.Context, b *board.Board, w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value *int `json:"value"`
	}
	if err := readJSON(r, &req); err != nil {
		he.SendJSONError(w, "set volume", err)
		return
	}
	if req.Value == nil {
		he.SendJSONError(w, "set volume", board.ErrBadVolume)
		return
	}
	v, err := b.SetVolume(*req.Value)
	if err != nil {
		he.SendJSONError(w, "set volume", err)
		return
	}
	writeJSON(w, v)
}

func queryFloat(r *http.Request, name string) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, he.HTTPCodedErrorf(http.StatusBadRequest, "bad %s: %v", name, err)
	}
	return f, nil
}

func (app *App) handleTooltip(_ context.Context, b *board.Board, w http.ResponseWriter, r *http.Request) {
	tr := board.TooltipRequest{Value: b.Volume().Value}
	if s := r.URL.Query().Get("value"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < board.MinVolume || v > board.MaxVolume {
			he.SendJSONError(w, "place tooltip", board.ErrBadVolume)
			return
		}
		tr.Value = v
	}
	for name, dst := range map[string]*float64{
		"clientX":      &tr.ClientX,
		"pageX":        &tr.PageX,
		"pageY":        &tr.PageY,
		"left":         &tr.SliderLeft,
		"width":        &tr.SliderWidth,
		"tooltipWidth": &tr.TooltipWidth,
	} {
		f, err := queryFloat(r, name)
		if err != nil {
			he.SendJSONError(w, "place tooltip", err)
			return
		}
		*dst = f
	}
	writeJSON(w, board.PlaceTooltip(tr))
}
