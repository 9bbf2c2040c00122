package board

import (
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/ts4z/clicktunes/element"
)

const (
	TrembleClass    = "tremble-in-fear"
	DeleteModeClass = "delete-mode-on"
)

func container(btn *Button, deleteMode bool) *html.Node {
	return element.New("div",
		element.Class("button-container"),
		element.Data("key", btn.Key),
		element.Data("name", btn.Name),
		element.If(btn.Hidden, element.Attr("style", "display:none")),
		element.Children(
			element.New("button",
				element.Class("button"),
				element.If(deleteMode, element.Class(TrembleClass)),
				element.Attr("name", controlName(btn.Name)),
				element.Data("key", btn.Key),
				element.Data("name", btn.Name),
				element.Attr("aria-label", fmt.Sprintf(`Play Sound for "%s" button`, btn.Name)),
				element.If(btn.Disabled, element.Attr("disabled", "")),
				element.On("click", "play"),
				element.Text(btn.Name)),
			element.New("button",
				element.Class("delete-btn"),
				element.If(deleteMode, element.Class(DeleteModeClass)),
				element.Data("key", btn.Key),
				element.Data("name", btn.Name),
				element.Attr("aria-label", fmt.Sprintf(`Delete "%s" button`, btn.Name)),
				element.On("click", "delete"),
				element.Children(element.New("span", element.Text("X")))),
		))
}

// Nodes returns a button-container element per button, in board order.
func (b *Board) Nodes() []*html.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	nodes := make([]*html.Node, 0, len(b.buttons))
	for _, btn := range b.buttons {
		nodes = append(nodes, container(btn, b.deleteMode))
	}
	return nodes
}

// Render writes the board's button containers as an HTML fragment.
func (b *Board) Render(w io.Writer) error {
	return element.Render(w, b.Nodes()...)
}
