// Package element builds HTML node trees declaratively: a tag, then
// options for attributes, children and event listeners.
//
//	element.New("button",
//		element.Class("button"),
//		element.Attr("aria-label", "Play"),
//		element.On("click", "play"),
//		element.Text("Boo"))
//
// Listeners can't be functions on the server, so On records the name of a
// client action in a data-on-<event> attribute and the page script
// dispatches it.
package element

import (
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Option func(*html.Node)

// New returns an element node with the options applied in order.
func New(tag string, opts ...Option) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Attr sets an attribute, replacing any earlier value.
func Attr(key, val string) Option {
	return func(n *html.Node) {
		setAttr(n, key, val)
	}
}

// Data sets data-<key>.
func Data(key, val string) Option {
	return Attr("data-"+key, val)
}

// Class adds classes to the class attribute.
func Class(names ...string) Option {
	return func(n *html.Node) {
		for _, c := range names {
			addClass(n, c)
		}
	}
}

// On declares a listener: the client runs action when event fires.
func On(event, action string) Option {
	return Data("on-"+event, action)
}

// Text appends a text child.
func Text(s string) Option {
	return func(n *html.Node) {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
}

// Children appends element children.  Nil children are skipped.
func Children(children ...*html.Node) Option {
	return func(n *html.Node) {
		for _, c := range children {
			if c != nil {
				n.AppendChild(c)
			}
		}
	}
}

// If applies opts only when cond holds.
func If(cond bool, opts ...Option) Option {
	return func(n *html.Node) {
		if !cond {
			return
		}
		for _, opt := range opts {
			opt(n)
		}
	}
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func classes(n *html.Node) []string {
	v, _ := getAttr(n, "class")
	return strings.Fields(v)
}

func hasClass(n *html.Node, c string) bool {
	return slices.Contains(classes(n), c)
}

func addClass(n *html.Node, c string) {
	cs := classes(n)
	if slices.Contains(cs, c) {
		return
	}
	setAttr(n, "class", strings.Join(append(cs, c), " "))
}

// Render writes each node as HTML.
func Render(w io.Writer, nodes ...*html.Node) error {
	for _, n := range nodes {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

// String renders nodes to a string, for templates and tests.
func String(nodes ...*html.Node) string {
	var sb strings.Builder
	if err := Render(&sb, nodes...); err != nil {
		return ""
	}
	return sb.String()
}
