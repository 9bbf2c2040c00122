// package protocol defines constants shared by the server and the page script.
package protocol

const (
	// Version indicates an incompatible change to the page/server interaction.
	// The hub sends it when a websocket connects; a page that was rendered
	// with a different number reloads to pick up the new script.
	Version = 1
)
