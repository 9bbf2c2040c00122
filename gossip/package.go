/*
package gossip tells everyone who cares that a sound was added or removed:
every live board, and every page connected over a websocket.

The name is imperfect, but see the section "Promotion" on https://en.wikipedia.org/wiki/Hadacol.
*/

package gossip

import "github.com/ts4z/clicktunes/soundmodel"

// Listener hears about store writes after they commit.  Implementations
// must not call back into the store.
type Listener interface {
	SoundAdded(sr *soundmodel.SoundRecord)
	SoundRemoved(id int64)
}
