package dbnotify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type captured struct {
	events []*Event
}

func (c *captured) Consume(_ context.Context, ev *Event) {
	c.events = append(c.events, ev)
}

func TestDispatch(t *testing.T) {
	c := &captured{}
	l := NewListener(nil, "me", c)
	ctx := context.Background()

	assert.True(t, l.dispatch(ctx, `{"op":"added","id":7,"origin":"them"}`))
	assert.True(t, l.dispatch(ctx, `{"op":"removed","id":7,"origin":"them"}`))
	assert.False(t, l.dispatch(ctx, `{"op":"added","id":8,"origin":"me"}`), "own events are skipped")
	assert.False(t, l.dispatch(ctx, `{"op":"renamed","id":9,"origin":"them"}`))
	assert.False(t, l.dispatch(ctx, `not json`))

	assert.Equal(t, []*Event{
		{Op: OpAdded, ID: 7, Origin: "them"},
		{Op: OpRemoved, ID: 7, Origin: "them"},
	}, c.events)
}
