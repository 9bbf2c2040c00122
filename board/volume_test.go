package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestGainEndpoints(t *testing.T) {
	assert.Equal(t, 0.0, Gain(0))
	assert.Equal(t, 1.0, Gain(100))
	assert.Equal(t, 0.5, Gain(50))
}

func TestGainIsLinear(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(MinVolume, MaxVolume).Draw(rt, "v")
		assert.InDelta(rt, float64(v)/100, Gain(v), 1e-12)
		if v > 0 {
			assert.Greater(rt, Gain(v), Gain(v-1))
		}
	})
}

func TestSliderFill(t *testing.T) {
	assert.Equal(t, 5.0, SliderFill(0, 0, 100))
	assert.Equal(t, 5.0, SliderFill(3, 0, 100))
	assert.Equal(t, 5.0, SliderFill(5, 0, 100))
	assert.Equal(t, 6.0, SliderFill(6, 0, 100))
	assert.Equal(t, 100.0, SliderFill(100, 0, 100))
	assert.Equal(t, 50.0, SliderFill(15, 10, 20))
}

func TestPlaceTooltip(t *testing.T) {
	left := PlaceTooltip(TooltipRequest{Value: 42, ClientX: 120, PageX: 130, PageY: 300, SliderLeft: 100, SliderWidth: 200, TooltipWidth: 80})
	assert.Equal(t, Tooltip{Text: "Volume: 42%", Left: 140, Top: 260}, left)

	right := PlaceTooltip(TooltipRequest{Value: 90, ClientX: 250, PageX: 260, PageY: 300, SliderLeft: 100, SliderWidth: 200, TooltipWidth: 80})
	assert.Equal(t, Tooltip{Text: "Volume: 90%", Left: 170, Top: 260}, right)

	mid := PlaceTooltip(TooltipRequest{ClientX: 200, PageX: 200, SliderLeft: 100, SliderWidth: 200, TooltipWidth: 80})
	assert.Equal(t, 210.0, mid.Left, "the midpoint counts as the left half")
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("Air Horn", "air"))
	assert.True(t, Matches("Air Horn", "R H"))
	assert.True(t, Matches("Straße", "STRASSE"))
	assert.False(t, Matches("Boo", "air"))
	assert.True(t, Matches("Boo", ""))
}

func TestFilterShowsExactlyMatches(t *testing.T) {
	letters := rapid.RuneFrom([]rune("abcAB C"))
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.SliceOfN(rapid.StringOfN(letters, 1, 8, -1), 0, 6).Draw(rt, "names")
		filter := rapid.StringOfN(letters, 0, 3, -1).Draw(rt, "filter")

		var sounds []Button
		b := New(Config{})
		for i, n := range raw {
			b.AddRecord(recordNamed(int64(i+1), n))
			sounds = append(sounds, Button{Key: SoundKey(int64(i + 1)), Name: n})
		}
		visible := b.SetFilter(filter)

		want := []string{}
		for _, s := range sounds {
			if strings.Contains(strings.ToLower(s.Name), strings.ToLower(filter)) {
				want = append(want, s.Key)
			}
		}
		assert.Equal(rt, want, visible)
		if filter == "" {
			assert.Len(rt, visible, len(raw))
		}
	})
}
