package board

import "fmt"

const (
	MinVolume     = 0
	MaxVolume     = 100
	DefaultVolume = 50

	// The slider's filled color never shrinks below this, so the thumb
	// doesn't sit on a band of the unfilled color.
	minSliderFill = 5.0

	TooltipOffsetX = 10
	TooltipOffsetY = 40
)

// Gain maps a slider value to the audio element's volume, 0.0 through 1.0.
func Gain(value int) float64 {
	if value <= 0 {
		return 0
	}
	return float64(value) / 100
}

// SliderFill is the percentage of the slider track drawn in the filled
// color.
func SliderFill(value, min, max int) float64 {
	if max <= min {
		return 100
	}
	pct := float64(value-min) / float64(max-min) * 100
	if pct <= minSliderFill {
		return minSliderFill
	}
	return pct
}

type Volume struct {
	Value      int     `json:"value"`
	Gain       float64 `json:"gain"`
	SliderFill float64 `json:"sliderFill"`
}

func volumeOf(value int) Volume {
	return Volume{
		Value:      value,
		Gain:       Gain(value),
		SliderFill: SliderFill(value, MinVolume, MaxVolume),
	}
}

// TooltipRequest describes the cursor over the volume slider.  All
// positions are in CSS pixels.
type TooltipRequest struct {
	Value        int
	ClientX      float64
	PageX        float64
	PageY        float64
	SliderLeft   float64
	SliderWidth  float64
	TooltipWidth float64
}

type Tooltip struct {
	Text string  `json:"text"`
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// PlaceTooltip puts the tooltip beside the cursor on whichever side has
// room: to the right over the slider's left half, to the left otherwise.
func PlaceTooltip(r TooltipRequest) Tooltip {
	t := Tooltip{
		Text: fmt.Sprintf("Volume: %d%%", r.Value),
		Top:  r.PageY - TooltipOffsetY,
	}
	midpoint := r.SliderLeft + r.SliderWidth/2
	if r.ClientX > midpoint {
		t.Left = r.PageX - r.TooltipWidth - TooltipOffsetX
	} else {
		t.Left = r.PageX + TooltipOffsetX
	}
	return t
}
