// Package board is the soundboard controller: one Board per browser
// session, holding its buttons, what's playing, delete mode, the name
// filter and the volume.
//
// A board plays one sound at a time.  Play marks the board busy and
// disables the button that started; until the client reports that sound
// ended, every Play fails with ErrBusy.
package board

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ts4z/clicktunes/manifest"
	"github.com/ts4z/clicktunes/soundmodel"
	"github.com/ts4z/clicktunes/varz"
)

var (
	playsStarted   = varz.NewInt("playsStarted")
	playsRejected  = varz.NewInt("playsRejected")
	buttonsDeleted = varz.NewInt("buttonsDeleted")
)

type Source int

const (
	FromManifest Source = iota
	FromStore
)

func (s Source) String() string {
	if s == FromStore {
		return "store"
	}
	return "manifest"
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	switch string(b) {
	case "manifest":
		*s = FromManifest
	case "store":
		*s = FromStore
	default:
		return fmt.Errorf("unknown button source %q", b)
	}
	return nil
}

type Button struct {
	Key       string `json:"key"`
	Source    Source `json:"source"`
	RecordID  int64  `json:"recordId,omitempty"`
	Name      string `json:"name"`
	SoundPath string `json:"soundPath"`
	Disabled  bool   `json:"disabled"`
	Hidden    bool   `json:"hidden"`
}

func ManifestKey(n int) string {
	return fmt.Sprintf("builtin-%d", n)
}

func SoundKey(id int64) string {
	return fmt.Sprintf("sound-%d", id)
}

// AudioURL is where the client fetches a stored sound's audio.
func AudioURL(id int64) string {
	return fmt.Sprintf("/api/sounds/%d/audio", id)
}

const (
	removeLabelOff = "Remove Button"
	removeLabelOn  = "Cancel"
)

// Remover deletes a stored sound.  state.SoundStorage satisfies it.
type Remover interface {
	RemoveSound(ctx context.Context, id int64) error
}

type Config struct {
	Remover  Remover
	Clock    clockwork.Clock
	Debounce time.Duration
	Entries  []manifest.Entry
	Sounds   []*soundmodel.SoundRecord
}

type Board struct {
	mu         sync.Mutex
	remover    Remover
	debouncer  *Debouncer
	buttons    []*Button
	playing    bool
	current    string
	deleteMode bool
	filter     string
	volume     int
}

// New builds a board with a button per manifest entry, in manifest order,
// followed by a button per stored sound, in id order.
func New(cfg Config) *Board {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	b := &Board{
		remover:   cfg.Remover,
		debouncer: NewDebouncer(clock, cfg.Debounce),
		volume:    DefaultVolume,
	}
	for i, e := range cfg.Entries {
		b.buttons = append(b.buttons, &Button{
			Key:       ManifestKey(i),
			Source:    FromManifest,
			Name:      e.Name,
			SoundPath: e.SoundPath,
		})
	}
	for _, sr := range cfg.Sounds {
		b.insertRecord(sr)
	}
	return b
}

func (b *Board) find(key string) (int, *Button) {
	for i, btn := range b.buttons {
		if btn.Key == key {
			return i, btn
		}
	}
	return -1, nil
}

// insertRecord adds a stored sound's button after every other stored sound
// with a smaller id.  Adding a sound that's already present does nothing.
func (b *Board) insertRecord(sr *soundmodel.SoundRecord) bool {
	key := SoundKey(sr.ID)
	if _, btn := b.find(key); btn != nil {
		return false
	}
	at := len(b.buttons)
	for i, btn := range b.buttons {
		if btn.Source == FromStore && btn.RecordID > sr.ID {
			at = i
			break
		}
	}
	btn := &Button{
		Key:       key,
		Source:    FromStore,
		RecordID:  sr.ID,
		Name:      sr.Name,
		SoundPath: AudioURL(sr.ID),
		Hidden:    !Matches(sr.Name, b.filter),
	}
	b.buttons = slices.Insert(b.buttons, at, btn)
	return true
}

func (b *Board) removeAt(i int) {
	if b.buttons[i].Key == b.current {
		b.playing = false
		b.current = ""
	}
	b.buttons = slices.Delete(b.buttons, i, i+1)
}

// AddRecord shows a newly stored sound.  It reports whether the board
// changed.
func (b *Board) AddRecord(sr *soundmodel.SoundRecord) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insertRecord(sr)
}

// RemoveRecord drops the button for a stored sound that's gone.  It reports
// whether the board changed.
func (b *Board) RemoveRecord(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, _ := b.find(SoundKey(id))
	if i < 0 {
		return false
	}
	b.removeAt(i)
	return true
}

func (b *Board) Buttons() []Button {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyButtons()
}

func (b *Board) copyButtons() []Button {
	out := make([]Button, 0, len(b.buttons))
	for _, btn := range b.buttons {
		out = append(out, *btn)
	}
	return out
}

// Playback tells the client what to play and how loud.
type Playback struct {
	Key  string  `json:"key"`
	URL  string  `json:"url"`
	Gain float64 `json:"gain"`
}

// Play starts the sound for key.  While anything is playing, it fails with
// ErrBusy and changes nothing.
func (b *Board) Play(key string) (*Playback, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.playing {
		playsRejected.Add(1)
		return nil, ErrBusy
	}
	_, btn := b.find(key)
	if btn == nil {
		return nil, ErrNoSuchButton
	}
	b.playing = true
	b.current = key
	btn.Disabled = true
	playsStarted.Add(1)
	return &Playback{Key: key, URL: btn.SoundPath, Gain: Gain(b.volume)}, nil
}

// Ended marks the current sound finished, re-enabling its button.  Reports
// for any other key are ignored; the return value says whether it counted.
func (b *Board) Ended(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.playing || b.current != key {
		return false
	}
	if _, btn := b.find(key); btn != nil {
		btn.Disabled = false
	}
	b.playing = false
	b.current = ""
	return true
}

func (b *Board) Playing() (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing, b.current
}

// ToggleDeleteMode flips delete mode and returns the new setting.
func (b *Board) ToggleDeleteMode() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteMode = !b.deleteMode
	return b.deleteMode
}

func (b *Board) DeleteMode() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deleteMode
}

// RemoveLabel is the text of the control that toggles delete mode.
func (b *Board) RemoveLabel() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return removeLabel(b.deleteMode)
}

func removeLabel(on bool) string {
	if on {
		return removeLabelOn
	}
	return removeLabelOff
}

// Delete removes a button in delete mode.  A stored sound is removed from
// the store first; if that fails, the board is left alone.  Manifest
// buttons only leave this board.
func (b *Board) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	if !b.deleteMode {
		b.mu.Unlock()
		return ErrDeleteModeOff
	}
	_, btn := b.find(key)
	if btn == nil {
		b.mu.Unlock()
		return ErrNoSuchButton
	}
	source, id := btn.Source, btn.RecordID
	b.mu.Unlock()

	// The store may notify every board, this one included, so it is called
	// without holding the lock.
	if source == FromStore && b.remover != nil {
		if err := b.remover.RemoveSound(ctx, id); err != nil {
			return fmt.Errorf("can't remove %s: %w", key, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.deleteMode {
		return ErrDeleteModeOff
	}
	if i, _ := b.find(key); i >= 0 {
		b.removeAt(i)
		buttonsDeleted.Add(1)
	}
	return nil
}

// SetFilter hides every button whose name doesn't contain text and returns
// the keys still visible.
func (b *Board) SetFilter(text string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = text
	visible := []string{}
	for _, btn := range b.buttons {
		btn.Hidden = !Matches(btn.Name, text)
		if !btn.Hidden {
			visible = append(visible, btn.Key)
		}
	}
	return visible
}

// FilterLater applies text after the debounce delay unless another call
// supersedes it, then hands the visible keys to done.
func (b *Board) FilterLater(text string, done func(visible []string)) {
	b.debouncer.Call(func() {
		visible := b.SetFilter(text)
		if done != nil {
			done(visible)
		}
	})
}

func (b *Board) Filter() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

func (b *Board) Visible() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	visible := []string{}
	for _, btn := range b.buttons {
		if !btn.Hidden {
			visible = append(visible, btn.Key)
		}
	}
	return visible
}

// SetVolume sets the slider value.  The returned gain applies to whatever
// is playing now as well as to the next sound.
func (b *Board) SetVolume(value int) (Volume, error) {
	if value < MinVolume || value > MaxVolume {
		return Volume{}, ErrBadVolume
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = value
	return volumeOf(value), nil
}

func (b *Board) Volume() Volume {
	b.mu.Lock()
	defer b.mu.Unlock()
	return volumeOf(b.volume)
}

// State is a snapshot of the board for the client.
type State struct {
	Buttons     []Button `json:"buttons"`
	Playing     bool     `json:"playing"`
	Current     string   `json:"current,omitempty"`
	DeleteMode  bool     `json:"deleteMode"`
	RemoveLabel string   `json:"removeLabel"`
	Filter      string   `json:"filter"`
	Volume      int      `json:"volume"`
	Gain        float64  `json:"gain"`
	SliderFill  float64  `json:"sliderFill"`
}

func (b *Board) State() *State {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := volumeOf(b.volume)
	return &State{
		Buttons:     b.copyButtons(),
		Playing:     b.playing,
		Current:     b.current,
		DeleteMode:  b.deleteMode,
		RemoveLabel: removeLabel(b.deleteMode),
		Filter:      b.filter,
		Volume:      v.Value,
		Gain:        v.Gain,
		SliderFill:  v.SliderFill,
	}
}

// Close cancels any pending debounced filter.
func (b *Board) Close() {
	b.debouncer.Stop()
}

// controlName mimics the name attribute the page has always put on play
// buttons: the display name with its first space removed.
func controlName(name string) string {
	return strings.Replace(name, " ", "", 1)
}
