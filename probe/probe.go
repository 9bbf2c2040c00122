// Package probe decodes an uploaded clip far enough to know it is audio a
// browser can play, and how long it runs.
package probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// MaxDuration is the longest clip a soundboard button may play.
const MaxDuration = 5 * time.Minute

var ErrUnknownFormat = errors.New("unknown audio format")

type Info struct {
	Format     string        `json:"format"`
	SampleRate int           `json:"sampleRate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
}

func (i *Info) String() string {
	return fmt.Sprintf("%s, %d Hz, %d channel(s), %v", i.Format, i.SampleRate, i.Channels, i.Duration.Round(time.Millisecond))
}

type decoder struct {
	name   string
	decode func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)
}

var (
	mp3Decoder    = decoder{"mp3", mp3.Decode}
	vorbisDecoder = decoder{"vorbis", vorbis.Decode}
	wavDecoder    = decoder{"wav", func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(rc)
	}}
	flacDecoder = decoder{"flac", func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return flac.Decode(rc)
	}}

	decoders = map[string]decoder{
		"audio/mpeg":  mp3Decoder,
		"audio/mp3":   mp3Decoder,
		"audio/wav":   wavDecoder,
		"audio/x-wav": wavDecoder,
		"audio/wave":  wavDecoder,
		"audio/ogg":   vorbisDecoder,
		"audio/flac":  flacDecoder,
	}
)

// Probe decodes data as mimeType.
func Probe(mimeType string, data []byte) (info *Info, err error) {
	d, ok := decoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, mimeType)
	}

	// Some decoders panic on sufficiently strange input.
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("can't decode %s: %v", d.name, r)
		}
	}()

	s, format, err := d.decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("can't decode %s: %w", d.name, err)
	}
	defer s.Close()

	n := s.Len()
	if n <= 0 {
		return nil, fmt.Errorf("%s contains no audio", d.name)
	}
	info = &Info{
		Format:     d.name,
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Duration:   format.SampleRate.D(n),
	}
	if info.Duration > MaxDuration {
		return nil, fmt.Errorf("clip runs %v, longer than %v", info.Duration.Round(time.Second), MaxDuration)
	}
	return info, nil
}
