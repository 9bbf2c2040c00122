package probe

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pcmWAV builds a 16-bit PCM WAV file of silence.
func pcmWAV(sampleRate, channels, frames int) []byte {
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	dataSize := frames * blockAlign

	var b bytes.Buffer
	w := func(v any) { binary.Write(&b, binary.LittleEndian, v) }
	b.WriteString("RIFF")
	w(uint32(36 + dataSize))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1))
	w(uint16(channels))
	w(uint32(sampleRate))
	w(uint32(sampleRate * blockAlign))
	w(uint16(blockAlign))
	w(uint16(bitsPerSample))
	b.WriteString("data")
	w(uint32(dataSize))
	b.Write(make([]byte, dataSize))
	return b.Bytes()
}

func TestProbeWAV(t *testing.T) {
	info, err := Probe("audio/wav", pcmWAV(8000, 1, 4000))
	require.NoError(t, err)
	assert.Equal(t, "wav", info.Format)
	assert.Equal(t, 8000, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 500*time.Millisecond, info.Duration)
	assert.Contains(t, info.String(), "8000 Hz")
}

func TestProbeWAVAliases(t *testing.T) {
	for _, mime := range []string{"audio/x-wav", "audio/wave"} {
		_, err := Probe(mime, pcmWAV(44100, 2, 441))
		assert.NoError(t, err, mime)
	}
}

func TestProbeRejectsGarbage(t *testing.T) {
	for _, mime := range []string{"audio/wav", "audio/mpeg", "audio/ogg", "audio/flac"} {
		_, err := Probe(mime, []byte("this is not audio at all, not even a little"))
		assert.Error(t, err, mime)
	}
}

func TestProbeEmptyWAV(t *testing.T) {
	_, err := Probe("audio/wav", pcmWAV(8000, 1, 0))
	assert.Error(t, err)
}

func TestProbeUnknownType(t *testing.T) {
	_, err := Probe("audio/midi", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestProbeTooLong(t *testing.T) {
	_, err := Probe("audio/wav", pcmWAV(100, 1, 100*int(MaxDuration/time.Second)+100))
	assert.ErrorContains(t, err, "longer than")
}
