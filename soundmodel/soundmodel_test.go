package soundmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "empty", input: "", wantErr: true},
		{name: "one char", input: "a", wantErr: true},
		{name: "two chars", input: "ab"},
		{name: "fifteen chars", input: "abcdefghijklmno"},
		{name: "sixteen chars", input: "abcdefghijklmnop", wantErr: true},
		{name: "padding is not counted", input: "   a   ", wantErr: true},
		{name: "runes not bytes", input: "Olé"},
		{name: "fifteen accented", input: "ééééééééééééééé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateMIMEType(t *testing.T) {
	for _, ok := range AllowedMIMETypes() {
		assert.NoError(t, ValidateMIMEType(ok), ok)
	}
	assert.NoError(t, ValidateMIMEType("Audio/OGG; codecs=vorbis"))

	err := ValidateMIMEType("")
	require.Error(t, err)
	assert.Equal(t, "Please choose a sound file", err.Error())

	err = ValidateMIMEType("video/mp4")
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "file", ve.Field)
	assert.Equal(t, 400, ve.HTTPCode())
}

func TestDataURL(t *testing.T) {
	payload := []byte("ID3\x04\x00fake mp3")
	u := EncodeDataURL("audio/mpeg", payload)
	assert.True(t, IsDataURL(u))

	mime, got, err := DecodeDataURL(u)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", mime)
	assert.Equal(t, payload, got)

	mime, err = DataURLMIMEType(u)
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", mime)

	_, _, err = DecodeDataURL("air.mp3")
	assert.ErrorIs(t, err, ErrNotDataURL)
	_, _, err = DecodeDataURL("data:audio/mpeg,raw")
	assert.ErrorIs(t, err, ErrNotDataURL)
}

func TestSlugDropsPayload(t *testing.T) {
	sr := &SoundRecord{ID: 7, Name: "Boo", SoundPath: EncodeDataURL("audio/wav", []byte("RIFF"))}
	assert.Equal(t, &SoundSlug{ID: 7, Name: "Boo", MIMEType: "audio/wav"}, sr.Slug())

	sr = &SoundRecord{ID: 8, Name: "Air Horn", SoundPath: "air.mp3"}
	assert.Equal(t, &SoundSlug{ID: 8, Name: "Air Horn"}, sr.Slug())

	clone := sr.Clone()
	clone.Name = "changed"
	assert.Equal(t, "Air Horn", sr.Name)
}
