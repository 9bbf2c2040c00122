package soundmodel

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinNameLength = 2
	MaxNameLength = 15
)

// SoundRecord is one persisted clip.  Records are never updated, only
// created and deleted.
type SoundRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SoundPath string `json:"soundPath"`
}

func (sr *SoundRecord) Clone() *SoundRecord {
	return &SoundRecord{
		ID:        sr.ID,
		Name:      sr.Name,
		SoundPath: sr.SoundPath,
	}
}

// Slug returns the record without its payload, for listings.
func (sr *SoundRecord) Slug() *SoundSlug {
	slug := &SoundSlug{
		ID:   sr.ID,
		Name: sr.Name,
	}
	if mime, err := DataURLMIMEType(sr.SoundPath); err == nil {
		slug.MIMEType = mime
	}
	return slug
}

// View object for listing stored sounds.
type SoundSlug struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	MIMEType string `json:"mimeType,omitempty"`
}

// ValidationError is returned for input that the add-sound form rejects.
// The message is meant to be shown to the user as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	return ve.Message
}

func (ve *ValidationError) HTTPCode() int {
	return 400
}

func invalid(field, f string, more ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(f, more...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateName checks the display name of a user-added sound.  Length
// is counted in runes so that "Olé" is three characters.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinNameLength || n > MaxNameLength {
		return invalid("name", "Name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	return nil
}

var allowedMIMETypes = map[string]struct{}{
	"audio/mpeg":  {},
	"audio/mp3":   {},
	"audio/wav":   {},
	"audio/x-wav": {},
	"audio/wave":  {},
	"audio/ogg":   {},
	"audio/flac":  {},
}

// AllowedMIMETypes lists the audio types accepted for upload.
func AllowedMIMETypes() []string {
	return []string{"audio/mpeg", "audio/mp3", "audio/wav", "audio/x-wav", "audio/wave", "audio/ogg", "audio/flac"}
}

// BaseMIMEType drops parameters such as "; codecs=vorbis" and lowercases
// what's left.
func BaseMIMEType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// ValidateMIMEType checks an uploaded file's declared type.
func ValidateMIMEType(mimeType string) error {
	base := BaseMIMEType(mimeType)
	if base == "" {
		return invalid("file", "Please choose a sound file")
	}
	if _, ok := allowedMIMETypes[base]; !ok {
		return invalid("file", "Unsupported file type %q", base)
	}
	return nil
}
