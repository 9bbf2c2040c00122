package soundmodel

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrNotDataURL = errors.New("not a base64 data URL")

const dataPrefix = "data:"

func IsDataURL(s string) bool {
	return strings.HasPrefix(s, dataPrefix)
}

// EncodeDataURL embeds an audio payload the way a browser FileReader would.
func EncodeDataURL(mimeType string, payload []byte) string {
	sb := strings.Builder{}
	sb.Grow(len(dataPrefix) + len(mimeType) + len(";base64,") + base64.StdEncoding.EncodedLen(len(payload)))
	sb.WriteString(dataPrefix)
	sb.WriteString(mimeType)
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(payload))
	return sb.String()
}

func splitDataURL(s string) (header, body string, err error) {
	if !IsDataURL(s) {
		return "", "", ErrNotDataURL
	}
	header, body, ok := strings.Cut(s[len(dataPrefix):], ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", "", ErrNotDataURL
	}
	return strings.TrimSuffix(header, ";base64"), body, nil
}

// DataURLMIMEType returns the media type of a data URL without decoding it.
func DataURLMIMEType(s string) (string, error) {
	header, _, err := splitDataURL(s)
	if err != nil {
		return "", err
	}
	mime, _, _ := strings.Cut(header, ";")
	return mime, nil
}

// DecodeDataURL returns the media type and payload of a base64 data URL.
func DecodeDataURL(s string) (string, []byte, error) {
	header, body, err := splitDataURL(s)
	if err != nil {
		return "", nil, err
	}
	payload, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", nil, err
	}
	mime, _, _ := strings.Cut(header, ";")
	return mime, payload, nil
}
