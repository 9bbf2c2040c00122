// Package form turns the add-sound form into a stored sound.
package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/probe"
	"github.com/ts4z/clicktunes/soundmodel"
	"github.com/ts4z/clicktunes/varz"
)

const (
	DefaultUploadLimit = 5 << 20

	// Room for the name field and multipart framing around the file.
	formOverhead = 64 << 10
)

var (
	soundsAdded   = varz.NewInt("soundsAdded")
	soundsRefused = varz.NewInt("soundsRefused")
)

type SoundAdder interface {
	AddSound(ctx context.Context, sr *soundmodel.SoundRecord) (int64, error)
}

type Processor struct {
	store        SoundAdder
	uploadLimit  int64
	probeUploads bool
}

func NewProcessor(store SoundAdder, uploadLimit int64, probeUploads bool) *Processor {
	if uploadLimit <= 0 {
		uploadLimit = DefaultUploadLimit
	}
	return &Processor{store: store, uploadLimit: uploadLimit, probeUploads: probeUploads}
}

// Upload is an add-sound request, however it arrived.
type Upload struct {
	Name     string
	Filename string
	MIMEType string
	Data     []byte
}

func invalid(field, f string, more ...any) error {
	return &soundmodel.ValidationError{Field: field, Message: fmt.Sprintf(f, more...)}
}

func (p *Processor) tooLarge() error {
	return invalid("file", "File is larger than %d KB", p.uploadLimit>>10)
}

// ReadUpload parses a multipart add-sound form with fields "name" and
// "file".  A missing file is not an error here; AddSound reports it.
func (p *Processor) ReadUpload(w http.ResponseWriter, r *http.Request) (*Upload, error) {
	if r.ContentLength > p.uploadLimit+formOverhead {
		return nil, p.tooLarge()
	}
	r.Body = http.MaxBytesReader(w, r.Body, p.uploadLimit+formOverhead)
	if err := r.ParseMultipartForm(p.uploadLimit + formOverhead); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, p.tooLarge()
		}
		return nil, invalid("form", "Can't read form: %v", err)
	}

	u := &Upload{Name: r.FormValue("name")}
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return u, nil
	} else if err != nil {
		return nil, invalid("file", "Can't read file: %v", err)
	}
	defer f.Close()

	u.Filename = header.Filename
	u.MIMEType = header.Header.Get("Content-Type")
	if header.Size > p.uploadLimit {
		return nil, p.tooLarge()
	}
	u.Data, err = io.ReadAll(io.LimitReader(f, p.uploadLimit+1))
	if err != nil {
		return nil, invalid("file", "Can't read file: %v", err)
	}
	return u, nil
}

// Result is the inline message for a successful add.
type Result struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Message string      `json:"message"`
	Info    *probe.Info `json:"info,omitempty"`
}

func (p *Processor) validate(u *Upload) (*probe.Info, error) {
	if err := soundmodel.ValidateName(u.Name); err != nil {
		return nil, err
	}
	if len(u.Data) == 0 {
		return nil, invalid("file", "Please choose a sound file")
	}
	if err := soundmodel.ValidateMIMEType(u.MIMEType); err != nil {
		return nil, err
	}
	if int64(len(u.Data)) > p.uploadLimit {
		return nil, p.tooLarge()
	}
	if !p.probeUploads {
		return nil, nil
	}
	info, err := probe.Probe(soundmodel.BaseMIMEType(u.MIMEType), u.Data)
	if err != nil {
		zap.S().Infof("refusing upload %q: %v", u.Filename, err)
		return nil, invalid("file", "File is not playable audio")
	}
	return info, nil
}

// AddSound validates u and stores it as a data URL.  Nothing is stored
// unless every check passes.
func (p *Processor) AddSound(ctx context.Context, u *Upload) (*Result, error) {
	info, err := p.validate(u)
	if err != nil {
		soundsRefused.Add(1)
		return nil, err
	}

	name := strings.TrimSpace(u.Name)
	sr := &soundmodel.SoundRecord{
		Name:      name,
		SoundPath: soundmodel.EncodeDataURL(soundmodel.BaseMIMEType(u.MIMEType), u.Data),
	}
	id, err := p.store.AddSound(ctx, sr)
	if err != nil {
		return nil, err
	}
	soundsAdded.Add(1)
	zap.S().Infof("added sound %d %q (%d bytes)", id, name, len(u.Data))
	return &Result{
		ID:      id,
		Name:    name,
		Message: fmt.Sprintf("Added %q", name),
		Info:    info,
	}, nil
}
