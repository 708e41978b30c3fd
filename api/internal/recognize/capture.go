package recognize

import (
	"fmt"
	"io"

	"latexsnap/api/internal/util"
)

// MaxFileSize is the upper bound for uploaded images (10 MiB).
const MaxFileSize = 10 * 1024 * 1024

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// Image is the payload of a single submission.
type Image struct {
	Data []byte
	MIME string
	Name string
}

// Source produces an image for submission. The drawing surface and an
// uploaded file both satisfy it.
type Source interface {
	Capture() (Image, error)
}

// CaptureFile validates an uploaded file. contentType may be empty, in which
// case the type is sniffed from the bytes.
func CaptureFile(name, contentType string, data []byte) (Image, error) {
	mime := util.PickMIME(contentType, "", data)
	if !allowedTypes[mime] {
		return Image{}, &ValidationError{Msg: "Please upload a PNG or JPEG image."}
	}
	if len(data) > MaxFileSize {
		return Image{}, &ValidationError{Msg: "Image size must be less than 10MB."}
	}
	if len(data) == 0 {
		return Image{}, &ValidationError{Msg: "Please upload an image first."}
	}
	return Image{Data: data, MIME: mime, Name: name}, nil
}

// CaptureReader reads at most MaxFileSize+1 bytes from r so that an
// oversized upload is rejected without buffering all of it.
func CaptureReader(name, contentType string, r io.Reader) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", name, err)
	}
	return CaptureFile(name, contentType, data)
}

// FileSource is an already validated upload.
type FileSource struct {
	Image *Image
}

func (f FileSource) Capture() (Image, error) {
	if f.Image == nil || len(f.Image.Data) == 0 {
		return Image{}, &ValidationError{Msg: "Please upload an image first."}
	}
	return *f.Image, nil
}
