package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

var ErrInvalidImage = errors.New("image must be a PNG or JPEG")

// Image is a decoded raster ready to be embedded in a document.
type Image struct {
	Data []byte
	Type string // "PNG" or "JPG"
}

// DecodeImage inspects raw bytes and reports the embedding type.
func DecodeImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}
	switch format {
	case "png":
		return &Image{Data: data, Type: "PNG"}, nil
	case "jpeg":
		return &Image{Data: data, Type: "JPG"}, nil
	default:
		return nil, ErrInvalidImage
	}
}

// DecodeDataURL accepts a data URL ("data:image/png;base64,...") or bare
// base64, as produced by browser signature pads.
func DecodeDataURL(s string) (*Image, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i > 0 {
		s = s[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, ErrInvalidImage
		}
	}
	return DecodeImage(raw)
}
