package storage

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"
)

var ErrUnsupportedMedia = errors.New("only image uploads are supported")

// ImageInfo is what an upload's bytes say about themselves.
type ImageInfo struct {
	MimeType string
	Width    int
	Height   int
}

// ProbeImage sniffs the content type and reads image dimensions. SVG
// sniffs as text and is refused.
func ProbeImage(content []byte) (ImageInfo, error) {
	mimeType := http.DetectContentType(content)
	if !strings.HasPrefix(mimeType, "image/") {
		return ImageInfo{}, ErrUnsupportedMedia
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		// a sniffed image type the decoders do not know, e.g. image/bmp
		return ImageInfo{MimeType: mimeType}, nil
	}
	return ImageInfo{MimeType: mimeType, Width: cfg.Width, Height: cfg.Height}, nil
}
