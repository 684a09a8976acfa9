// Package imaging caps directory photos to a bounding box.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/peebers/placebook/internal/domain"
)

const jpegQuality = 90

// maxPixels bounds the canvas a photo may declare before it is decoded.
const maxPixels = 40_000_000

var ErrTooLarge = errors.New("image dimensions too large")

// Fit decodes data and scales it down, keeping the aspect ratio, so that it
// fits within maxWidth x maxHeight. A non-positive bound leaves that axis
// unconstrained. Images that already fit are returned with their original bytes.
func Fit(data []byte, maxWidth, maxHeight int) (*domain.PhotoAsset, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}

	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	w, h := scaledSize(cfg.Width, cfg.Height, maxWidth, maxHeight)
	if w == cfg.Width && h == cfg.Height {
		return &domain.PhotoAsset{
			Data:     data,
			MimeType: mimeForFormat(format),
			Width:    cfg.Width,
			Height:   cfg.Height,
		}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	mimeType := "image/jpeg"
	if format == "png" {
		mimeType = "image/png"
		err = png.Encode(&buf, dst)
	} else {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode scaled image: %w", err)
	}

	return &domain.PhotoAsset{
		Data:     buf.Bytes(),
		MimeType: mimeType,
		Width:    w,
		Height:   h,
	}, nil
}

func scaledSize(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	w, h := width, height
	if maxWidth > 0 && w > maxWidth {
		h = max(1, h*maxWidth/w)
		w = maxWidth
	}
	if maxHeight > 0 && h > maxHeight {
		w = max(1, w*maxHeight/h)
		h = maxHeight
	}
	return w, h
}

func mimeForFormat(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
