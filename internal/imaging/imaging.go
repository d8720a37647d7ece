// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging prepares uploaded post thumbnails. Images are decoded,
// scaled down to fit the thumbnail box while keeping their aspect ratio,
// and re-encoded. Images already inside the box are never upscaled.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register the GIF decoder
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register the WebP decoder
)

// Thumbnail box, in pixels.
const (
	ThumbnailWidth  = 750
	ThumbnailHeight = 530
)

// MaxPixels caps the declared size of an upload. Decoding allocates the
// full pixel buffer up front, so larger images are refused before decoding.
const MaxPixels = 40_000_000

// jpegQuality is used for every JPEG output.
const jpegQuality = 85

// ErrUnsupported is returned for data that is not a decodable image.
var ErrUnsupported = errors.New("unsupported image format")

// Processed is an encoded image ready for storage.
type Processed struct {
	Data        []byte
	ContentType string
	Ext         string // without the dot
	Width       int
	Height      int
}

// Thumbnail decodes src and fits it into the thumbnail box.
func Thumbnail(src []byte) (*Processed, error) {
	return Fit(src, ThumbnailWidth, ThumbnailHeight)
}

// Fit decodes src and scales it down to fit inside maxW x maxH. PNG and GIF
// input is written as PNG to keep transparency; JPEG and WebP become JPEG.
func Fit(src []byte, maxW, maxH int) (*Processed, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupported, cfg.Width, cfg.Height, MaxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	b := img.Bounds()
	w, h := fitSize(b.Dx(), b.Dy(), maxW, maxH)

	out := img
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	p := &Processed{Width: w, Height: h}
	switch format {
	case "png", "gif":
		if err := png.Encode(&buf, out); err != nil {
			return nil, fmt.Errorf("imaging: encode png: %w", err)
		}
		p.ContentType, p.Ext = "image/png", "png"
	default:
		if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
		}
		p.ContentType, p.Ext = "image/jpeg", "jpg"
	}
	p.Data = buf.Bytes()
	return p, nil
}

// fitSize returns the largest size with the aspect ratio of w x h that fits
// inside maxW x maxH, never larger than w x h.
func fitSize(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// Compare w/maxW with h/maxH without floating point.
	if w*maxH >= h*maxW {
		nh := h * maxW / w
		return maxW, max(nh, 1)
	}
	nw := w * maxH / h
	return max(nw, 1), maxH
}
