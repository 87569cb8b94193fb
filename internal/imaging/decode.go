package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSize is the spatial size the classifier was trained on.
const ImageSize = 224

// Channels per pixel in a PixelGrid (RGB).
const Channels = 3

// MaxPixels is the largest declared image area we will decode (the same limit Pillow uses
// for decompression bombs). A tiny compressed file can declare an enormous canvas.
const MaxPixels = 178956970

var (
	ErrMissingFile     = errors.New("no file selected")
	ErrUnsupportedType = errors.New("unsupported file type")
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// DecodeError is returned when the uploaded bytes cannot be turned into an image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PixelGrid is a decoded image, stored row major as Height*Width*Channels bytes.
type PixelGrid struct {
	Width  int
	Height int
	Pix    []uint8
}

// At returns the RGB value at x, y
func (p PixelGrid) At(x, y int) (r, g, b uint8) {
	i := (y*p.Width + x) * Channels
	return p.Pix[i], p.Pix[i+1], p.Pix[i+2]
}

// AllowedFile reports whether the filename carries one of the accepted image extensions.
// The file contents are not inspected.
func AllowedFile(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Decode validates the filename, decodes the image bytes, drops any alpha channel
// and resizes the result to ImageSize x ImageSize (aspect ratio is not preserved).
func Decode(data []byte, filename string) (PixelGrid, error) {
	if filename == "" {
		return PixelGrid{}, ErrMissingFile
	}
	if !AllowedFile(filename) {
		return PixelGrid{}, fmt.Errorf("%w: %v", ErrUnsupportedType, filepath.Ext(filename))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return PixelGrid{}, &DecodeError{Err: err}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return PixelGrid{}, &DecodeError{Err: fmt.Errorf("image size (%v x %v pixels) exceeds limit of %v pixels", cfg.Width, cfg.Height, MaxPixels)}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return PixelGrid{}, &DecodeError{Err: err}
	}
	if img.Bounds().Empty() {
		return PixelGrid{}, &DecodeError{Err: errors.New("image has no pixels")}
	}

	resized := resize.Resize(ImageSize, ImageSize, dropAlpha(img), resize.Bicubic)
	return toGrid(resized), nil
}

// dropAlpha returns an opaque copy of img, keeping the straight (non premultiplied)
// color of every pixel. Images that are already opaque are returned as-is.
func dropAlpha(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}
	return dst
}

func toGrid(img image.Image) PixelGrid {
	b := img.Bounds()
	grid := PixelGrid{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    make([]uint8, b.Dx()*b.Dy()*Channels),
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// Input is opaque, so premultiplied and straight values agree
			r, g, bl, _ := img.At(x, y).RGBA()
			grid.Pix[i] = uint8(r >> 8)
			grid.Pix[i+1] = uint8(g >> 8)
			grid.Pix[i+2] = uint8(bl >> 8)
			i += Channels
		}
	}
	return grid
}
