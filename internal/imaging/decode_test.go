package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestDecodeAlwaysResizes(t *testing.T) {
	red := color.NRGBA{R: 200, G: 10, B: 10, A: 255}
	sizes := []image.Point{{640, 480}, {100, 900}, {224, 224}, {1, 1}, {37, 5}}
	for _, sz := range sizes {
		img := solidImage(sz.X, sz.Y, red)

		grid, err := Decode(encodePNG(t, img), "mouth.png")
		require.NoError(t, err)
		require.Equal(t, ImageSize, grid.Width)
		require.Equal(t, ImageSize, grid.Height)
		require.Len(t, grid.Pix, ImageSize*ImageSize*Channels)

		grid, err = Decode(encodeJPEG(t, img), "mouth.jpg")
		require.NoError(t, err)
		require.Equal(t, ImageSize, grid.Width)
		require.Equal(t, ImageSize, grid.Height)
		require.Len(t, grid.Pix, ImageSize*ImageSize*Channels)
	}
}

func TestDecodeFormats(t *testing.T) {
	img := solidImage(50, 40, color.NRGBA{R: 10, G: 120, B: 240, A: 255})

	var gifBuf, bmpBuf bytes.Buffer
	require.NoError(t, gif.Encode(&gifBuf, img, nil))
	require.NoError(t, bmp.Encode(&bmpBuf, img))

	cases := []struct {
		name string
		data []byte
	}{
		{"a.png", encodePNG(t, img)},
		{"a.jpeg", encodeJPEG(t, img)},
		{"a.gif", gifBuf.Bytes()},
		{"a.bmp", bmpBuf.Bytes()},
	}
	for _, c := range cases {
		grid, err := Decode(c.data, c.name)
		require.NoError(t, err, c.name)
		require.Equal(t, ImageSize, grid.Width, c.name)
	}
}

func TestDecodeExtensionIsTheOnlyGate(t *testing.T) {
	data := encodePNG(t, solidImage(8, 8, color.White))

	// PNG bytes behind a .JPG name are accepted, extension case is ignored
	_, err := Decode(data, "PHOTO.JPG")
	require.NoError(t, err)

	// Valid image bytes behind a .txt name are rejected
	_, err = Decode(data, "photo.txt")
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Decode(data, "noextension")
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Decode(data, "")
	require.ErrorIs(t, err, ErrMissingFile)
}

func TestDecodeCorruptBytes(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"), "broken.png")
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.NotEmpty(t, decodeErr.Error())

	_, err = Decode(nil, "empty.jpg")
	require.True(t, errors.As(err, &decodeErr))
}

func TestDecodeDiscardsAlpha(t *testing.T) {
	// Half transparent red must come out as opaque red, not blended toward black
	img := solidImage(30, 30, color.NRGBA{R: 255, G: 0, B: 0, A: 0x40})

	grid, err := Decode(encodePNG(t, img), "alpha.png")
	require.NoError(t, err)
	r, g, b := grid.At(ImageSize/2, ImageSize/2)
	require.InDelta(t, 255, int(r), 2)
	require.InDelta(t, 0, int(g), 2)
	require.InDelta(t, 0, int(b), 2)
}

func TestDecodeGrayscaleBecomesRGB(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 90
	}

	grid, err := Decode(encodePNG(t, img), "gray.png")
	require.NoError(t, err)
	r, g, b := grid.At(10, 10)
	require.Equal(t, r, g)
	require.Equal(t, g, b)
	require.InDelta(t, 90, int(r), 2)
}

// pngHeader returns just the signature and IHDR chunk of an RGB PNG that declares w x h pixels
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeRejectsHugeDeclaredSize(t *testing.T) {
	_, err := Decode(pngHeader(20000, 20000), "bomb.png")
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Contains(t, decodeErr.Error(), "exceeds limit")

	// Just over the limit on one side
	_, err = Decode(pngHeader(MaxPixels/1000+1, 1000), "wide.png")
	require.True(t, errors.As(err, &decodeErr))
	require.Contains(t, decodeErr.Error(), "exceeds limit")
}
