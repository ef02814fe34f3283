package texture

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type codec struct {
	name   string
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

var (
	codecPNG  = codec{"png", png.Decode, png.DecodeConfig}
	codecJPEG = codec{"jpeg", jpeg.Decode, jpeg.DecodeConfig}
	codecGIF  = codec{"gif", gif.Decode, gif.DecodeConfig}
	codecBMP  = codec{"bmp", bmp.Decode, bmp.DecodeConfig}
	codecTIFF = codec{"tiff", tiff.Decode, tiff.DecodeConfig}
	codecWebP = codec{"webp", webp.Decode, webp.DecodeConfig}
	codecTGA  = codec{"tga", tga.Decode, tga.DecodeConfig}
)

// sniff picks a decoder from the leading bytes. TGA has no signature, so it is the fallback.
func sniff(head []byte) codec {
	switch {
	case bytes.HasPrefix(head, []byte("\x89PNG\r\n\x1a\n")):
		return codecPNG
	case bytes.HasPrefix(head, []byte{0xff, 0xd8}):
		return codecJPEG
	case bytes.HasPrefix(head, []byte("GIF8")):
		return codecGIF
	case bytes.HasPrefix(head, []byte("BM")):
		return codecBMP
	case bytes.HasPrefix(head, []byte("II*\x00")), bytes.HasPrefix(head, []byte("MM\x00*")):
		return codecTIFF
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")):
		return codecWebP
	}
	return codecTGA
}

func open(path string) (*os.File, *bufio.Reader, codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, codec{}, fmt.Errorf("texture: open %s: %w", path, err)
	}
	br := bufio.NewReader(f)
	head, _ := br.Peek(12)
	return f, br, sniff(head), nil
}

// LoadTexture decodes the image at path (PNG, JPEG, GIF, BMP, TIFF, WebP or TGA)
// and returns it as NRGBA.
func LoadTexture(path string) (*image.NRGBA, error) {
	f, r, c, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := c.decode(r)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s as %s: %w", path, c.name, err)
	}

	return toNRGBA(img), nil
}

// Format reports the codec name ("png", "jpeg", "gif", "bmp", "tiff", "webp" or "tga")
// chosen for the file at path.
func Format(path string) (string, error) {
	f, _, c, err := open(path)
	if err != nil {
		return "", err
	}
	f.Close()
	return c.name, nil
}

// Size returns the pixel dimensions of the image at path without decoding pixels.
func Size(path string) (int, int, error) {
	f, r, c, err := open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, err := c.config(r)
	if err != nil {
		return 0, 0, fmt.Errorf("texture: decode config %s as %s: %w", path, c.name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("texture: %s: empty image %dx%d", path, cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// toNRGBA converts any image to NRGBA format with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// No alpha: draw and force opaque
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 255
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				dst.SetNRGBA(x, y, c)
			}
		}
	}
	return dst
}
