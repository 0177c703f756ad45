package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
)

// snapshot reads tex back from the software device and writes it to path.
// The encoder is picked from the extension: .png, .bmp, .tif or .tiff.
func snapshot(dev *backend.SoftwareDevice, tex framegraph.Texture, desc framegraph.TextureDescriptor, path string, scale float64) error {
	pix, err := dev.ReadPixels(tex)
	if err != nil {
		return err
	}
	img, err := toRGBA(pix, desc)
	if err != nil {
		return err
	}
	if scale > 0 && scale != 1 {
		img = resize(img, scale)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = png.Encode(f, img)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = fmt.Errorf("unsupported image extension %q", ext)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	return nil
}

// toRGBA converts 8-bit RGBA or BGRA texels.
func toRGBA(pix []byte, desc framegraph.TextureDescriptor) (*image.RGBA, error) {
	w, h := int(desc.Width), int(desc.Height)
	if len(pix) < w*h*4 {
		return nil, fmt.Errorf("snapshot: %d bytes for a %dx%d texture", len(pix), w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	switch desc.Format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		copy(img.Pix, pix[:w*h*4])
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		for i := 0; i < w*h*4; i += 4 {
			img.Pix[i+0] = pix[i+2]
			img.Pix[i+1] = pix[i+1]
			img.Pix[i+2] = pix[i+0]
			img.Pix[i+3] = pix[i+3]
		}
	default:
		return nil, fmt.Errorf("snapshot: format %s is not 8-bit RGBA", desc.Format)
	}
	return img, nil
}

func resize(src *image.RGBA, scale float64) *image.RGBA {
	b := src.Bounds()
	w := max(int(float64(b.Dx())*scale), 1)
	h := max(int(float64(b.Dy())*scale), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
