// Package preprocess turns decoded images into the float tensor the
// classifier was trained on.
package preprocess

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"github.com/Brownie44l1/mri-tumor-api/internal/model"
)

const (
	DefaultImageSize = 224
	channels         = 3
)

// Options selects the target resolution and tensor layout.
type Options struct {
	ImageSize int
	Layout    string
}

func DefaultOptions() Options {
	return Options{ImageSize: DefaultImageSize, Layout: model.LayoutNHWC}
}

// Tensor is a dense float32 batch of one image.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Tensorize converts img to RGB, resizes it to a square of opts.ImageSize,
// and scales every channel value from [0,255] into [0,1]. The result has a
// leading batch dimension of 1 and is laid out as NHWC unless opts asks for
// NCHW.
func Tensorize(img image.Image, opts Options) Tensor {
	if opts.ImageSize <= 0 {
		opts.ImageSize = DefaultImageSize
	}
	size := opts.ImageSize

	rgb := ToRGB(img)
	resized := resize.Resize(uint(size), uint(size), rgb, resize.Bicubic)

	bounds := resized.Bounds()
	plane := size * size
	data := make([]float32, channels*plane)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBAModel.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			r := float32(c.R) / 255.0
			g := float32(c.G) / 255.0
			b := float32(c.B) / 255.0

			pixelIndex := y*size + x
			if opts.Layout == model.LayoutNCHW {
				data[pixelIndex] = r
				data[plane+pixelIndex] = g
				data[2*plane+pixelIndex] = b
				continue
			}
			base := pixelIndex * channels
			data[base] = r
			data[base+1] = g
			data[base+2] = b
		}
	}

	shape := []int{1, size, size, channels}
	if opts.Layout == model.LayoutNCHW {
		shape = []int{1, channels, size, size}
	}
	return Tensor{Shape: shape, Data: data}
}

// ToRGB copies img into an opaque NRGBA buffer anchored at the origin.
// Alpha is dropped rather than composited, so color channels keep their
// stored values.
func ToRGB(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}
	return dst
}
