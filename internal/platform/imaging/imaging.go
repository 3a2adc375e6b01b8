// Package imaging prepares uploaded banner images.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	BannerWidth  = 1200
	BannerHeight = 600
)

// CoverCrop scales the image so it covers width x height, keeps the window
// with the most detail and returns it PNG encoded.
func CoverCrop(data []byte, width, height int) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	scaled := resizeToCover(src, width, height)
	cropped := imaging.Crop(scaled, entropyWindow(scaled, width, height))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func resizeToCover(src image.Image, width, height int) *image.NRGBA {
	b := src.Bounds()
	scale := math.Max(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	w := max(width, int(math.Ceil(float64(b.Dx())*scale)))
	h := max(height, int(math.Ceil(float64(b.Dy())*scale)))
	return imaging.Resize(src, w, h, imaging.Lanczos)
}

// entropyWindow trims the overflowing axis one strip at a time, always
// dropping the edge strip with the lower luminance entropy.
func entropyWindow(img *image.NRGBA, width, height int) image.Rectangle {
	r := img.Bounds()
	for r.Dx() > width {
		step := stripSize(r.Dx() - width)
		left := image.Rect(r.Min.X, r.Min.Y, r.Min.X+step, r.Max.Y)
		right := image.Rect(r.Max.X-step, r.Min.Y, r.Max.X, r.Max.Y)
		if entropy(img, left) <= entropy(img, right) {
			r.Min.X += step
		} else {
			r.Max.X -= step
		}
	}
	for r.Dy() > height {
		step := stripSize(r.Dy() - height)
		top := image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+step)
		bottom := image.Rect(r.Min.X, r.Max.Y-step, r.Max.X, r.Max.Y)
		if entropy(img, top) <= entropy(img, bottom) {
			r.Min.Y += step
		} else {
			r.Max.Y -= step
		}
	}
	return r
}

func stripSize(overflow int) int {
	return min(overflow, max(1, overflow/10))
}

// entropy is the Shannon entropy of the luminance histogram inside rect.
func entropy(img *image.NRGBA, rect image.Rectangle) float64 {
	var hist [256]int
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		i := img.PixOffset(rect.Min.X, y)
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := img.Pix[i : i+3 : i+3]
			lum := (299*int(p[0]) + 587*int(p[1]) + 114*int(p[2])) / 1000
			hist[lum]++
			i += 4
		}
	}
	total := float64(rect.Dx() * rect.Dy())
	if total == 0 {
		return 0
	}
	var e float64
	for _, n := range hist {
		if n == 0 {
			continue
		}
		p := float64(n) / total
		e -= p * math.Log2(p)
	}
	return e
}
