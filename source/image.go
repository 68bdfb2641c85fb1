package source

import (
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"strings"
)

// ImageConfig configures a still SBS frame source.
type ImageConfig struct {
	Path string
	// Width and Height rescale the frame when both are > 0.
	Width, Height int
	// Interpolation is one of "nearest", "bilinear" (default), "catmullrom" or "bicubic".
	Interpolation string
}

// Image is a frame source that shows a single SBS picture (PNG, JPEG, GIF or WebP).
type Image struct {
	*Buffer
	cfg ImageConfig
}

// NewImage loads the picture at cfg.Path. A load failure is returned and also recorded as the source error.
func NewImage(cfg ImageConfig) (*Image, error) {
	img := &Image{Buffer: NewBuffer(), cfg: cfg}
	return img, img.load()
}

// NewStatic wraps an already decoded frame.
func NewStatic(frame image.Image) *Image {
	img := &Image{Buffer: NewBuffer()}
	img.WriteImage(frame)
	return img
}

// Reload decodes the file again (e.g. after it changed on disk). On failure the previous frame is kept.
func (i *Image) Reload() {
	if i.cfg.Path == "" {
		return
	}
	if err := i.load(); err != nil {
		log.Println("[FrameSource] reload failed:", err)
	}
}

func (i *Image) load() error {
	f, err := os.Open(i.cfg.Path)
	if err != nil {
		err = errors.Wrap(err, "source: open image")
		i.Fail(err)
		return err
	}
	defer f.Close()
	frame, format, err := image.Decode(f)
	if err != nil {
		err = errors.Wrapf(err, "source: decode %s", i.cfg.Path)
		i.Fail(err)
		return err
	}
	if i.cfg.Width > 0 && i.cfg.Height > 0 {
		frame = Scale(frame, i.cfg.Width, i.cfg.Height, i.cfg.Interpolation)
	}
	i.WriteImage(frame)
	log.Println("[FrameSource] loaded", format, "image", i.cfg.Path, frame.Bounds().Size())
	return nil
}

// Scale resizes src to width x height with the named interpolation.
func Scale(src image.Image, width, height int, interpolation string) image.Image {
	if strings.EqualFold(interpolation, "bicubic") {
		return resize.Resize(uint(width), uint(height), src, resize.Bicubic)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	var scaler xdraw.Scaler
	switch strings.ToLower(interpolation) {
	case "nearest":
		scaler = xdraw.NearestNeighbor
	case "catmullrom":
		scaler = xdraw.CatmullRom
	default:
		scaler = xdraw.ApproxBiLinear
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Pattern returns a width x height SBS test frame: the left eye half in left, the right eye half in right,
// with a white center marker on each half.
func Pattern(width, height int, left, right color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	half := width / 2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := left
			if x >= half {
				c = right
			}
			img.SetRGBA(x, y, c)
		}
	}
	mark := height / 10
	for _, cx := range []int{half / 2, half + half/2} {
		for y := height/2 - mark; y < height/2+mark; y++ {
			for x := cx - mark; x < cx+mark; x++ {
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}
