package player

import (
	"github.com/Yeicor/sbs-player/internal"
	"github.com/hajimehoshi/ebiten/v2"
	"image"
	"image/color"
)

// ebitenCanvas draws on the GPU: the decoded frame lives in a single texture and every surface draws a
// sub-image of it, so one upload serves all four region materials.
type ebitenCanvas struct {
	screen     *ebiten.Image // Target of the current Draw
	texture    *ebiten.Image
	background color.RGBA
}

func newEbitenCanvas(background color.RGBA) *ebitenCanvas {
	return &ebitenCanvas{background: background}
}

func (c *ebitenCanvas) Upload(frame *image.RGBA) {
	size := frame.Bounds().Size()
	if c.texture == nil || c.texture.Bounds().Size() != size {
		if c.texture != nil {
			c.texture.Deallocate()
		}
		c.texture = ebiten.NewImage(size.X, size.Y)
	}
	if frame.Stride == 4*size.X && frame.Rect.Min == (image.Point{}) {
		c.texture.WritePixels(frame.Pix[:4*size.X*size.Y])
	} else {
		c.texture.WritePixels(copyRGBA(frame).Pix)
	}
}

func (c *ebitenCanvas) Clear(viewport image.Rectangle) {
	c.screen.SubImage(viewport).(*ebiten.Image).Fill(c.background)
}

func (c *ebitenCanvas) DrawSurface(s internal.Surface, m *internal.RegionMaterial, cam internal.Camera, viewport image.Rectangle) {
	if c.texture == nil {
		return
	}
	min, max, ok := cam.Project(s, viewport)
	if !ok {
		return
	}
	src := m.SourceRect()
	if src.Empty() {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale((max.X-min.X)/float64(src.Dx()), (max.Y-min.Y)/float64(src.Dy()))
	op.GeoM.Translate(min.X, min.Y)
	op.Filter = ebiten.FilterLinear
	// Sub-images keep the parent's coordinates, so the viewport only clips
	c.screen.SubImage(viewport).(*ebiten.Image).DrawImage(c.texture.SubImage(src).(*ebiten.Image), op)
}

func (c *ebitenCanvas) dispose() {
	if c.texture != nil {
		c.texture.Deallocate()
		c.texture = nil
	}
}

func copyRGBA(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rectangle{Max: b.Size()})
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return dst
}
