package player

import (
	"github.com/Yeicor/sbs-player/internal"
	"github.com/fogleman/fauxgl"
	"image"
	"image/color"
	"image/draw"
)

// softwareCanvas rasterizes the surfaces on the CPU with fauxgl. It backs headless snapshots and tests.
type softwareCanvas struct {
	texture    *image.RGBA // Private copy of the last uploaded frame
	output     *image.RGBA
	contexts   map[image.Point]*fauxgl.Context // One per viewport size
	background color.RGBA
}

func newSoftwareCanvas(background color.RGBA) *softwareCanvas {
	return &softwareCanvas{contexts: map[image.Point]*fauxgl.Context{}, background: background}
}

// Image returns the output buffer.
func (c *softwareCanvas) Image() *image.RGBA {
	if c.output == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	return c.output
}

func (c *softwareCanvas) Upload(frame *image.RGBA) {
	c.texture = copyRGBA(frame) // The frame is only borrowed
}

func (c *softwareCanvas) Clear(viewport image.Rectangle) {
	if c.output == nil || !viewport.In(c.output.Rect) {
		old := c.output
		c.output = image.NewRGBA(image.Rectangle{Max: viewport.Max})
		if old != nil {
			draw.Draw(c.output, old.Rect, old, image.Point{}, draw.Src)
		}
	}
	draw.Draw(c.output, viewport, &image.Uniform{C: c.background}, image.Point{}, draw.Src)
}

func (c *softwareCanvas) DrawSurface(s internal.Surface, m *internal.RegionMaterial, cam internal.Camera, viewport image.Rectangle) {
	if c.texture == nil || c.output == nil || viewport.Empty() {
		return
	}
	ctx := c.context(viewport.Size())
	ctx.ClearColorBufferWith(fauxgl.Color{}) // Transparent, composited over the output below
	ctx.ClearDepthBuffer()
	ctx.Shader = &regionShader{matrix: cam.Matrix(), texture: c.texture, region: m.SourceRect()}
	ctx.DrawMesh(surfaceMesh(s))
	draw.Draw(c.output, viewport, ctx.Image(), image.Point{}, draw.Over)
}

func (c *softwareCanvas) context(size image.Point) *fauxgl.Context {
	ctx, ok := c.contexts[size]
	if !ok { // Rebuild rendering context only when needed
		ctx = fauxgl.NewContext(size.X, size.Y)
		ctx.Cull = fauxgl.CullNone
		c.contexts[size] = ctx
	}
	return ctx
}

// surfaceMesh builds the two triangles of s. Texture coordinates are surface-local, (0, 0) at the top-left.
func surfaceMesh(s internal.Surface) *fauxgl.Mesh {
	tl, br := s.Corners()
	vertex := func(x, y, u, v float64) fauxgl.Vertex {
		return fauxgl.Vertex{Position: fauxgl.Vector{X: x, Y: y, Z: tl.Z}, Texture: fauxgl.Vector{X: u, Y: v}}
	}
	a, b := vertex(tl.X, tl.Y, 0, 0), vertex(br.X, tl.Y, 1, 0)
	cc, d := vertex(br.X, br.Y, 1, 1), vertex(tl.X, br.Y, 0, 1)
	return fauxgl.NewTriangleMesh([]*fauxgl.Triangle{{V1: a, V2: b, V3: cc}, {V1: a, V2: cc, V3: d}})
}

// regionShader samples the region of the shared frame bound to the surface being drawn.
type regionShader struct {
	matrix  fauxgl.Matrix
	texture *image.RGBA
	region  image.Rectangle
}

func (s *regionShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = s.matrix.MulPositionW(v.Position)
	return v
}

func (s *regionShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	x := s.region.Min.X + clampInt(int(v.Texture.X*float64(s.region.Dx())), 0, s.region.Dx()-1)
	y := s.region.Min.Y + clampInt(int(v.Texture.Y*float64(s.region.Dy())), 0, s.region.Dy()-1)
	return fauxgl.MakeColor(s.texture.RGBAAt(x, y))
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
