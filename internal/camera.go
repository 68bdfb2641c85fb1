package internal

import (
	"github.com/fogleman/fauxgl"
	"image"
)

// Camera is a perspective camera looking down -Z from Eye, with Y up.
type Camera struct {
	FovY      float64 // Vertical field of view, in degrees
	Near, Far float64
	Aspect    float64 // Viewport width / height
	Eye       fauxgl.Vector
}

// NewCamera returns the default camera for a viewport of the given size.
func NewCamera(width, height int) Camera {
	c := Camera{FovY: 70, Near: 0.1, Far: 2000}
	c.Resize(width, height)
	return c
}

// Resize recomputes the aspect ratio. Degenerate sizes keep the previous aspect (or 1).
func (c *Camera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		if c.Aspect == 0 {
			c.Aspect = 1
		}
		return
	}
	c.Aspect = float64(width) / float64(height)
}

// Eyes returns the left and right eye cameras for a stereo rendering split into two equal viewports.
func (c Camera) Eyes(separation float64) (left, right Camera) {
	left, right = c, c
	left.Aspect, right.Aspect = c.Aspect/2, c.Aspect/2
	left.Eye.X -= separation / 2
	right.Eye.X += separation / 2
	return left, right
}

// Matrix is the combined view-projection matrix.
func (c Camera) Matrix() fauxgl.Matrix {
	center := c.Eye.Add(fauxgl.Vector{Z: -1})
	return fauxgl.LookAt(c.Eye, center, fauxgl.Vector{Y: 1}).Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// Project returns the on-screen rectangle of s within viewport, in pixels (Y down).
// Surfaces are parallel to the image plane, so the projection is axis aligned.
// ok is false when the surface is behind the camera.
func (c Camera) Project(s Surface, viewport image.Rectangle) (min, max fauxgl.Vector, ok bool) {
	m := c.Matrix()
	tl, br := s.Corners()
	p0, p1 := m.MulPositionW(tl), m.MulPositionW(br)
	if p0.W <= 0 || p1.W <= 0 {
		return min, max, false
	}
	w, h := float64(viewport.Dx()), float64(viewport.Dy())
	toScreen := func(p fauxgl.VectorW) fauxgl.Vector {
		return fauxgl.Vector{
			X: float64(viewport.Min.X) + (p.X/p.W+1)/2*w,
			Y: float64(viewport.Min.Y) + (1-p.Y/p.W)/2*h,
		}
	}
	return toScreen(p0), toScreen(p1), true
}
