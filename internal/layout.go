package internal

import (
	"github.com/fogleman/fauxgl"
	"image"
	"math"
	"strconv"
)

// SurfaceID addresses one of the four planar surfaces.
type SurfaceID int

const (
	SurfaceFull SurfaceID = iota
	SurfaceRightHalf
	SurfaceLeftHalf
	SurfaceRightHalfStereo
	SurfaceCount
)

func (id SurfaceID) String() string {
	switch id {
	case SurfaceFull:
		return "full"
	case SurfaceRightHalf:
		return "rightHalf"
	case SurfaceLeftHalf:
		return "leftHalf"
	case SurfaceRightHalfStereo:
		return "rightHalfStereo"
	}
	return "SurfaceID(" + strconv.Itoa(int(id)) + ")"
}

// Region is a horizontal crop of the source frame, as fractions of its width.
type Region struct {
	Offset float64 // [0, 1)
	Width  float64 // (0, 1], Offset+Width <= 1
}

// Rect returns the region's bounds within a frame of the given size.
func (r Region) Rect(frame image.Rectangle) image.Rectangle {
	w := float64(frame.Dx())
	return image.Rect(
		frame.Min.X+int(math.Round(r.Offset*w)), frame.Min.Y,
		frame.Min.X+int(math.Round((r.Offset+r.Width)*w)), frame.Max.Y)
}

// Surface is the immutable geometry of one plane plus its visibility flag.
// Only StereoLayout.Apply writes Visible.
type Surface struct {
	ID       SurfaceID
	Region   Region
	Position fauxgl.Vector // Center of the plane, in world units
	Size     fauxgl.Vector // Plane extent (Z is ignored)
	Visible  bool
}

// Corners returns the top-left and bottom-right corners of the plane in world space.
func (s Surface) Corners() (fauxgl.Vector, fauxgl.Vector) {
	half := fauxgl.Vector{X: s.Size.X / 2, Y: s.Size.Y / 2}
	return fauxgl.Vector{X: s.Position.X - half.X, Y: s.Position.Y + half.Y, Z: s.Position.Z},
		fauxgl.Vector{X: s.Position.X + half.X, Y: s.Position.Y - half.Y, Z: s.Position.Z}
}

// planeSize matches a 16:9 source frame.
var planeSize = fauxgl.Vector{X: 16, Y: 9}

// surfaceTable is the fixed construction table for the four surfaces.
var surfaceTable = [SurfaceCount]Surface{
	SurfaceFull:            {ID: SurfaceFull, Region: Region{Offset: 0, Width: 1}, Position: fauxgl.Vector{Z: -20}, Size: planeSize},
	SurfaceRightHalf:       {ID: SurfaceRightHalf, Region: Region{Offset: 0.5, Width: 0.5}, Position: fauxgl.Vector{Z: -20}, Size: planeSize},
	SurfaceLeftHalf:        {ID: SurfaceLeftHalf, Region: Region{Offset: 0, Width: 0.5}, Position: fauxgl.Vector{X: -10, Z: -20}, Size: planeSize},
	SurfaceRightHalfStereo: {ID: SurfaceRightHalfStereo, Region: Region{Offset: 0.5, Width: 0.5}, Position: fauxgl.Vector{X: 10, Z: -20}, Size: planeSize},
}

// visibilityTable is the authoritative mode to visibility mapping.
var visibilityTable = [modeCount][SurfaceCount]bool{
	Normal:      {SurfaceFull: true},
	NonStereoVR: {SurfaceRightHalf: true},
	StereoVR:    {SurfaceLeftHalf: true, SurfaceRightHalfStereo: true},
}

// VisibleSet returns the surfaces that must be visible in mode m (Normal's set for unknown modes).
func VisibleSet(m Mode) [SurfaceCount]bool {
	if !m.Valid() {
		m = Normal
	}
	return visibilityTable[m]
}

//-----------------------------------------------------------------------------
// TEXTURE
//-----------------------------------------------------------------------------

// VideoTexture is the single GPU-side copy of the decoded frame shared by every RegionMaterial.
// Only the compositor marks it, at most once per tick; only the canvas clears it after uploading.
type VideoTexture struct {
	NeedsUpdate bool
	Version     uint64 // Number of completed uploads
	Bounds      image.Rectangle
}

// MarkForUpdate requests a re-upload before the next draw.
func (t *VideoTexture) MarkForUpdate() {
	t.NeedsUpdate = true
}

// Uploaded records a completed upload of a frame with the given bounds.
func (t *VideoTexture) Uploaded(bounds image.Rectangle) {
	t.NeedsUpdate = false
	t.Bounds = bounds
	t.Version++
}

// RegionMaterial binds a Region of the shared VideoTexture to one surface.
type RegionMaterial struct {
	Texture *VideoTexture
	Region  Region
}

// Version is the texture upload this material currently samples.
func (m *RegionMaterial) Version() uint64 {
	return m.Texture.Version
}

// SourceRect is the material's crop in frame pixels.
func (m *RegionMaterial) SourceRect() image.Rectangle {
	return m.Region.Rect(m.Texture.Bounds)
}

//-----------------------------------------------------------------------------
// LAYOUT
//-----------------------------------------------------------------------------

// StereoLayout owns the four surfaces and their materials. Geometry never changes after construction.
type StereoLayout struct {
	surfaces  [SurfaceCount]Surface
	materials [SurfaceCount]*RegionMaterial
	texture   *VideoTexture
	applied   Mode
}

// NewStereoLayout builds the four surfaces from the fixed table, all hidden, wrapping tex.
func NewStereoLayout(tex *VideoTexture) *StereoLayout {
	l := &StereoLayout{texture: tex, surfaces: surfaceTable}
	for id := range l.surfaces {
		l.materials[id] = &RegionMaterial{Texture: tex, Region: l.surfaces[id].Region}
	}
	return l
}

// Apply sets the visibility of every surface for mode m in one step.
func (l *StereoLayout) Apply(m Mode) {
	set := VisibleSet(m)
	for id := range l.surfaces {
		l.surfaces[id].Visible = set[id]
	}
	l.applied = m
}

// Applied is the mode whose visibility set is currently in place.
func (l *StereoLayout) Applied() Mode {
	return l.applied
}

// Surface returns a copy of the surface id.
func (l *StereoLayout) Surface(id SurfaceID) Surface {
	return l.surfaces[id]
}

// Material returns the region material bound to surface id.
func (l *StereoLayout) Material(id SurfaceID) *RegionMaterial {
	return l.materials[id]
}

// Texture returns the shared video texture.
func (l *StereoLayout) Texture() *VideoTexture {
	return l.texture
}

// Visible returns the visible surfaces in draw order.
func (l *StereoLayout) Visible() []Surface {
	res := make([]Surface, 0, 2)
	for _, s := range l.surfaces {
		if s.Visible {
			res = append(res, s)
		}
	}
	return res
}

// Snapshot returns a copy of the layout, safe to hand to other goroutines.
func (l *StereoLayout) Snapshot() *LayoutSnapshot {
	surfaces := l.surfaces
	return &LayoutSnapshot{Mode: l.applied, Surfaces: surfaces[:]}
}

// LayoutSnapshot is an internal struct that has to be exported for RPC.
type LayoutSnapshot struct {
	Mode     Mode
	Surfaces []Surface
}
