// Package camera provides the orbit camera of the viewer.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians
	Yaw      float32 // radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	PanSensitivity  float32
	ZoomSensitivity float32

	FOV       float32 // degrees
	Near, Far float32
}

// NewOrbitCamera creates an orbit camera framing a standing MMD model, which
// is roughly 20 units tall.
func NewOrbitCamera() *OrbitCamera {
	c := &OrbitCamera{
		MinDistance:     2,
		MaxDistance:     200,
		MinPitch:        -1.4,
		MaxPitch:        1.4,
		DragSensitivity: 0.005,
		PanSensitivity:  0.0015,
		ZoomSensitivity: 0.1,
		FOV:             40,
		Near:            0.1,
		Far:             1000,
	}
	c.Reset()
	return c
}

// Reset returns the camera to the default framing.
func (c *OrbitCamera) Reset() {
	c.Center = mgl32.Vec3{0, 10, 0}
	c.Distance = 35
	c.Pitch = 0.1
	c.Yaw = 0
}

// Position returns the camera position in world space. Yaw 0 looks at the
// model's front, which faces -Z in MMD.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp := math32.Cos(c.Pitch)
	offset := mgl32.Vec3{
		c.Distance * cp * math32.Sin(c.Yaw),
		c.Distance * math32.Sin(c.Pitch),
		-c.Distance * cp * math32.Cos(c.Yaw),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	eye := c.Position()
	return mgl32.LookAtV(eye, c.Center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection for the given aspect
// ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 || math32.IsNaN(aspect) {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// HandleDrag rotates the camera by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(dx, dy float32) {
	c.Yaw -= dx * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+dy*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandlePan moves the center in the view plane. The step scales with
// distance for a consistent feel.
func (c *OrbitCamera) HandlePan(dx, dy float32) {
	view := c.Center.Sub(c.Position()).Normalize()
	right := view.Cross(mgl32.Vec3{0, 1, 0})
	if right.Len() == 0 {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up := right.Cross(view).Normalize()

	speed := c.Distance * c.PanSensitivity
	c.Center = c.Center.Sub(right.Mul(dx * speed)).Add(up.Mul(dy * speed))
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = mgl32.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// FitToBounds frames the given bounding box.
func (c *OrbitCamera) FitToBounds(lo, hi mgl32.Vec3) {
	c.Center = lo.Add(hi).Mul(0.5)
	size := hi.Sub(lo)
	extent := math32.Max(size.X(), math32.Max(size.Y(), size.Z()))
	if extent <= 0 {
		return
	}
	half := mgl32.DegToRad(c.FOV) / 2
	c.Distance = mgl32.Clamp(extent*0.6/math32.Tan(half), c.MinDistance, c.MaxDistance)
}
