package render

// Zoom limits for [Viewport.Zoom].
const (
	MinScale = 0.25
	MaxScale = 8.0
)

// Viewport is the pan and zoom state applied to bubble centres.
// The zero value behaves like [Identity].
type Viewport struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// Identity leaves positions unchanged.
var Identity = Viewport{Scale: 1}

func (v Viewport) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

// Apply maps a layout position to canvas coordinates on a width×height canvas
// whose centre is the layout origin.
func (v Viewport) Apply(x, y, width, height float64) (float64, float64) {
	s := v.scale()
	return x*s + v.OffsetX + width/2, y*s + v.OffsetY + height/2
}

// Zoom multiplies the scale by factor, clamped to [MinScale, MaxScale].
// Non-positive factors are ignored.
func (v Viewport) Zoom(factor float64) Viewport {
	if factor <= 0 {
		return v
	}
	v.Scale = min(MaxScale, max(MinScale, v.scale()*factor))
	return v
}

// Pan moves the view by (dx, dy) canvas units.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.OffsetX += dx
	v.OffsetY += dy
	return v
}
