package core

// Gradient is a vertical sky gradient used for rays that escape the scene
type Gradient struct {
	Top    Colour // colour for rays pointing straight up
	Bottom Colour // colour for rays pointing straight down
}

// SkyGradient returns the white-to-sky-blue background
func SkyGradient() Gradient {
	return Gradient{
		Top:    NewVec3(0.5, 0.7, 1.0),
		Bottom: NewVec3(1.0, 1.0, 1.0),
	}
}

// Sample returns the background colour seen along direction
func (g Gradient) Sample(direction Vec3) Colour {
	// Use the y-component to create a gradient (map from -1,1 to 0,1)
	t := 0.5 * (direction.Normalize().Y + 1.0)
	return g.Bottom.Lerp(g.Top, t)
}
