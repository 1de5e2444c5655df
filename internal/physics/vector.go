// Flight dynamics: propeller thrust model and a 6-DoF point-mass
// integrator driven at a fixed timestep.
package physics

import "math"

// Vector3 is a world-frame vector. X east, Y up, Z north. Meters and
// meters per second.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vector3) LengthSq() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }
func (v Vector3) Length() float64   { return math.Sqrt(v.LengthSq()) }

// Normalize returns the unit vector, or zero for a zero-length input.
func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l == 0 {
		return Vector3{}
	}
	return v.Scale(1 / l)
}

// Horizontal returns the ground-plane magnitude.
func (v Vector3) Horizontal() float64 {
	return math.Sqrt(v.X*v.X + v.Z*v.Z)
}
