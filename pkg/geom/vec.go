// Package geom provides the small amount of 3D math the exhibit needs:
// positions, viewpoint poses, floor projection and yaw-only facing.
package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gopkg.in/yaml.v3"
)

// DegenerateEpsilon is the squared length below which a direction is treated as zero.
const DegenerateEpsilon = 0.0001

// Up is the world up axis. The floor is the XZ plane.
var Up = Vec3{Y: 1}

// Vec3 is a position or direction in meters, Y up.
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// V is shorthand for Vec3{x, y, z}.
func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// LenSq returns the squared length.
func (v Vec3) LenSq() float64 { return v.Dot(v) }

// Len returns the length.
func (v Vec3) Len() float64 { return math.Sqrt(v.LenSq()) }

// Normalized returns the unit vector, or the zero vector if v is degenerate.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Horizontal drops the vertical component.
func (v Vec3) Horizontal() Vec3 { return Vec3{X: v.X, Z: v.Z} }

// Floor projects v onto the floor plane as a planar point (X, Z).
func (v Vec3) Floor() orb.Point { return orb.Point{v.X, v.Z} }

// FromFloor lifts a floor point back to 3D at height y.
func FromFloor(p orb.Point, y float64) Vec3 { return Vec3{X: p[0], Y: y, Z: p[1]} }

// Yaw returns the heading of v around the up axis in radians, 0 facing +Z.
func (v Vec3) Yaw() float64 {
	if v.X == 0 && v.Z == 0 {
		return 0
	}
	return math.Atan2(v.X, v.Z)
}

func (v Vec3) String() string { return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z) }

// UnmarshalYAML accepts either a mapping {x, y, z} or a flow sequence [x, y, z].
func (v *Vec3) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var xs []float64
		if err := value.Decode(&xs); err != nil {
			return err
		}
		if len(xs) != 3 {
			return fmt.Errorf("vector needs 3 components, got %d", len(xs))
		}
		*v = Vec3{xs[0], xs[1], xs[2]}
		return nil
	}
	type plain Vec3
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*v = Vec3(p)
	return nil
}

// Distance is the euclidean distance between a and b.
func Distance(a, b Vec3) float64 { return a.Sub(b).Len() }

// FloorDistance is the distance between a and b measured on the floor plane.
func FloorDistance(a, b Vec3) float64 { return planar.Distance(a.Floor(), b.Floor()) }

// Lerp interpolates between a and b, t clamped to [0,1].
func Lerp(a, b, t float64) float64 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return a + (b-a)*t
}
