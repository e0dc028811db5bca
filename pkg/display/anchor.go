package display

import "organtour/pkg/geom"

// Placement is where the panel sits in the room and which way its front faces.
// Facing is yaw-only unless the viewpoint looked straight up or down when it was
// computed.
type Placement struct {
	Position geom.Vec3 `json:"position"`
	Facing   geom.Vec3 `json:"facing"`
}

// Yaw returns the panel heading in radians.
func (p Placement) Yaw() float64 { return p.Facing.Yaw() }

// anchorInFront places the panel distance meters ahead of the viewpoint along its flat
// forward, height meters above origin. origin is the anchor root override or the
// viewpoint's floor projection.
func anchorInFront(pose geom.Pose, origin geom.Vec3, distance, height float64) Placement {
	forward := pose.FlatForward()
	pos := origin.Add(forward.Scale(distance))
	pos.Y = origin.Y + height
	return Placement{Position: pos, Facing: forward}
}
