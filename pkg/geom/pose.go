package geom

// Pose is the tracked viewpoint: where the user's head is and where it looks.
type Pose struct {
	Position Vec3 `json:"position"`
	Forward  Vec3 `json:"forward"`
}

// FlatForward returns the pose's forward direction projected onto the floor plane and
// normalized. When the projection is degenerate (looking straight up or down) the raw
// forward vector is used instead.
func (p Pose) FlatForward() Vec3 {
	return FlatDirection(p.Forward)
}

// FlatDirection projects dir onto the floor plane, falling back to dir itself when the
// projection is nearly zero.
func FlatDirection(dir Vec3) Vec3 {
	h := dir.Horizontal()
	if h.LenSq() < DegenerateEpsilon {
		return dir.Normalized()
	}
	return h.Normalized()
}

// LookAt returns the unit direction from -> to, and false if the points coincide.
func LookAt(from, to Vec3) (Vec3, bool) {
	d := to.Sub(from)
	if d.LenSq() <= DegenerateEpsilon {
		return Vec3{}, false
	}
	return d.Normalized(), true
}
