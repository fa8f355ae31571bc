package track

import (
	"math"

	"github.com/openkart/racecore/pkg/geom"
)

const (
	// DefaultSmoothMaxAngle is the turn angle (radians) above which a control
	// point is considered a kink and gets split.
	DefaultSmoothMaxAngle = math.Pi / 3

	// DefaultSmoothness controls how far the inserted points are pulled back
	// toward the neighbours.
	DefaultSmoothness = 0.25
)

// SmoothCorners returns a new control point list in which every point whose
// turn angle exceeds maxAngle is replaced by two points pulled toward its
// neighbours by the smoothness factor. The list is treated as a closed loop.
// The input is never modified.
func SmoothCorners(points []geom.Vec3, maxAngle, smoothness float64) []geom.Vec3 {
	n := len(points)
	if n < 3 {
		return append([]geom.Vec3(nil), points...)
	}
	smoothness = geom.Clamp(smoothness, 0, 0.5)

	out := make([]geom.Vec3, 0, n)
	for i := 0; i < n; i++ {
		prev := points[(i-1+n)%n]
		cur := points[i]
		next := points[(i+1)%n]

		in := cur.Sub(prev).Normalize()
		outDir := next.Sub(cur).Normalize()
		turn := math.Acos(geom.Clamp(in.Dot(outDir), -1, 1))
		if turn <= maxAngle {
			out = append(out, cur)
			continue
		}
		// split the kink: one point pulled toward each neighbour
		out = append(out,
			cur.Add(prev.Sub(cur).Scale(smoothness)),
			cur.Add(next.Sub(cur).Scale(smoothness)),
		)
	}
	return out
}
