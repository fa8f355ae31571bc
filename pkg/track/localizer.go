package track

import (
	"math"

	"github.com/openkart/racecore/pkg/geom"
)

const (
	// searchWindow is the number of tessellation indices scanned on each side
	// of the previous parameter. With the default divisions this covers far
	// more distance than a vehicle can travel in one tick.
	searchWindow = 30

	// searchStep skips every other candidate; the tessellation is dense
	// enough that the nearer neighbour still wins.
	searchStep = 2
)

// Localization is the track-relative description of a world position.
// It is recomputed every tick and not persisted; only T carries over as the
// next tick's search hint.
type Localization struct {
	T        float64
	Point    geom.Vec3
	Tangent  geom.Vec3
	Binormal geom.Vec3
	Lateral  float64
}

// Localize finds the closest tessellation sample to pos near the previous
// parameter lastT. The window assumes the position moved a bounded distance
// since lastT was valid; after a teleport or reset use LocalizeFull or
// re-seed lastT.
func (c *Curve) Localize(pos geom.Vec3, lastT float64) Localization {
	center := int(math.Round(geom.Wrap01(lastT) * float64(c.divisions)))
	bestIdx := ((center % c.divisions) + c.divisions) % c.divisions
	bestDist := math.MaxFloat64
	for off := -searchWindow; off <= searchWindow; off += searchStep {
		idx := ((center + off) % c.divisions + c.divisions) % c.divisions
		d := c.samples[idx].point.DistanceSq(pos)
		if d < bestDist {
			bestDist = d
			bestIdx = idx
		}
	}
	return c.localizationAt(bestIdx, pos)
}

// LocalizeFull scans every tessellation sample. Used after teleports and
// track swaps, where the windowed search hint is meaningless.
func (c *Curve) LocalizeFull(pos geom.Vec3) Localization {
	bestIdx := 0
	bestDist := math.MaxFloat64
	for idx := range c.samples {
		d := c.samples[idx].point.DistanceSq(pos)
		if d < bestDist {
			bestDist = d
			bestIdx = idx
		}
	}
	return c.localizationAt(bestIdx, pos)
}

func (c *Curve) localizationAt(idx int, pos geom.Vec3) Localization {
	s := c.samples[idx]
	// horizontal perpendicular; positive lateral means offset toward its
	// positive side
	binormal := geom.Up().Cross(s.tangent).Normalize()
	return Localization{
		T:        float64(idx) / float64(c.divisions),
		Point:    s.point,
		Tangent:  s.tangent,
		Binormal: binormal,
		Lateral:  pos.Sub(s.point).Dot(binormal),
	}
}
