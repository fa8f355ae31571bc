package track

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/openkart/racecore/log"
	"github.com/openkart/racecore/pkg/geom"
)

// Definition is the persisted form of a track: geometry plus the corridor
// and race parameters the session needs.
type Definition struct {
	Name          string       `yaml:"name"`
	Tension       float64      `yaml:"tension"`
	Divisions     int          `yaml:"divisions"`
	RoadHalfWidth float64      `yaml:"roadHalfWidth"`
	KerbWidth     float64      `yaml:"kerbWidth"`
	Laps          int          `yaml:"laps"`
	SmoothAngle   float64      `yaml:"smoothAngleDeg"`
	Smoothness    float64      `yaml:"smoothness"`
	Points        [][3]float64 `yaml:"points"`
}

// Load decodes a YAML track definition.
func Load(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode track definition: %w", err)
	}
	return &def, nil
}

// LoadFile reads and decodes a YAML track definition from disk.
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track file: %w", err)
	}
	defer f.Close()
	def, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("track file %s: %w", path, err)
	}
	return def, nil
}

// LoadFileOrDefault loads the given track file, substituting the built-in
// default track when the file is missing or invalid. Degenerate geometry is
// a configuration error and must not reach the integrator.
func LoadFileOrDefault(path string, l *log.Logger) *Definition {
	if path == "" {
		return DefaultDefinition()
	}
	def, err := LoadFile(path)
	if err == nil {
		if _, buildErr := def.Build(); buildErr == nil {
			return def
		} else {
			err = buildErr
		}
	}
	l.Warn("falling back to default track",
		log.String("path", path), log.ErrorField(err))
	return DefaultDefinition()
}

// Build applies the corner smoothing pre-pass and constructs the curve.
func (d *Definition) Build() (*Curve, error) {
	points := lo.Map(d.Points, func(p [3]float64, _ int) geom.Vec3 {
		return geom.V3(p[0], p[1], p[2])
	})

	maxAngle := DefaultSmoothMaxAngle
	if d.SmoothAngle > 0 {
		maxAngle = d.SmoothAngle * math.Pi / 180
	}
	smoothness := d.Smoothness
	if smoothness <= 0 {
		smoothness = DefaultSmoothness
	}
	points = SmoothCorners(points, maxAngle, smoothness)
	if len(points) < 3 {
		return nil, ErrTooFewPoints
	}

	opts := []CurveOption{}
	if d.Tension > 0 {
		opts = append(opts, WithTension(d.Tension))
	}
	if d.Divisions > 0 {
		opts = append(opts, WithDivisions(d.Divisions))
	}
	return NewCurve(points, opts...)
}

// DefaultDefinition returns the built-in fallback track, a wide rounded
// square loop known to produce valid geometry.
func DefaultDefinition() *Definition {
	return &Definition{
		Name:          "default-loop",
		Tension:       DefaultTension,
		Divisions:     DefaultDivisions,
		RoadHalfWidth: 10,
		KerbWidth:     3,
		Laps:          3,
		Points: [][3]float64{
			{100, 0, 100},
			{-100, 0, 100},
			{-100, 0, -100},
			{100, 0, -100},
		},
	}
}
