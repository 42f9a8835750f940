// Package store records per-step run summaries and exports them, plus final
// particle snapshots, to JSON and CSV.
package store

import (
	"encoding/json"
	"os"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/avrelian/sphflow/internal/fluid"
)

// Sample is one per-step row of the run series.
type Sample struct {
	Time          float64 `json:"t"`
	KineticEnergy float64 `json:"kinetic_energy"`
	MeanDensity   float64 `json:"mean_density"`
	MaxSpeed      float64 `json:"max_speed"`
}

// Recorder accumulates per-step samples during a run.
type Recorder struct {
	samples []Sample
}

func NewRecorder(capacity int) *Recorder {
	return &Recorder{samples: make([]Sample, 0, capacity)}
}

// Observe reduces the particle buffer to a sample row for time t.
func (r *Recorder) Observe(particles []fluid.Particle, t float64) {
	s := Sample{Time: t}
	if n := len(particles); n > 0 {
		var ke, density, maxSpeed float64
		for i := range particles {
			ke += 0.5 * r3.Norm2(particles[i].Velocity)
			density += particles[i].Density
			if v := r3.Norm(particles[i].Velocity); v > maxSpeed {
				maxSpeed = v
			}
		}
		s.KineticEnergy = ke / float64(n)
		s.MeanDensity = density / float64(n)
		s.MaxSpeed = maxSpeed
	}
	r.samples = append(r.samples, s)
}

func (r *Recorder) Samples() []Sample { return r.samples }

// ExportData is the JSON shape of a recorded run.
type ExportData struct {
	Preset    string             `json:"preset,omitempty"`
	Dt        float64            `json:"dt"`
	Steps     int                `json:"steps"`
	Particles int                `json:"particles"`
	Config    fluid.Config       `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
	Series    []Sample           `json:"series"`
}

// ExportJSON writes run metadata and the recorded series to path.
func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// particleRow flattens a particle for CSV output.
type particleRow struct {
	X           float64 `csv:"x"`
	Y           float64 `csv:"y"`
	Z           float64 `csv:"z"`
	VX          float64 `csv:"vx"`
	VY          float64 `csv:"vy"`
	VZ          float64 `csv:"vz"`
	Density     float64 `csv:"density"`
	NearDensity float64 `csv:"near_density"`
}

// WriteParticleCSV dumps the particle buffer to a CSV file at path.
func WriteParticleCSV(path string, particles []fluid.Particle) error {
	rows := make([]particleRow, len(particles))
	for i, p := range particles {
		rows[i] = particleRow{
			X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z,
			VX: p.Velocity.X, VY: p.Velocity.Y, VZ: p.Velocity.Z,
			Density:     p.Density,
			NearDensity: p.NearDensity,
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gocsv.Marshal(&rows, file)
}
