// Package fleet builds reproducible medic rosters. Every roster is fully
// determined by its seed, the patient location and the roster size.
package fleet

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/cespare/xxhash/v2"

	"sahm/internal/geo"
	"sahm/internal/models"
	"sahm/internal/rules"
)

// Generator materializes medic rosters from the fleet tables
type Generator struct {
	tables rules.FleetTables
}

// NewGenerator creates a generator over the given decision tables
func NewGenerator(tables *rules.Tables) *Generator {
	return &Generator{tables: tables.Fleet}
}

// Roster returns the default-size fleet for seed and loc
func (g *Generator) Roster(seed int64, loc models.Location) []models.Medic {
	return g.Generate(seed, loc, 0)
}

// Generate builds a fleet of size medics around loc. A non-positive size uses the
// configured default. Identical arguments always yield an identical fleet.
func (g *Generator) Generate(seed int64, loc models.Location, size int) []models.Medic {
	f := g.tables
	if size <= 0 {
		size = f.Size
	}

	rng := newSource(seed, loc)
	statuses := g.statuses(rng, size)

	medics := make([]models.Medic, size)
	for i := range medics {
		distance := f.RadiusKm * math.Sqrt(rng.Float64())
		bearing := 2 * math.Pi * rng.Float64()
		status := statuses[i]

		medics[i] = models.Medic{
			ID:                 fmt.Sprintf("MED-%03d", i+1),
			Name:               f.FirstNames[rng.IntN(len(f.FirstNames))] + " " + f.LastNames[rng.IntN(len(f.LastNames))],
			Specialty:          g.specialty(rng),
			CertificationLevel: models.CertificationLevel(1 + rng.IntN(3)),
			GPSLocation:        geo.Offset(loc, distance, bearing),
			Status:             status,
			CurrentLoad:        loadFor(rng, status),
			MissionsCompleted:  5 + rng.IntN(396),
			Rating:             math.Round((3.5+rng.Float64()*1.5)*10) / 10,
			Languages:          g.languages(rng),
		}
	}
	return medics
}

// statuses lays out the roster composition and shuffles it. At least one medic is
// always Available.
func (g *Generator) statuses(rng *rand.Rand, size int) []models.MedicStatus {
	available := int(math.Round(float64(size) * g.tables.AvailableShare))
	if available < 1 {
		available = 1
	}
	if available > size {
		available = size
	}
	enRoute := int(math.Round(float64(size) * g.tables.EnRouteShare))
	if enRoute > size-available {
		enRoute = size - available
	}

	out := make([]models.MedicStatus, 0, size)
	for i := 0; i < size; i++ {
		switch {
		case i < available:
			out = append(out, models.StatusAvailable)
		case i < available+enRoute:
			out = append(out, models.StatusEnRoute)
		default:
			out = append(out, models.StatusBusy)
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (g *Generator) specialty(rng *rand.Rand) models.Specialty {
	total := 0
	for _, s := range g.tables.Specialties {
		total += s.Weight
	}
	pick := rng.IntN(total)
	for _, s := range g.tables.Specialties {
		if pick < s.Weight {
			return s.Specialty
		}
		pick -= s.Weight
	}
	return g.tables.Specialties[len(g.tables.Specialties)-1].Specialty
}

func (g *Generator) languages(rng *rand.Rand) []string {
	langs := []string{"ar"}
	if rng.Float64() < 0.7 {
		langs = append(langs, "en")
	}
	if len(g.tables.ExtraLanguages) > 0 && rng.Float64() < 0.2 {
		extra := g.tables.ExtraLanguages[rng.IntN(len(g.tables.ExtraLanguages))]
		if extra != "ar" && !(extra == "en" && len(langs) > 1) {
			langs = append(langs, extra)
		}
	}
	return langs
}

func loadFor(rng *rand.Rand, status models.MedicStatus) int {
	switch status {
	case models.StatusAvailable:
		return rng.IntN(2)
	case models.StatusEnRoute:
		return 1 + rng.IntN(2)
	default:
		return 2 + rng.IntN(3)
	}
}

// newSource derives a PCG generator from the seed and location. The location is
// rendered at fixed precision so that the stream is stable across platforms.
func newSource(seed int64, loc models.Location) *rand.Rand {
	key := fmt.Sprintf("%d|%.6f|%.6f", seed, loc.Latitude, loc.Longitude)
	hi := xxhash.Sum64String(key)
	lo := xxhash.Sum64String(key + "|stream")
	return rand.New(rand.NewPCG(hi, lo))
}

// StableSeed derives a reproducible seed in [0, 10000) from incident attributes
func StableSeed(parts ...any) int64 {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = fmt.Sprint(p)
	}
	return int64(xxhash.Sum64String(strings.Join(strs, "|")) % 10000)
}

// StaticRoster serves a fixed list of medics regardless of seed or location
type StaticRoster []models.Medic

// Roster returns a copy of the fixed list
func (r StaticRoster) Roster(int64, models.Location) []models.Medic {
	out := make([]models.Medic, len(r))
	copy(out, r)
	return out
}
