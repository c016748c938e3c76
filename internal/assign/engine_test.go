package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahm/internal/fleet"
	"sahm/internal/models"
	"sahm/internal/rules"
)

// countingRoster records how often a fleet was requested
type countingRoster struct {
	calls int
	inner RosterSource
}

func (r *countingRoster) Roster(seed int64, loc models.Location) []models.Medic {
	r.calls++
	return r.inner.Roster(seed, loc)
}

func medic(id string, lat float64, specialty models.Specialty, missions int, rating float64) models.Medic {
	return models.Medic{
		ID:                id,
		Name:              "Medic " + id,
		Specialty:         specialty,
		GPSLocation:       models.Location{Latitude: lat},
		Status:            models.StatusAvailable,
		MissionsCompleted: missions,
		Rating:            rating,
		Languages:         []string{"en"},
	}
}

var cardiacTriage = models.TriageResult{SeverityLevel: models.SeverityCritical, Category: models.CategoryCardiac}

func TestAssign_DistancePriority(t *testing.T) {
	near := medic("MED-A", 0.045, models.SpecialtyGeneral, 10, 5.0)
	near.CertificationLevel = models.CertParamedic
	far := medic("MED-B", 0.135, models.SpecialtyCardiac, 100, 5.0)
	far.CertificationLevel = models.CertCriticalCare

	e := NewEngine(rules.MustDefault(), fleet.StaticRoster{near, far})
	got := e.Assign(models.ParseResponseMode("aerial_only"), cardiacTriage, &models.Location{}, 0)

	require.Equal(t, models.AssignmentSuccess, got.Status)
	require.NotNil(t, got.AssignedMedic)
	assert.Equal(t, "MED-A", got.AssignedMedic.ID)
	assert.Equal(t, "aerial_only", got.Mode)
	assert.InDelta(t, 5.0, got.DistanceKm, 0.05)
	assert.Len(t, got.AllMedics, 2)
}

func TestAssign_GroundOnlySkipsFleet(t *testing.T) {
	roster := &countingRoster{inner: fleet.NewGenerator(rules.MustDefault())}
	e := NewEngine(rules.MustDefault(), roster)

	got := e.Assign(models.ParseResponseMode("ground_only"), cardiacTriage, nil, 5)

	assert.Equal(t, models.AssignmentNotRequired, got.Status)
	assert.Equal(t, "ground_only", got.Mode)
	assert.Nil(t, got.AssignedMedic)
	assert.Contains(t, got.Reasoning, "Ground ambulance only")
	assert.Empty(t, got.AllMedics)
	assert.Equal(t, 0, roster.calls)
	assert.Equal(t, models.DefaultOpsLocation, got.PatientLocation)
}

func TestAssign_NoMatch(t *testing.T) {
	busy := medic("MED-A", 0.01, models.SpecialtyCardiac, 50, 5)
	busy.Status = models.StatusBusy
	full := medic("MED-B", 0.01, models.SpecialtyCardiac, 50, 5)
	full.Status = models.StatusEnRoute
	full.CurrentLoad = 3

	e := NewEngine(rules.MustDefault(), fleet.StaticRoster{busy, full})
	got := e.Assign(models.ModeBoth, cardiacTriage, &models.Location{}, 0)

	assert.Equal(t, models.AssignmentNoMatch, got.Status)
	assert.Equal(t, "combined", got.Mode)
	assert.Nil(t, got.AssignedMedic)
	assert.Contains(t, got.Reasoning, "No eligible medic")
	assert.Len(t, got.AllMedics, 2)
}

func TestAssign_EmptyRoster(t *testing.T) {
	e := NewEngine(rules.MustDefault(), fleet.StaticRoster{})
	got := e.Assign(models.ModeDoctorDrone, cardiacTriage, nil, 0)

	assert.Equal(t, models.AssignmentNoMatch, got.Status)
}

func TestAssign_TieBreaks(t *testing.T) {
	e := NewEngine(rules.MustDefault(), nil)

	// identical score, higher rating wins
	a := e.score(medic("MED-2", 0.01, models.SpecialtyCardiac, 1, 4.0), models.CategoryCardiac, models.Location{})
	b := e.score(medic("MED-1", 0.01, models.SpecialtyCardiac, 1, 4.0), models.CategoryCardiac, models.Location{})
	assert.True(t, better(b, a), "smaller id wins when score and rating tie")
	assert.False(t, better(a, b))

	hi := candidate{medic: models.Medic{ID: "MED-9", Rating: 4.9}, score: 0.5}
	lo := candidate{medic: models.Medic{ID: "MED-1", Rating: 4.1}, score: 0.5}
	assert.True(t, better(hi, lo), "higher rating wins when score ties")

	// an identical roster in either order resolves to the same medic
	twins := fleet.StaticRoster{
		medic("MED-2", 0.02, models.SpecialtyCardiac, 1, 4.5),
		medic("MED-1", 0.02, models.SpecialtyCardiac, 1, 4.5),
	}
	reversed := fleet.StaticRoster{twins[1], twins[0]}
	first := NewEngine(rules.MustDefault(), twins).Assign(models.ModeBoth, cardiacTriage, &models.Location{}, 0)
	second := NewEngine(rules.MustDefault(), reversed).Assign(models.ModeBoth, cardiacTriage, &models.Location{}, 0)
	assert.Equal(t, "MED-1", first.AssignedMedic.ID)
	assert.Equal(t, "MED-1", second.AssignedMedic.ID)
}

func TestAssign_Breakdown(t *testing.T) {
	m := medic("MED-A", 0, models.SpecialtyTrauma, 20, 4.0)
	m.CurrentLoad = 1
	e := NewEngine(rules.MustDefault(), fleet.StaticRoster{m})

	got := e.Assign(models.ModeDoctorDrone, models.TriageResult{Category: models.CategoryTraumaBleeding}, &models.Location{}, 0)
	require.Equal(t, models.AssignmentSuccess, got.Status)

	b := got.MatchBreakdown
	assert.Equal(t, 1.0, b.DistanceScore)
	assert.Equal(t, 1.0, b.SpecialtyScore)
	assert.Equal(t, 0.5, b.WorkloadScore)
	assert.Equal(t, 0.8, b.RatingScore)
	assert.InDelta(t, 0.55+0.20+0.075+0.08, got.MatchScore, 1e-9)
	assert.Equal(t, 0.0, got.ETAMinutes)

	for _, v := range []float64{b.DistanceScore, b.SpecialtyScore, b.WorkloadScore, b.RatingScore} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestAssign_SpecialtyScores(t *testing.T) {
	e := NewEngine(rules.MustDefault(), nil)

	assert.Equal(t, 1.0, e.specialtyScore(models.SpecialtyCardiac, models.CategoryCardiac))
	assert.Equal(t, 0.5, e.specialtyScore(models.SpecialtyEmergency, models.CategoryCardiac))
	assert.Equal(t, 0.2, e.specialtyScore(models.SpecialtyPediatric, models.CategoryCardiac))
	assert.Equal(t, 1.0, e.specialtyScore(models.SpecialtyGeneral, "not_a_category"))
}

func TestAssign_ETAFromCruiseSpeed(t *testing.T) {
	m := medic("MED-A", 0.2, models.SpecialtyGeneral, 10, 4.5)
	e := NewEngine(rules.MustDefault(), fleet.StaticRoster{m})

	got := e.Assign(models.ModeDoctorDrone, cardiacTriage, &models.Location{}, 0)

	// 22.24 km at 120 km/h
	assert.InDelta(t, 22.24, got.DistanceKm, 0.01)
	assert.Equal(t, 11.1, got.ETAMinutes)
}

func TestAssign_GeneratedFleet(t *testing.T) {
	tables := rules.MustDefault()
	e := NewEngine(tables, fleet.NewGenerator(tables))

	first := e.Assign(models.ModeBoth, cardiacTriage, nil, 11)
	second := e.Assign(models.ModeBoth, cardiacTriage, nil, 11)

	require.Equal(t, models.AssignmentSuccess, first.Status)
	require.NotNil(t, first.AssignedMedic)
	assert.Equal(t, first.AssignedMedic.ID, second.AssignedMedic.ID)
	assert.Equal(t, first.MatchScore, second.MatchScore)
	assert.NotEqual(t, models.StatusBusy, first.AssignedMedic.Status)
	assert.Less(t, first.MatchTimeSeconds, 3.0)
	assert.Len(t, first.AllMedics, tables.Fleet.Size)

	for _, m := range first.AllMedics {
		if e.eligible(m) {
			assert.LessOrEqual(t, e.score(m, cardiacTriage.Category, first.PatientLocation).score, first.MatchScore)
		}
	}
}
