package emergency

import (
	"testing"

	"github.com/instaaid/ride-tracker/internal/models"
)

func TestSuggestedAmbulanceType(t *testing.T) {
	if got := SuggestedAmbulanceType("heart_attack"); got != models.AmbulanceCCS {
		t.Fatalf("heart_attack: got %s, want ccs", got)
	}
	if got := SuggestedAmbulanceType("chest_pain"); got != models.AmbulanceALS {
		t.Fatalf("chest_pain: got %s, want als", got)
	}
	if got := SuggestedAmbulanceType("unknown_id"); got != models.AmbulanceBLS {
		t.Fatalf("unknown: got %s, want bls default", got)
	}
}

func TestCatalogueMatchesBackendIDs(t *testing.T) {
	wantCategories := map[string]Category{
		"heart_attack":         Cardiac,
		"cardiac_arrest":       Cardiac,
		"chest_pain":           Cardiac,
		"major_trauma":         Trauma,
		"motor_accident":       Trauma,
		"burns":                Burns,
		"breathing_difficulty": Respiratory,
		"choking":              Respiratory,
		"stroke":               Neurological,
		"seizure":              Neurological,
		"head_injury":          Neurological,
		"pediatric_emergency":  Pediatric,
		"newborn_emergency":    Pediatric,
		"pregnancy_emergency":  Obstetric,
		"labor_delivery":       Obstetric,
		"mental_health_crisis": Psychiatric,
		"poisoning":            Poisoning,
		"general_emergency":    General,
		"diabetic_emergency":   General,
		"allergic_reaction":    General,
	}
	if got := len(All()); got != len(wantCategories) {
		t.Fatalf("catalogue has %d entries, want %d", got, len(wantCategories))
	}
	for id, cat := range wantCategories {
		entry, ok := ByID(id)
		if !ok {
			t.Fatalf("catalogue is missing %q", id)
		}
		if entry.Category != cat {
			t.Fatalf("%s: category %s, want %s", id, entry.Category, cat)
		}
	}
}

func TestCatalogueEntryRequirements(t *testing.T) {
	delivery, ok := ByID("labor_delivery")
	if !ok || len(delivery.RequiredAmbulanceTypes) != 1 || delivery.RequiredAmbulanceTypes[0] != models.AmbulanceALS {
		t.Fatalf("labor_delivery should require ALS only: %+v", delivery)
	}
	if got := SuggestedAmbulanceType("newborn_emergency"); got != models.AmbulanceCCS {
		t.Fatalf("newborn_emergency: got %s, want ccs", got)
	}
	headInjury, _ := ByID("head_injury")
	if headInjury.Priority != PriorityCritical {
		t.Fatalf("head_injury priority = %s, want critical", headInjury.Priority)
	}
	allergy, _ := ByID("allergic_reaction")
	if len(allergy.RequiredHospitalServices) != 1 || allergy.RequiredHospitalServices[0] != "emergency_room" {
		t.Fatalf("allergic_reaction services = %v", allergy.RequiredHospitalServices)
	}
}

func TestAvailableAmbulanceTypesUnknownID(t *testing.T) {
	if got := AvailableAmbulanceTypes(""); len(got) != 5 {
		t.Fatalf("expected all 5 types, got %v", got)
	}
}

func TestFilterHospitalsFallbackEquivalence(t *testing.T) {
	hospitals := []models.Hospital{
		{Name: "Full Cardiac", EmergencyServices: []string{"cardiology", "intensive_care", "surgery"}},
		// no cardiology, but ICU covers it; surgery present: matches
		// 3 of 3 requirements via equivalence
		{Name: "ICU Only", EmergencyServices: []string{"intensive_care", "surgery"}},
		{Name: "Clinic", EmergencyServices: []string{"emergency_room"}},
		// missing service data is kept for backward compatibility
		{Name: "Unknown Services"},
	}
	got := FilterHospitals(hospitals, "heart_attack")
	names := make(map[string]bool)
	for _, h := range got {
		names[h.Name] = true
	}
	if !names["Full Cardiac"] || !names["ICU Only"] || !names["Unknown Services"] {
		t.Fatalf("unexpected filter result: %v", names)
	}
	if names["Clinic"] {
		t.Fatal("clinic should not qualify for a heart attack")
	}
}

func TestFilterHospitalsUnknownEmergencyKeepsAll(t *testing.T) {
	hospitals := []models.Hospital{{Name: "A"}, {Name: "B", EmergencyServices: []string{"x"}}}
	if got := FilterHospitals(hospitals, "nope"); len(got) != 2 {
		t.Fatalf("expected passthrough, got %d", len(got))
	}
}

func TestSuitableRequiresFullCoverage(t *testing.T) {
	h := models.Hospital{EmergencyServices: []string{"intensive_care", "surgery"}}
	if !Suitable(h, "heart_attack") {
		t.Fatal("ICU+surgery should cover cardiac requirements via equivalence")
	}
	if Suitable(models.Hospital{EmergencyServices: []string{"emergency_room"}}, "heart_attack") {
		t.Fatal("ER alone cannot cover cardiac requirements")
	}
}

func TestResolveContextChain(t *testing.T) {
	// stored backend category wins
	ctx := ResolveContext(models.Snapshot{EmergencyType: "cardiac", EmergencyID: "burns", EmergencyName: "Heart Attack", Priority: "critical"})
	if ctx == nil || ctx.Type != "cardiac" {
		t.Fatalf("expected stored category, got %+v", ctx)
	}

	// catalogue lookup by id is next
	ctx = ResolveContext(models.Snapshot{EmergencyID: "stroke"})
	if ctx == nil || ctx.Type != "neurological" {
		t.Fatalf("expected catalogue category, got %+v", ctx)
	}

	// unknown id passes through unchanged
	ctx = ResolveContext(models.Snapshot{EmergencyID: "mystery"})
	if ctx == nil || ctx.Type != "mystery" {
		t.Fatalf("expected raw id passthrough, got %+v", ctx)
	}

	// no emergency at all
	if ctx := ResolveContext(models.Snapshot{}); ctx != nil {
		t.Fatalf("expected nil context, got %+v", ctx)
	}
}

func TestContextForBooking(t *testing.T) {
	ctx := ContextForBooking("heart_attack", "", "")
	if ctx == nil || ctx.Type != "cardiac" || ctx.Name != "Heart Attack" || ctx.Priority != "critical" {
		t.Fatalf("unexpected context %+v", ctx)
	}
	if ctx := ContextForBooking("", "", ""); ctx != nil {
		t.Fatalf("expected nil for empty id, got %+v", ctx)
	}
}
