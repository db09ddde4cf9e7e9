// Package emergency carries the client-side triage catalogue: the
// emergency types a patient can pick, the backend-normalized category
// each maps to, and the ambulance classes and hospital services each
// requires.
package emergency

import "github.com/instaaid/ride-tracker/internal/models"

// Category is a backend-normalized emergency category. Bookings send
// the category, never the catalogue id the patient tapped.
type Category string

const (
	Cardiac      Category = "cardiac"
	Trauma       Category = "trauma"
	Respiratory  Category = "respiratory"
	Neurological Category = "neurological"
	Pediatric    Category = "pediatric"
	Obstetric    Category = "obstetric"
	Psychiatric  Category = "psychiatric"
	Burns        Category = "burns"
	Poisoning    Category = "poisoning"
	General      Category = "general"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Type is one catalogue entry.
type Type struct {
	ID                       string
	Category                 Category
	Name                     string
	Priority                 Priority
	RequiredAmbulanceTypes   []models.AmbulanceType
	RequiredHospitalServices []string
}

var catalogue = []Type{
	{
		ID: "heart_attack", Category: Cardiac, Name: "Heart Attack", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS, models.AmbulanceCCS},
		RequiredHospitalServices: []string{"cardiology", "intensive_care", "surgery"},
	},
	{
		ID: "cardiac_arrest", Category: Cardiac, Name: "Cardiac Arrest", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS, models.AmbulanceCCS},
		RequiredHospitalServices: []string{"cardiology", "intensive_care", "surgery"},
	},
	{
		ID: "chest_pain", Category: Cardiac, Name: "Chest Pain", Priority: PriorityHigh,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"cardiology", "intensive_care", "surgery"},
	},
	{
		ID: "major_trauma", Category: Trauma, Name: "Major Trauma", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS, models.AmbulanceCCS},
		RequiredHospitalServices: []string{"trauma_center", "surgery", "intensive_care", "blood_bank"},
	},
	{
		ID: "motor_accident", Category: Trauma, Name: "Motor Vehicle Accident", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS, models.AmbulanceCCS},
		RequiredHospitalServices: []string{"trauma_center", "surgery", "intensive_care", "blood_bank"},
	},
	{
		ID: "burns", Category: Burns, Name: "Burn Injuries", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS, models.AmbulanceCCS},
		RequiredHospitalServices: []string{"burn_unit", "intensive_care", "surgery"},
	},
	{
		ID: "breathing_difficulty", Category: Respiratory, Name: "Breathing Difficulty", Priority: PriorityHigh,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"intensive_care", "emergency_room"},
	},
	{
		ID: "choking", Category: Respiratory, Name: "Choking", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"intensive_care", "emergency_room"},
	},
	{
		ID: "stroke", Category: Neurological, Name: "Stroke", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS, models.AmbulanceCCS},
		RequiredHospitalServices: []string{"neurology", "intensive_care", "surgery"},
	},
	{
		ID: "seizure", Category: Neurological, Name: "Seizure", Priority: PriorityHigh,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"neurology", "intensive_care", "surgery"},
	},
	{
		ID: "head_injury", Category: Neurological, Name: "Head Injury", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS, models.AmbulanceCCS},
		RequiredHospitalServices: []string{"neurology", "intensive_care", "surgery"},
	},
	{
		ID: "pediatric_emergency", Category: Pediatric, Name: "Child Emergency", Priority: PriorityHigh,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"pediatrics", "emergency_room"},
	},
	{
		ID: "newborn_emergency", Category: Pediatric, Name: "Newborn Emergency", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS, models.AmbulanceCCS},
		RequiredHospitalServices: []string{"pediatrics", "emergency_room"},
	},
	{
		ID: "pregnancy_emergency", Category: Obstetric, Name: "Pregnancy Emergency", Priority: PriorityHigh,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"obstetrics", "emergency_room"},
	},
	{
		ID: "labor_delivery", Category: Obstetric, Name: "Emergency Delivery", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS},
		RequiredHospitalServices: []string{"obstetrics", "emergency_room"},
	},
	{
		ID: "mental_health_crisis", Category: Psychiatric, Name: "Mental Health Crisis", Priority: PriorityHigh,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"psychiatry", "emergency_room"},
	},
	{
		ID: "poisoning", Category: Poisoning, Name: "Poisoning/Overdose", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceALS, models.AmbulanceCCS},
		RequiredHospitalServices: []string{"emergency_room", "intensive_care"},
	},
	{
		ID: "general_emergency", Category: General, Name: "General Medical Emergency", Priority: PriorityMedium,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"emergency_room"},
	},
	{
		ID: "diabetic_emergency", Category: General, Name: "Diabetic Emergency", Priority: PriorityHigh,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"emergency_room"},
	},
	{
		ID: "allergic_reaction", Category: General, Name: "Severe Allergic Reaction", Priority: PriorityCritical,
		RequiredAmbulanceTypes:   []models.AmbulanceType{models.AmbulanceBLS, models.AmbulanceALS},
		RequiredHospitalServices: []string{"emergency_room"},
	},
}

// ByID looks up a catalogue entry by its id.
func ByID(id string) (Type, bool) {
	for _, t := range catalogue {
		if t.ID == id {
			return t, true
		}
	}
	return Type{}, false
}

// All returns the catalogue in display order.
func All() []Type {
	out := make([]Type, len(catalogue))
	copy(out, catalogue)
	return out
}

// AvailableAmbulanceTypes returns the vehicle classes suited to an
// emergency, or every class when the id is unknown or empty.
func AvailableAmbulanceTypes(emergencyID string) []models.AmbulanceType {
	t, ok := ByID(emergencyID)
	if !ok {
		return []models.AmbulanceType{
			models.AmbulanceBLS, models.AmbulanceALS, models.AmbulanceCCS,
			models.AmbulanceAuto, models.AmbulanceBike,
		}
	}
	out := make([]models.AmbulanceType, len(t.RequiredAmbulanceTypes))
	copy(out, t.RequiredAmbulanceTypes)
	return out
}

// SuggestedAmbulanceType picks the most capable class the emergency
// allows.
func SuggestedAmbulanceType(emergencyID string) models.AmbulanceType {
	t, ok := ByID(emergencyID)
	if !ok || len(t.RequiredAmbulanceTypes) == 0 {
		return models.AmbulanceBLS
	}
	ranked := []models.AmbulanceType{
		models.AmbulanceCCS, models.AmbulanceALS, models.AmbulanceBLS, models.AmbulanceAuto,
	}
	for _, want := range ranked {
		for _, have := range t.RequiredAmbulanceTypes {
			if have == want {
				return want
			}
		}
	}
	return models.AmbulanceBike
}
