package emergency

import (
	"strings"

	"github.com/instaaid/ride-tracker/internal/models"
)

// serviceCovers reports whether a hospital offering `have` services
// can stand in for a required service. Some specialties are covered
// by broader capabilities (an ICU can handle pulmonology cases, a
// general surgery unit can take trauma surgery).
func serviceCovers(required string, have map[string]bool) bool {
	if have[required] {
		return true
	}
	switch required {
	case "pulmonology", "cardiology", "neurology":
		return have["intensive_care"]
	case "cardiac_catheterization":
		return have["cardiology"] || have["intensive_care"]
	case "cardiac_surgery":
		return have["surgery"] || have["cardiology"]
	case "trauma_surgery", "blood_bank":
		return have["surgery"]
	}
	return false
}

func serviceSet(services []string) map[string]bool {
	set := make(map[string]bool, len(services))
	for _, s := range services {
		set[strings.ToLower(strings.TrimSpace(s))] = true
	}
	return set
}

// FilterHospitals keeps the hospitals able to treat the given
// emergency. Hospitals without service data are kept for backward
// compatibility with older backend payloads. The match thresholds are
// deliberately lenient: a hospital covering two of three-plus
// required services is still offered.
func FilterHospitals(hospitals []models.Hospital, emergencyID string) []models.Hospital {
	t, ok := ByID(emergencyID)
	if !ok {
		return hospitals
	}
	out := make([]models.Hospital, 0, len(hospitals))
	for _, h := range hospitals {
		if len(h.EmergencyServices) == 0 {
			out = append(out, h)
			continue
		}
		have := serviceSet(h.EmergencyServices)
		matched := 0
		for _, req := range t.RequiredHospitalServices {
			if serviceCovers(strings.ToLower(strings.TrimSpace(req)), have) {
				matched++
			}
		}
		switch n := len(t.RequiredHospitalServices); {
		case n == 1 && matched == 1,
			n == 2 && matched == 2,
			n >= 3 && matched >= 2:
			out = append(out, h)
		}
	}
	return out
}

// Suitable reports whether one hospital covers every required service
// for the emergency (including the broader-capability equivalences).
func Suitable(h models.Hospital, emergencyID string) bool {
	t, ok := ByID(emergencyID)
	if !ok {
		return true
	}
	have := serviceSet(h.EmergencyServices)
	for _, req := range t.RequiredHospitalServices {
		if !serviceCovers(strings.ToLower(strings.TrimSpace(req)), have) {
			return false
		}
	}
	return true
}
