package emergency

import "github.com/instaaid/ride-tracker/internal/models"

// resolution is one strategy for recovering the backend-normalized
// emergency context from a persisted booking snapshot. Strategies are
// tried in order; the first that produces a context wins. Degrading
// to the raw id keeps the user unblocked even when the catalogue has
// drifted since the original booking.
type resolution func(models.Snapshot) *models.EmergencyContext

var resolutionChain = []resolution{
	// 1. the category stored at booking time, already normalized
	func(s models.Snapshot) *models.EmergencyContext {
		if s.EmergencyType == "" {
			return nil
		}
		return &models.EmergencyContext{Type: s.EmergencyType, Name: s.EmergencyName, Priority: s.Priority}
	},
	// 2. re-derive the category from the stored catalogue id
	func(s models.Snapshot) *models.EmergencyContext {
		if s.EmergencyID == "" {
			return nil
		}
		t, ok := ByID(s.EmergencyID)
		if !ok {
			return nil
		}
		return &models.EmergencyContext{Type: string(t.Category), Name: s.EmergencyName, Priority: s.Priority}
	},
	// 3. pass the raw id through unchanged
	func(s models.Snapshot) *models.EmergencyContext {
		if s.EmergencyID == "" {
			return nil
		}
		return &models.EmergencyContext{Type: s.EmergencyID, Name: s.EmergencyName, Priority: s.Priority}
	},
}

// ResolveContext recovers the emergency context for a rebooking, or
// nil when the snapshot carries no emergency at all.
func ResolveContext(s models.Snapshot) *models.EmergencyContext {
	for _, strategy := range resolutionChain {
		if ctx := strategy(s); ctx != nil {
			return ctx
		}
	}
	return nil
}

// ContextForBooking converts a patient-selected emergency id into the
// context a fresh booking sends, falling back to the raw id for
// unknown entries.
func ContextForBooking(emergencyID, name, priority string) *models.EmergencyContext {
	if emergencyID == "" {
		return nil
	}
	if t, ok := ByID(emergencyID); ok {
		if name == "" {
			name = t.Name
		}
		if priority == "" {
			priority = string(t.Priority)
		}
		return &models.EmergencyContext{Type: string(t.Category), Name: name, Priority: priority}
	}
	return &models.EmergencyContext{Type: emergencyID, Name: name, Priority: priority}
}
