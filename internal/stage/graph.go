// Package stage declares the order lifecycle: the total order of stages,
// the transition graph keyed by (current stage, actor role), and the
// capability table. Everything here is read-only configuration shared by
// all concurrent operations.
package stage

import "cookie-cutter-backend/internal/models"

// Order is the declared forward path, used for progress rendering.
// Requested Changes sits off this path and maps to Draft's position.
var Order = []models.Stage{
	models.StageDraft,
	models.StageSubmitted,
	models.StageRequiresApproval,
	models.StageReadyToPrint,
	models.StagePrinting,
	models.StageCompleted,
}

// Index returns the stage's position on the forward path, or -1 for an
// unknown stage. Requested Changes reports Draft's index since the baker
// is back to re-editing.
func Index(s models.Stage) int {
	if s == models.StageRequestedChanges {
		s = models.StageDraft
	}
	for i, stage := range Order {
		if stage == s {
			return i
		}
	}
	return -1
}

func Valid(s models.Stage) bool {
	return s == models.StageRequestedChanges || Index(s) >= 0
}

// bakerTransitions require ownership of the order; adminTransitions do not.
var bakerTransitions = map[models.Stage][]models.Stage{
	models.StageDraft:            {models.StageSubmitted},
	models.StageRequestedChanges: {models.StageSubmitted},
}

var adminTransitions = map[models.Stage][]models.Stage{
	models.StageSubmitted:        {models.StageRequiresApproval, models.StageRequestedChanges},
	models.StageRequiresApproval: {models.StageReadyToPrint, models.StageRequestedChanges},
	models.StageReadyToPrint:     {models.StagePrinting},
	models.StagePrinting:         {models.StageCompleted},
}

// AllowedTargets returns the stages the role may move an order to from
// current. Ownership is checked separately by the engine.
func AllowedTargets(current models.Stage, role models.Role) []models.Stage {
	var table map[models.Stage][]models.Stage
	switch role {
	case models.RoleBaker:
		table = bakerTransitions
	case models.RoleAdmin:
		table = adminTransitions
	default:
		return nil
	}
	return table[current]
}

func CanTransition(current, target models.Stage, role models.Role) bool {
	for _, t := range AllowedTargets(current, role) {
		if t == target {
			return true
		}
	}
	return false
}
