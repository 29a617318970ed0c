package stage

import "cookie-cutter-backend/internal/models"

// Capability names a mutation class an actor may perform on an order.
type Capability string

const (
	CapEditItems         Capability = "edit_items"
	CapAddInspiration    Capability = "add_inspiration"
	CapDeleteInspiration Capability = "delete_inspiration"
	CapAddPreview        Capability = "add_preview"
	CapDeletePreview     Capability = "delete_preview"
	CapAddSTL            Capability = "add_stl"
	CapDeleteSTL         Capability = "delete_stl"
	CapDeleteOrder       Capability = "delete_order"
	CapEditCompletion    Capability = "edit_completion"
)

type CapabilitySet map[Capability]bool

func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// bakerEditable lists the stages in which the owning baker may still edit
// the order's items and inspiration images.
func bakerEditable(s models.Stage) bool {
	return s == models.StageDraft || s == models.StageRequestedChanges
}

// Capabilities is the single capability predicate: evaluated once per
// operation inside the engine instead of re-derived at call sites.
// Preview images are admin-only in both directions; STL files are added by
// admin but deletable by the owning baker while the order is editable,
// mirroring the inspiration rules.
func Capabilities(role models.Role, isOwner bool, s models.Stage) CapabilitySet {
	caps := make(CapabilitySet)

	if role == models.RoleAdmin {
		caps[CapEditItems] = true
		caps[CapAddInspiration] = true
		caps[CapDeleteInspiration] = true
		caps[CapAddPreview] = true
		caps[CapDeletePreview] = true
		caps[CapAddSTL] = true
		caps[CapDeleteSTL] = true
		caps[CapDeleteOrder] = true
		return caps
	}

	if role != models.RoleBaker || !isOwner {
		return caps
	}

	if bakerEditable(s) {
		caps[CapEditItems] = true
		caps[CapAddInspiration] = true
		caps[CapDeleteInspiration] = true
		caps[CapDeleteSTL] = true
		caps[CapDeleteOrder] = true
	}
	if s == models.StageCompleted {
		caps[CapEditCompletion] = true
	}
	return caps
}
