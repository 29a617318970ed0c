// Package order implements the Order aggregate: every mutation validates
// against the actor's capabilities and the order invariants before any
// state changes, so a returned error always means zero mutation.
package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cookie-cutter-backend/internal/apperr"
	"cookie-cutter-backend/internal/models"
	"cookie-cutter-backend/internal/stage"
)

// NewDraft builds a fresh order owned by the acting baker, with the
// initial Draft history entry appended.
func NewDraft(actor models.Actor, orderNumber string, now time.Time) (*models.Order, error) {
	if actor.Role != models.RoleBaker || actor.BakerID == "" {
		return nil, apperr.E(apperr.KindUnauthorized, "only a baker may create an order")
	}
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: orderNumber,
		BakerID:     actor.BakerID,
		BakerEmail:  actor.Email,
		Stage:       models.StageDraft,
		StageHistory: []models.StageHistoryEntry{
			{Stage: models.StageDraft, ChangedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func caps(o *models.Order, actor models.Actor) stage.CapabilitySet {
	return stage.Capabilities(actor.Role, actor.Owns(o), o.Stage)
}

func validateItemPayload(t models.ItemType, m *models.Measurement) error {
	if !t.Valid() {
		return apperr.E(apperr.KindValidation, "unknown item type %q", string(t))
	}
	if t.IsFileBased() {
		// STL-based items carry no measurement; the uploaded model defines
		// the geometry.
		return nil
	}
	if m == nil {
		return apperr.E(apperr.KindValidation, "item type %q requires a measurement", string(t))
	}
	if m.Value <= 0 {
		return apperr.E(apperr.KindValidation, "measurement value must be greater than zero")
	}
	for _, u := range models.MeasurementUnits {
		if m.Unit == u {
			return nil
		}
	}
	return apperr.E(apperr.KindValidation, "unknown measurement unit %q", m.Unit)
}

func AddItem(o *models.Order, actor models.Actor, payload models.ItemPayload, now time.Time) error {
	if !caps(o, actor).Has(stage.CapEditItems) {
		return apperr.E(apperr.KindUnauthorized, "actor may not edit items on this order")
	}
	t := models.ItemType(payload.Type)
	if err := validateItemPayload(t, payload.Measurement); err != nil {
		return err
	}
	item := models.Item{
		ID:                 uuid.New(),
		Type:               t,
		AdditionalComments: payload.AdditionalComments,
		InspirationImages:  []models.FileRef{},
		PreviewImages:      []models.FileRef{},
		STLFiles:           []models.FileRef{},
	}
	if !t.IsFileBased() {
		m := *payload.Measurement
		item.Measurement = &m
	}
	o.Items = append(o.Items, item)
	o.UpdatedAt = now
	return nil
}

func UpdateItem(o *models.Order, actor models.Actor, itemID uuid.UUID, patch models.UpdateItemRequest, now time.Time) error {
	if !caps(o, actor).Has(stage.CapEditItems) {
		return apperr.E(apperr.KindUnauthorized, "actor may not edit items on this order")
	}
	item := o.Item(itemID)
	if item == nil {
		return apperr.E(apperr.KindNotFound, "item %s not found", itemID)
	}

	// Resolve the post-patch shape first so validation failures leave the
	// item untouched.
	newType := item.Type
	if patch.Type != nil {
		newType = models.ItemType(*patch.Type)
	}
	newMeasurement := item.Measurement
	if patch.Measurement != nil {
		m := *patch.Measurement
		newMeasurement = &m
	}
	if newType.IsFileBased() {
		newMeasurement = nil
	}
	if err := validateItemPayload(newType, newMeasurement); err != nil {
		return err
	}

	item.Type = newType
	item.Measurement = newMeasurement
	if patch.AdditionalComments != nil {
		item.AdditionalComments = *patch.AdditionalComments
	}
	o.UpdatedAt = now
	return nil
}

func DeleteItem(o *models.Order, actor models.Actor, itemID uuid.UUID, now time.Time) error {
	if !caps(o, actor).Has(stage.CapEditItems) {
		return apperr.E(apperr.KindUnauthorized, "actor may not edit items on this order")
	}
	idx := -1
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperr.E(apperr.KindNotFound, "item %s not found", itemID)
	}
	if len(o.Items) == 1 {
		return apperr.E(apperr.KindConflict, "an order must retain at least one item")
	}
	o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
	o.UpdatedAt = now
	return nil
}

func addCapability(kind models.ImageKind) stage.Capability {
	switch kind {
	case models.ImageKindInspiration:
		return stage.CapAddInspiration
	case models.ImageKindPreview:
		return stage.CapAddPreview
	default:
		return stage.CapAddSTL
	}
}

func deleteCapability(kind models.ImageKind) stage.Capability {
	switch kind {
	case models.ImageKindInspiration:
		return stage.CapDeleteInspiration
	case models.ImageKindPreview:
		return stage.CapDeletePreview
	default:
		return stage.CapDeleteSTL
	}
}

// AddFile attaches an uploaded file to the item. The append is in place on
// the stable item collection so two concurrent uploads both land.
func AddFile(o *models.Order, actor models.Actor, itemID uuid.UUID, kind models.ImageKind, ref models.FileRef, now time.Time) error {
	if !kind.Valid() {
		return apperr.E(apperr.KindValidation, "unknown file kind %q", string(kind))
	}
	if !caps(o, actor).Has(addCapability(kind)) {
		return apperr.E(apperr.KindUnauthorized, "actor may not add %s files to this order", string(kind))
	}
	item := o.Item(itemID)
	if item == nil {
		return apperr.E(apperr.KindNotFound, "item %s not found", itemID)
	}
	if kind == models.ImageKindSTL && !item.Type.IsFileBased() {
		return apperr.E(apperr.KindValidation, "item type %q does not accept STL files", string(item.Type))
	}
	files := item.Files(kind)
	*files = append(*files, ref)
	o.UpdatedAt = now
	return nil
}

func DeleteFile(o *models.Order, actor models.Actor, itemID uuid.UUID, kind models.ImageKind, key string, now time.Time) error {
	if !kind.Valid() {
		return apperr.E(apperr.KindValidation, "unknown file kind %q", string(kind))
	}
	if !caps(o, actor).Has(deleteCapability(kind)) {
		return apperr.E(apperr.KindUnauthorized, "actor may not delete %s files from this order", string(kind))
	}
	item := o.Item(itemID)
	if item == nil {
		return apperr.E(apperr.KindNotFound, "item %s not found", itemID)
	}
	files := item.Files(kind)
	for i, f := range *files {
		if f.Key == key {
			*files = append((*files)[:i], (*files)[i+1:]...)
			o.UpdatedAt = now
			return nil
		}
	}
	return apperr.E(apperr.KindNotFound, "file key %q not found on item", key)
}

// ChangeStage validates and applies a stage transition. The stage mutation
// and the history append happen together or not at all.
func ChangeStage(o *models.Order, actor models.Actor, target models.Stage, comments string, price *decimal.Decimal, now time.Time) error {
	if actor.Role == models.RoleBaker && !actor.Owns(o) {
		return apperr.E(apperr.KindUnauthorized, "baker does not own this order")
	}
	if !stage.Valid(target) {
		return apperr.E(apperr.KindValidation, "unknown stage %q", string(target))
	}
	if !stage.CanTransition(o.Stage, target, actor.Role) {
		return apperr.E(apperr.KindForbiddenTransition,
			"cannot move from %q to %q as %s", string(o.Stage), string(target), string(actor.Role))
	}

	switch target {
	case models.StageSubmitted:
		if len(o.Items) == 0 {
			return apperr.E(apperr.KindPreconditionFailed, "order has no items")
		}
		missing := 0
		for i := range o.Items {
			if len(o.Items[i].InspirationImages) == 0 {
				missing++
			}
		}
		if missing > 0 {
			return apperr.E(apperr.KindPreconditionFailed,
				"%d item(s) have no inspiration image", missing).
				WithDetail("items_missing_images", missing)
		}
	case models.StageRequiresApproval:
		if price == nil {
			return apperr.E(apperr.KindValidation, "a price is required to enter Requires Approval")
		}
		if price.IsNegative() {
			return apperr.E(apperr.KindValidation, "price must not be negative")
		}
	}

	if target == models.StageRequiresApproval {
		p := *price
		o.Price = &p
	}
	o.Stage = target
	o.StageHistory = append(o.StageHistory, models.StageHistoryEntry{
		Stage:     target,
		ChangedAt: now,
		Comments:  comments,
		Price:     o.Price,
	})
	o.UpdatedAt = now
	return nil
}

// AuthorizeDelete checks the delete-order rule: admin at any stage, the
// owning baker only while the order is still theirs to edit.
func AuthorizeDelete(o *models.Order, actor models.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.Owns(o) {
		return apperr.E(apperr.KindUnauthorized, "baker does not own this order")
	}
	if !caps(o, actor).Has(stage.CapDeleteOrder) {
		return apperr.E(apperr.KindUnauthorized,
			"order in stage %q can no longer be deleted by its baker", string(o.Stage))
	}
	return nil
}
