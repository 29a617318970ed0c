package order

import (
	"time"

	"cookie-cutter-backend/internal/apperr"
	"cookie-cutter-backend/internal/models"
)

// The completion sub-workflow runs entirely inside the Completed stage:
// Unset -> Set -> Confirmed -> UpdateRequested -> (Approved | Rejected).
// Once confirmed, details are locked; an approved update request reopens
// SetCompletion for exactly one call.

func completionGate(o *models.Order, actor models.Actor) error {
	if !actor.Owns(o) {
		return apperr.E(apperr.KindUnauthorized, "only the owning baker may manage completion details")
	}
	if o.Stage != models.StageCompleted {
		return apperr.E(apperr.KindPreconditionFailed,
			"completion details apply only once the order is Completed, not %q", string(o.Stage))
	}
	return nil
}

// SetCompletion captures delivery/pickup and payment choices. It reports
// whether the caller must confirm the details afterwards.
func SetCompletion(o *models.Order, actor models.Actor, req models.SetCompletionRequest, now time.Time) (bool, error) {
	if err := completionGate(o, actor); err != nil {
		return false, err
	}

	approved := o.UpdateRequest != nil && o.UpdateRequest.Status == models.UpdateRequestApproved
	if o.DetailsConfirmed && !approved {
		return false, apperr.E(apperr.KindLocked,
			"completion details are confirmed; request an update to change them")
	}

	delivery := models.DeliveryMethod(req.DeliveryMethod)
	payment := models.PaymentMethod(req.PaymentMethod)
	if delivery != models.DeliveryMethodPickup && delivery != models.DeliveryMethodDelivery {
		return false, apperr.E(apperr.KindValidation, "delivery_method must be Pickup or Delivery")
	}
	if payment != models.PaymentMethodCash && payment != models.PaymentMethodCard {
		return false, apperr.E(apperr.KindValidation, "payment_method must be Cash or Card")
	}

	var schedule *models.PickupSchedule
	var address *models.DeliveryAddress
	switch delivery {
	case models.DeliveryMethodPickup:
		if req.PickupSchedule == nil {
			return false, apperr.E(apperr.KindValidation, "pickup requires a schedule with date and time")
		}
		missing := []string{}
		if req.PickupSchedule.Date == "" {
			missing = append(missing, "date")
		}
		if req.PickupSchedule.Time == "" {
			missing = append(missing, "time")
		}
		if len(missing) > 0 {
			return false, apperr.E(apperr.KindValidation, "pickup schedule is missing required fields").
				WithDetail("missing_fields", missing)
		}
		s := *req.PickupSchedule
		schedule = &s
	case models.DeliveryMethodDelivery:
		if req.DeliveryAddress == nil {
			return false, apperr.E(apperr.KindValidation, "delivery requires a full address")
		}
		if err := validateAddress(req.DeliveryAddress); err != nil {
			return false, err
		}
		a := *req.DeliveryAddress
		address = &a
	}

	firstTime := o.DeliveryMethod == "" || o.PaymentMethod == ""

	o.DeliveryMethod = delivery
	o.PaymentMethod = payment
	o.PickupSchedule = schedule
	o.DeliveryAddress = address
	if approved {
		// The approved request is consumed: back to Set, to be confirmed
		// again.
		o.UpdateRequest = nil
		o.DetailsConfirmed = false
		o.DetailsConfirmedAt = nil
	}
	o.UpdatedAt = now
	return firstTime || approved, nil
}

func ConfirmCompletion(o *models.Order, actor models.Actor, now time.Time) error {
	if err := completionGate(o, actor); err != nil {
		return err
	}
	if o.DeliveryMethod == "" || o.PaymentMethod == "" {
		return apperr.E(apperr.KindPreconditionFailed, "completion details have not been set")
	}
	if o.DetailsConfirmed {
		return apperr.E(apperr.KindPreconditionFailed, "completion details are already confirmed")
	}
	t := now
	o.DetailsConfirmed = true
	o.DetailsConfirmedAt = &t
	o.UpdatedAt = now
	return nil
}

// RequestUpdate opens the audited escape hatch. A previously rejected
// request does not block a new one; the record is replaced.
func RequestUpdate(o *models.Order, actor models.Actor, reason string, now time.Time) error {
	if err := completionGate(o, actor); err != nil {
		return err
	}
	if !o.DetailsConfirmed {
		return apperr.E(apperr.KindPreconditionFailed, "completion details are not confirmed; edit them directly")
	}
	if o.UpdateRequest != nil && o.UpdateRequest.Status == models.UpdateRequestPending {
		return apperr.E(apperr.KindPreconditionFailed, "an update request is already pending")
	}
	if o.UpdateRequest != nil && o.UpdateRequest.Status == models.UpdateRequestApproved {
		return apperr.E(apperr.KindPreconditionFailed, "an approved update request is already open")
	}
	if reason == "" {
		return apperr.E(apperr.KindValidation, "a reason is required to request an update")
	}
	o.UpdateRequest = &models.UpdateRequest{
		Status:      models.UpdateRequestPending,
		RequestedBy: actor.Email,
		RequestedAt: now,
		Reason:      reason,
	}
	o.UpdatedAt = now
	return nil
}

const (
	ResolveApprove = "approve"
	ResolveReject  = "reject"
)

func ResolveUpdateRequest(o *models.Order, actor models.Actor, action, adminResponse string, now time.Time) error {
	if !actor.IsAdmin() {
		return apperr.E(apperr.KindUnauthorized, "only an admin may resolve update requests")
	}
	if o.UpdateRequest == nil || o.UpdateRequest.Status != models.UpdateRequestPending {
		return apperr.E(apperr.KindPreconditionFailed, "no pending update request on this order")
	}
	switch action {
	case ResolveApprove:
		o.UpdateRequest.Status = models.UpdateRequestApproved
	case ResolveReject:
		if adminResponse == "" {
			return apperr.E(apperr.KindValidation, "rejecting an update request requires a response")
		}
		o.UpdateRequest.Status = models.UpdateRequestRejected
	default:
		return apperr.E(apperr.KindValidation, "action must be approve or reject")
	}
	o.UpdateRequest.AdminResponse = adminResponse
	t := now
	o.UpdateRequest.ResolvedAt = &t
	o.UpdatedAt = now
	return nil
}
