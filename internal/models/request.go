package models

import "github.com/shopspring/decimal"

type ItemPayload struct {
	Type               string       `json:"type"`
	Measurement        *Measurement `json:"measurement,omitempty"`
	AdditionalComments string       `json:"additional_comments,omitempty"`
}

type CreateOrderRequest struct {
	// Optional initial items; more can be added while the order is in Draft.
	Items []ItemPayload `json:"items,omitempty"`
}

type UpdateItemRequest struct {
	Type               *string      `json:"type,omitempty"`
	Measurement        *Measurement `json:"measurement,omitempty"`
	AdditionalComments *string      `json:"additional_comments,omitempty"`
}

type StageChangeRequest struct {
	TargetStage string `json:"target_stage"`
	Comments    string `json:"comments,omitempty"`
	// Price accompanies the move into Requires Approval. Accepts a JSON
	// number or string.
	Price *decimal.Decimal `json:"price,omitempty"`
}

type SetCompletionRequest struct {
	DeliveryMethod  string           `json:"delivery_method"`
	PaymentMethod   string           `json:"payment_method"`
	PickupSchedule  *PickupSchedule  `json:"pickup_schedule,omitempty"`
	DeliveryAddress *DeliveryAddress `json:"delivery_address,omitempty"`
}

type CompletionUpdateRequest struct {
	Reason string `json:"reason"`
}

type ResolveUpdateRequestRequest struct {
	Action        string `json:"action"` // approve | reject
	AdminResponse string `json:"admin_response,omitempty"`
}
