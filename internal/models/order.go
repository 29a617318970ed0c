package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage is a named position in an order's fixed lifecycle.
type Stage string

const (
	StageDraft            Stage = "Draft"
	StageSubmitted        Stage = "Submitted"
	StageRequiresApproval Stage = "Requires Approval"
	StageReadyToPrint     Stage = "Ready to Print"
	StagePrinting         Stage = "Printing"
	StageCompleted        Stage = "Completed"
	StageRequestedChanges Stage = "Requested Changes"
)

type ItemType string

const (
	ItemTypeCircle      ItemType = "Circle"
	ItemTypeSquare      ItemType = "Square"
	ItemTypeCustomShape ItemType = "Custom Shape"
	ItemTypeSTLUpload   ItemType = "STL Upload"
)

// IsFileBased reports whether the type is specified by an uploaded model
// file instead of a measurement.
func (t ItemType) IsFileBased() bool {
	return t == ItemTypeSTLUpload
}

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeCircle, ItemTypeSquare, ItemTypeCustomShape, ItemTypeSTLUpload:
		return true
	}
	return false
}

type ImageKind string

const (
	ImageKindInspiration ImageKind = "inspiration"
	ImageKindPreview     ImageKind = "preview"
	ImageKindSTL         ImageKind = "stl"
)

func (k ImageKind) Valid() bool {
	switch k {
	case ImageKindInspiration, ImageKindPreview, ImageKindSTL:
		return true
	}
	return false
}

type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

var MeasurementUnits = []string{"mm", "cm", "inch"}

// FileRef points at a stored image or STL file. Key is unique within the
// blob store; URL is the public location clients render.
type FileRef struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploaded_at"`
	OriginalName string    `json:"original_name,omitempty"`
}

type Item struct {
	ID                 uuid.UUID    `json:"id"`
	Type               ItemType     `json:"type"`
	Measurement        *Measurement `json:"measurement,omitempty"`
	AdditionalComments string       `json:"additional_comments,omitempty"`
	InspirationImages  []FileRef    `json:"inspiration_images"`
	PreviewImages      []FileRef    `json:"preview_images"`
	STLFiles           []FileRef    `json:"stl_files"`
}

// Files returns the file list for kind, addressable for in-place
// append/remove so concurrent uploads never overwrite each other via a
// stale full-list write.
func (i *Item) Files(kind ImageKind) *[]FileRef {
	switch kind {
	case ImageKindInspiration:
		return &i.InspirationImages
	case ImageKindPreview:
		return &i.PreviewImages
	case ImageKindSTL:
		return &i.STLFiles
	}
	return nil
}

// StageHistoryEntry is immutable once appended.
type StageHistoryEntry struct {
	Stage     Stage            `json:"stage"`
	ChangedAt time.Time        `json:"changed_at"`
	Comments  string           `json:"comments,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "Pickup"
	DeliveryMethodDelivery DeliveryMethod = "Delivery"
)

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "Cash"
	PaymentMethodCard PaymentMethod = "Card"
)

type PickupSchedule struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Notes string `json:"notes,omitempty"`
}

type DeliveryAddress struct {
	Street       string `json:"street"`
	Suburb       string `json:"suburb"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
	Instructions string `json:"instructions,omitempty"`
}

type UpdateRequestStatus string

const (
	UpdateRequestPending  UpdateRequestStatus = "pending"
	UpdateRequestApproved UpdateRequestStatus = "approved"
	UpdateRequestRejected UpdateRequestStatus = "rejected"
)

// UpdateRequest is the audited escape hatch for reopening confirmed
// completion details. A nil pointer on the order means no request exists.
type UpdateRequest struct {
	Status        UpdateRequestStatus `json:"status"`
	RequestedBy   string              `json:"requested_by"`
	RequestedAt   time.Time           `json:"requested_at"`
	Reason        string              `json:"reason"`
	AdminResponse string              `json:"admin_response,omitempty"`
	ResolvedAt    *time.Time          `json:"resolved_at,omitempty"`
}

// Order is the aggregate root. All mutation goes through the engine so
// invariants hold on every persisted state.
type Order struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	BakerID     string    `json:"baker_id"`
	BakerEmail  string    `json:"baker_email"`

	Stage        Stage               `json:"stage"`
	StageHistory []StageHistoryEntry `json:"stage_history"`
	Items        []Item              `json:"items"`
	Price        *decimal.Decimal    `json:"price,omitempty"`

	DeliveryMethod     DeliveryMethod   `json:"delivery_method,omitempty"`
	PaymentMethod      PaymentMethod    `json:"payment_method,omitempty"`
	PickupSchedule     *PickupSchedule  `json:"pickup_schedule,omitempty"`
	DeliveryAddress    *DeliveryAddress `json:"delivery_address,omitempty"`
	DetailsConfirmed   bool             `json:"details_confirmed"`
	DetailsConfirmedAt *time.Time       `json:"details_confirmed_at,omitempty"`
	UpdateRequest      *UpdateRequest   `json:"update_request,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the optimistic-concurrency token maintained by the store.
	Version int64 `json:"-"`
}

// Item returns the item with the given id, or nil.
func (o *Order) Item(id uuid.UUID) *Item {
	for idx := range o.Items {
		if o.Items[idx].ID == id {
			return &o.Items[idx]
		}
	}
	return nil
}

// Clone returns a deep copy, used for event snapshots so subscribers never
// observe later mutations.
func (o *Order) Clone() *Order {
	c := *o
	c.StageHistory = append([]StageHistoryEntry(nil), o.StageHistory...)
	c.Items = make([]Item, len(o.Items))
	for i, it := range o.Items {
		ci := it
		if it.Measurement != nil {
			m := *it.Measurement
			ci.Measurement = &m
		}
		ci.InspirationImages = append([]FileRef(nil), it.InspirationImages...)
		ci.PreviewImages = append([]FileRef(nil), it.PreviewImages...)
		ci.STLFiles = append([]FileRef(nil), it.STLFiles...)
		c.Items[i] = ci
	}
	if o.Price != nil {
		p := *o.Price
		c.Price = &p
	}
	if o.PickupSchedule != nil {
		s := *o.PickupSchedule
		c.PickupSchedule = &s
	}
	if o.DeliveryAddress != nil {
		a := *o.DeliveryAddress
		c.DeliveryAddress = &a
	}
	if o.DetailsConfirmedAt != nil {
		t := *o.DetailsConfirmedAt
		c.DetailsConfirmedAt = &t
	}
	if o.UpdateRequest != nil {
		r := *o.UpdateRequest
		if r.ResolvedAt != nil {
			rt := *r.ResolvedAt
			r.ResolvedAt = &rt
		}
		c.UpdateRequest = &r
	}
	return &c
}
