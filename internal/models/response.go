package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type OrderListResponse struct {
	Orders []OrderSummary `json:"orders"`
}

type OrderSummary struct {
	ID          string           `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	Stage       Stage            `json:"stage"`
	BakerEmail  string           `json:"baker_email"`
	ItemCount   int              `json:"item_count"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func NewOrderSummary(o *Order) OrderSummary {
	return OrderSummary{
		ID:          o.ID.String(),
		OrderNumber: o.OrderNumber,
		Stage:       o.Stage,
		BakerEmail:  o.BakerEmail,
		ItemCount:   len(o.Items),
		Price:       o.Price,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

type CompletionResponse struct {
	Order                *Order `json:"order"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
}

type UploadResponse struct {
	Order  *Order            `json:"order"`
	Files  []FileInfo        `json:"files"`
	Errors []UploadErrorInfo `json:"errors,omitempty"`
}

type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Key      string `json:"key"`
	URL      string `json:"url"`
}

type UploadErrorInfo struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
	Stage    string `json:"stage"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
