package models

// Error carries the structured error body returned by the remote service
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ProductResponse is the single-entity envelope used by the remote service
type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Error   *Error   `json:"error,omitempty"`
	Message *string  `json:"message,omitempty"`
}

// ProductListResponse is the list envelope with pagination metadata
type ProductListResponse struct {
	Success    bool        `json:"success"`
	Data       []*Product  `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *Error      `json:"error,omitempty"`
}

// VariantResponse is the single-variant envelope
type VariantResponse struct {
	Success bool     `json:"success"`
	Data    *Variant `json:"data"`
	Error   *Error   `json:"error,omitempty"`
	Message *string  `json:"message,omitempty"`
}

// VariantListResponse is the variant list envelope
type VariantListResponse struct {
	Success bool       `json:"success"`
	Data    []*Variant `json:"data"`
	Error   *Error     `json:"error,omitempty"`
}

// BulkUpdateResponse reports the outcome of a bulk update
type BulkUpdateResponse struct {
	Success      bool       `json:"success"`
	Data         []*Product `json:"data"`
	UpdatedCount int        `json:"updatedCount"`
	Error        *Error     `json:"error,omitempty"`
}

// BulkDeleteResponse reports the outcome of a bulk delete
type BulkDeleteResponse struct {
	Success      bool     `json:"success"`
	DeletedCount int      `json:"deletedCount"`
	FailedIDs    []string `json:"failedIds,omitempty"`
	Error        *Error   `json:"error,omitempty"`
}

// DeleteResponse reports the outcome of a single delete
type DeleteResponse struct {
	Success bool    `json:"success"`
	Error   *Error  `json:"error,omitempty"`
	Message *string `json:"message,omitempty"`
}
