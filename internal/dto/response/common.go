package response

// Meta carries pagination details alongside list payloads.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type ListResponse struct {
	Items any  `json:"items"`
	Meta  Meta `json:"meta"`
}
