package gateway

// Envelope is the API's response wrapper.
type Envelope[T any] struct {
	Content T        `json:"content"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// PagedEnvelope wraps list responses, which carry paging totals next to content.
type PagedEnvelope[T any] struct {
	Content    Entries[T] `json:"content"`
	TotalPages int        `json:"totalPages"`
	TotalItems int        `json:"totalItems"`
	Message    string     `json:"message,omitempty"`
}

type Entries[T any] struct {
	Entries []T `json:"entries"`
}
