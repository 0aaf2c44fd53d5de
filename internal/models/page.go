package models

// Page holds one page of a listing along with pagination metadata.
// Page numbers are zero-based.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPage assembles a Page from a slice of results and the total row count.
func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	pages := int(total) / size
	if int(total)%size != 0 {
		pages++
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
