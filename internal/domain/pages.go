package domain

// PagesResult is a page of items plus the counters a client needs to
// render pagination controls.
type PagesResult[T any] struct {
	Items       []T
	TotalCount  int64
	PageNumber  int
	PageSize    int
	TotalPages  int
	HasForward  bool
	HasPrevious bool
}

func NewPagesResult[T any](items []T, pageNumber, pageSize int, totalCount int64) PagesResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	}
	return PagesResult[T]{
		Items:       items,
		TotalCount:  totalCount,
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasForward:  pageNumber < totalPages,
		HasPrevious: pageNumber > 1,
	}
}
