package types

// PaginationResult is the page envelope returned by dashboard listings.
type PaginationResult[T any] struct {
	Items           []T
	TotalItems      int
	Page            int
	PageSize        int
	TotalPages      int
	HasNextPage     bool
	HasPreviousPage bool
}
