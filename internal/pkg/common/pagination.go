package common

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	ItemsPerPage int   `json:"items_per_page"`
	TotalItems   int64 `json:"total_items"`
	TotalPages   int64 `json:"total_pages"`
	HasNextPage  bool  `json:"has_next_page"`
	HasPrevPage  bool  `json:"has_prev_page"`
	Skip         int64 `json:"-"`
	Limit        int64 `json:"-"`
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ValidatePagination clamps page/limit to sane values.
func ValidatePagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// NewPagination builds pagination metadata for a validated page/limit and
// a total item count.
func NewPagination(page, limit int, total int64) Pagination {
	page, limit = ValidatePagination(page, limit)
	if total < 0 {
		total = 0
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return Pagination{
		CurrentPage:  page,
		ItemsPerPage: limit,
		TotalItems:   total,
		TotalPages:   totalPages,
		HasNextPage:  int64(page) < totalPages,
		HasPrevPage:  page > 1,
		Skip:         int64(page-1) * int64(limit),
		Limit:        int64(limit),
	}
}

// PaginatedData wraps listing items with their pagination metadata.
type PaginatedData struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// OKPaginated builds a success envelope around a paginated listing.
func OKPaginated(message string, items interface{}, p Pagination) APIResponse {
	return APIResponse{
		Message: message,
		Success: true,
		Data:    PaginatedData{Items: items, Pagination: p},
	}
}
