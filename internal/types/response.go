package types

// Response is the envelope every JSON endpoint answers with. Status mirrors
// the HTTP status code.
type Response struct {
	Status     int         `json:"status"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Tokens     *Tokens     `json:"tokens,omitempty"`
}

type Pagination struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPage   int   `json:"totalPage"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
}

type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// NewPagination derives the page count from the total and page size.
func NewPagination(total int64, page, pageSize int) *Pagination {
	totalPage := 0
	if pageSize > 0 {
		totalPage = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &Pagination{
		TotalItems:  total,
		TotalPage:   totalPage,
		CurrentPage: page,
		PageSize:    pageSize,
	}
}
