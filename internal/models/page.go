package models

// Envelope is the wrapper around every backend response.
type Envelope[T any] struct {
	StatusCode int    `json:"statusCode"`
	Data       T      `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// Page is a paginated collection as produced by the backend's paginate plugin.
type Page[T any] struct {
	Docs        []T  `json:"docs"`
	TotalDocs   int  `json:"totalDocs"`
	Limit       int  `json:"limit"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
	NextPage    *int `json:"nextPage"`
	PrevPage    *int `json:"prevPage"`
}

// Next returns the following page number and whether there is one.
func (p Page[T]) Next() (int, bool) {
	if !p.HasNextPage {
		return 0, false
	}
	if p.NextPage != nil {
		return *p.NextPage, true
	}
	return p.Page + 1, true
}

// Pagination is the cursor block of a search response.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalResults int  `json:"totalResults"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// SearchResult is the payload of video/search.
type SearchResult struct {
	Videos     []Video    `json:"videos"`
	Pagination Pagination `json:"pagination"`
}

// PageQuery selects a page of a collection. Zero values fall back to page 1 and the
// endpoint's default limit.
type PageQuery struct {
	Page  int
	Limit int
}
