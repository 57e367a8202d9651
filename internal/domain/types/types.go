// Package types contains read-side shapes shared by stores and handlers.
package types

// Entry is one row of the leaderboard.
type Entry struct {
	Rank          int     `json:"rank"`
	CapperID      string  `json:"capperId"`
	Username      string  `json:"username"`
	FollowerCount int     `json:"followerCount"`
	TotalPicks    int     `json:"totalPicks"`
	CorrectPicks  int     `json:"correctPicks"`
	WinRate       float64 `json:"winRate"`
	CloutScore    float64 `json:"cloutScore"`
}

// Page selects a 1-based page of Limit items.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of items before the page.
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Pagination describes a page of a larger result.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination builds the pagination block for p over total items.
func NewPagination(p Page, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// Window clamps [offset, offset+limit) to n items.
func (p Page) Window(n int) (start, end int) {
	start = p.Offset()
	if start > n {
		start = n
	}
	end = start + p.Limit
	if end > n || p.Limit <= 0 {
		end = n
	}
	return start, end
}
