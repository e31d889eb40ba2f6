package web

import "net/url"

// Pager feeds the "pager" partial. BasePath already ends in "?" or "&" so
// the template only appends page=N.
type Pager struct {
	Page       int
	TotalPages int
	TotalItems int
	Window     []int
	BasePath   string
}

// NewPager builds a pager whose links keep query and only vary the page.
func NewPager(path string, query url.Values, page, totalPages, totalItems int, window []int) Pager {
	q := url.Values{}
	for k, v := range query {
		if k != "page" {
			q[k] = v
		}
	}
	base := path + "?"
	if enc := q.Encode(); enc != "" {
		base += enc + "&"
	}
	return Pager{
		Page:       page,
		TotalPages: totalPages,
		TotalItems: totalItems,
		Window:     window,
		BasePath:   base,
	}
}
