package response

import (
	"fmt"
	"net/url"
)

// Response is the common envelope for list and detail endpoints.
type Response struct {
	Count    int     `json:"count,omitempty"`
	Previous *string `json:"previous,omitempty"`
	Next     *string `json:"next,omitempty"`
	Results  any     `json:"results,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

// BuildPageLinks returns previous/next page URLs for the current request,
// or nil when the respective page does not exist.
func BuildPageLinks(u *url.URL, page, pageSize, total int) (*string, *string) {
	if pageSize <= 0 {
		return nil, nil
	}
	link := func(p int) *string {
		q := u.Query()
		q.Set("page", fmt.Sprintf("%d", p))
		q.Set("page_size", fmt.Sprintf("%d", pageSize))
		clone := *u
		clone.RawQuery = q.Encode()
		s := clone.String()
		return &s
	}
	var prev, next *string
	if page > 1 {
		prev = link(page - 1)
	}
	if page*pageSize < total {
		next = link(page + 1)
	}
	return prev, next
}
