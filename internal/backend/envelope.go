package backend

import (
	"encoding/json"
	"strings"
)

// Envelope is the response body every backend endpoint returns
type Envelope[T any] struct {
	Status     int         `json:"status"`
	Message    string      `json:"message"`
	Data       T           `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes one page of a list response. The backend names the
// item total after the resource ("total_articles", "total_careers"), so any
// total_* key other than total_pages lands in TotalItems.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	HasNext     bool `json:"has_next"`
	TotalItems  int  `json:"total_items,omitempty"`
	TotalPages  int  `json:"total_pages,omitempty"`
}

func (p *Pagination) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Pagination{}
	for k, v := range raw {
		var err error
		switch {
		case k == "current_page":
			err = json.Unmarshal(v, &p.CurrentPage)
		case k == "has_next":
			err = json.Unmarshal(v, &p.HasNext)
		case k == "total_pages":
			err = json.Unmarshal(v, &p.TotalPages)
		case strings.HasPrefix(k, "total_"):
			err = json.Unmarshal(v, &p.TotalItems)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// NextPage returns the page to request after p. A missing pagination block
// or a false has_next means there is nothing more to fetch.
func NextPage(p *Pagination) (int, bool) {
	if p == nil || !p.HasNext {
		return 0, false
	}
	current := p.CurrentPage
	if current < 1 {
		current = 1
	}
	return current + 1, true
}

// StatusError is a non-success answer from the backend
type StatusError struct {
	Op         string
	HTTPStatus int
	Status     int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Op + " failed"
}
