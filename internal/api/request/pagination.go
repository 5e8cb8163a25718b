package request

import (
	"net/http"
	"strconv"
)

// Pageable holds parsed page parameters.
type Pageable struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePageable extracts pageNumber and pageSize from query parameters.
func ParsePageable(r *http.Request) Pageable {
	p := Pageable{Size: DefaultPageSize}

	if s := r.URL.Query().Get("pageNumber"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			p.Number = n
		}
	}
	if s := r.URL.Query().Get("pageSize"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Size = n
		}
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}

	return p
}
