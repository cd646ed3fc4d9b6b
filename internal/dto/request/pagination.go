package request

import (
	"net/url"

	"atlas-booking/pkg/utils"
)

const (
	defaultPerPage = 10
	maxPerPage     = 50
)

type PaginatedRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// PageFromQuery reads ?page=&per_page=, falling back to the first page of ten.
func PageFromQuery(q url.Values) PaginatedRequest {
	return PaginatedRequest{
		Page:    utils.ParseInt(q.Get("page"), 1),
		PerPage: utils.ParseInt(q.Get("per_page"), defaultPerPage),
	}
}

func (p PaginatedRequest) Limit() int {
	switch {
	case p.PerPage < 1:
		return defaultPerPage
	case p.PerPage > maxPerPage:
		return maxPerPage
	}
	return p.PerPage
}

func (p PaginatedRequest) Offset() int {
	if p.Page < 2 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
