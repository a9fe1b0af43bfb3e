package api

import (
	"encoding/json"
	"fmt"
	"net/url"
)

type meta struct {
	TotalRecords uint64  `json:"totalRecords"`
	Offset       *uint64 `json:"offset,omitempty"`
	Limit        *uint64 `json:"limit,omitempty"`
	Count        uint64  `json:"count"`
}

type links struct {
	Self  *string `json:"self,omitempty"`
	First *string `json:"first,omitempty"`
	Prev  *string `json:"prev,omitempty"`
	Next  *string `json:"next,omitempty"`
	Last  *string `json:"last,omitempty"`
}

type ApiResponse struct {
	Meta  *meta  `json:"meta,omitempty"`
	Data  any    `json:"data"`
	Links *links `json:"links,omitempty"`
}

func (r ApiResponse) Byte() []byte {
	b, _ := json.Marshal(r)
	return b
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type plantRequest struct {
	Name     string  `json:"name"`
	PHMin    float64 `json:"ph_min"`
	PHMax    float64 `json:"ph_max"`
	ECMin    float64 `json:"ec_min"`
	ECMax    float64 `json:"ec_max"`
	ImageURL string  `json:"image_url"`
}

type userRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type relayUpdateRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// newPageLinks builds navigation links for a page numbered from 1.
func newPageLinks(u *url.URL, page, pageSize int, total uint64) *links {
	last := int((total + uint64(pageSize) - 1) / uint64(pageSize))
	if last < 1 {
		last = 1
	}

	link := func(p int) *string {
		q := u.Query()
		q.Set("page", fmt.Sprintf("%d", p))
		q.Set("pageSize", fmt.Sprintf("%d", pageSize))
		s := u.Path + "?" + q.Encode()
		return &s
	}

	l := &links{
		Self:  link(page),
		First: link(1),
		Last:  link(last),
	}

	if page > 1 {
		l.Prev = link(page - 1)
	}
	if page < last {
		l.Next = link(page + 1)
	}

	return l
}
