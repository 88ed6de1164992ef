package api

import (
	"net/url"
	"strconv"
)

// Query builds URL query parameters, skipping zero values.
type Query struct {
	values url.Values
}

// NewQuery returns an empty Query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// String adds key when v is not empty.
func (q *Query) String(key, v string) *Query {
	if v != "" {
		q.values.Set(key, v)
	}
	return q
}

// Int adds key when v is not zero.
func (q *Query) Int(key string, v int) *Query {
	if v != 0 {
		q.values.Set(key, strconv.Itoa(v))
	}
	return q
}

// Int64 adds key when v is not zero.
func (q *Query) Int64(key string, v int64) *Query {
	if v != 0 {
		q.values.Set(key, strconv.FormatInt(v, 10))
	}
	return q
}

// Bool adds key when v is set.
func (q *Query) Bool(key string, v *bool) *Query {
	if v != nil {
		q.values.Set(key, strconv.FormatBool(*v))
	}
	return q
}

// Int64s adds one key per element.
func (q *Query) Int64s(key string, vs []int64) *Query {
	for _, v := range vs {
		q.values.Add(key, strconv.FormatInt(v, 10))
	}
	return q
}

// Values returns the accumulated parameters.
func (q *Query) Values() url.Values {
	return q.values
}

// PageParams are common to every paginated listing. Page is zero based.
type PageParams struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

func (p PageParams) apply(q *Query) *Query {
	q.values.Set("page", strconv.Itoa(max(p.Page, 0)))
	return q.Int("size", p.Size).String("sortBy", p.SortBy).String("sortDir", p.SortDir)
}
