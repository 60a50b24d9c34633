package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// timeLayouts accepted for date range filters.
var timeLayouts = []string{time.RFC3339, "2006-01-02"}

// queryParams parses optional list filters, keeping the first parse error so
// a typo surfaces as a 400 instead of an unfiltered list.
type queryParams struct {
	c   echo.Context
	err error
}

func newQueryParams(c echo.Context) *queryParams {
	return &queryParams{c: c}
}

func (q *queryParams) fail(name, value string) {
	if q.err == nil {
		q.err = echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("invalid value %q for %s", value, name))
	}
}

// Err returns the first parse error, if any.
func (q *queryParams) Err() error {
	return q.err
}

func (q *queryParams) Bool(name string) *bool {
	v := q.c.QueryParam(name)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		q.fail(name, v)
		return nil
	}
	return &parsed
}

func (q *queryParams) Uint(name string) *uint {
	v := q.c.QueryParam(name)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		q.fail(name, v)
		return nil
	}
	u := uint(parsed)
	return &u
}

func (q *queryParams) Time(name string) *time.Time {
	v := q.c.QueryParam(name)
	if v == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, v); err == nil {
			return &parsed
		}
	}
	q.fail(name, v)
	return nil
}
