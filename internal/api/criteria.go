// criteria.go - Filter criteria and paging parsed from requests
package api

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/research-explorer/backend/internal/models"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// queryRequest is the JSON body of a dataset query.
type queryRequest struct {
	Selections map[string][]string `json:"selections"`
	FundsMin   *int64              `json:"fundsMin"`
	FundsMax   *int64              `json:"fundsMax"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
}

// criteria overlays the request on base, which selects the whole dataset.
func (r *queryRequest) criteria(base models.Criteria) (models.Criteria, error) {
	c := models.Criteria{Selections: make(map[models.Dimension][]string)}
	for name, values := range r.Selections {
		d := models.Dimension(name)
		if !d.IsValid() {
			return c, NewValidationError("selections." + name)
		}
		if len(values) > 0 {
			c.Selections[d] = values
		}
	}
	funds, err := overlayFunds(base.Funds, r.FundsMin, r.FundsMax)
	if err != nil {
		return c, err
	}
	c.Funds = funds
	return c, nil
}

// criteriaFromQuery reads repeated dimension parameters and fundsMin/fundsMax.
func criteriaFromQuery(c echo.Context, base models.Criteria) (models.Criteria, error) {
	crit := models.Criteria{Selections: make(map[models.Dimension][]string)}
	params := c.QueryParams()
	for _, d := range models.Dimensions {
		if values := params[string(d)]; len(values) > 0 {
			crit.Selections[d] = values
		}
	}

	lo, err := optionalInt64(c.QueryParam("fundsMin"), "fundsMin")
	if err != nil {
		return crit, err
	}
	hi, err := optionalInt64(c.QueryParam("fundsMax"), "fundsMax")
	if err != nil {
		return crit, err
	}
	funds, err := overlayFunds(base.Funds, lo, hi)
	if err != nil {
		return crit, err
	}
	crit.Funds = funds
	return crit, nil
}

func optionalInt64(s, field string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, NewBadRequestError("invalid "+field, err)
	}
	return &v, nil
}

// overlayFunds replaces the bounds of base that the request sets.
func overlayFunds(base *models.FundsRange, lo, hi *int64) (*models.FundsRange, error) {
	if lo == nil && hi == nil {
		return base, nil
	}
	r := models.FundsRange{}
	if base != nil {
		r = *base
	}
	if lo != nil {
		r.Min = *lo
	}
	if hi != nil {
		r.Max = *hi
	}
	if r.Min > r.Max {
		return nil, NewBadRequestError("fundsMin must not exceed fundsMax", nil)
	}
	return &r, nil
}

// pageParams reads page and pageSize, applying defaults and the size cap.
func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	return normalizePage(page, pageSize)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
