package app

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/ravenent/show-booking-system/internal/jsonutil"
	appmiddleware "github.com/ravenent/show-booking-system/internal/middleware"
	appvalidator "github.com/ravenent/show-booking-system/internal/validator"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	dateLayout      = "2006-01-02"

	// keeps (page-1)*pageSize well inside a Postgres OFFSET
	maxPage = 1_000_000
)

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	return jsonutil.WriteJSON(w, status, data, headers)
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return jsonutil.ReadJSON(w, r, dst)
}

// withID parses the named path parameter as a positive integer before calling h.
func (app *Application) withID(param string, h func(http.ResponseWriter, *http.Request, int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, param))
		if err != nil || id < 1 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid %s", param))
			return
		}

		h(w, r, id)
	}
}

// readPagination reads page and pageSize from the query string, collecting
// problems as validation issues.
func readPagination(qs url.Values) (domain.Pagination, []api.ValidationError) {
	var issues []api.ValidationError

	pagination := domain.Pagination{Page: 1, PageSize: defaultPageSize}

	if v := qs.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		switch {
		case err != nil || page < 1:
			issues = append(issues, api.ValidationError{Field: "page", Issue: appvalidator.ErrInvalidPageNumber})
		case page > maxPage:
			issues = append(issues, api.ValidationError{Field: "page", Issue: fmt.Sprintf(appvalidator.ErrMaxValue, strconv.Itoa(maxPage))})
		default:
			pagination.Page = page
		}
	}

	if v := qs.Get("pageSize"); v != "" {
		size, err := strconv.Atoi(v)
		switch {
		case err != nil || size < 1:
			issues = append(issues, api.ValidationError{Field: "pageSize", Issue: appvalidator.ErrInvalidPageNumber})
		case size > maxPageSize:
			issues = append(issues, api.ValidationError{Field: "pageSize", Issue: fmt.Sprintf(appvalidator.ErrMaxValue, strconv.Itoa(maxPageSize))})
		default:
			pagination.PageSize = size
		}
	}

	return pagination, issues
}

// readDate parses an optional YYYY-MM-DD query parameter.
func readDate(qs url.Values, key string) (*time.Time, *api.ValidationError) {
	v := qs.Get(key)
	if v == "" {
		return nil, nil
	}

	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, &api.ValidationError{Field: key, Issue: "must be a date in YYYY-MM-DD format"}
	}

	return &t, nil
}

// clientIP returns the caller address. RealIP has already resolved forwarded
// headers sent by a trusted proxy.
func clientIP(r *http.Request) string {
	return appmiddleware.ClientIP(r)
}

func toMetadata(m *domain.Metadata) api.Metadata {
	if m == nil {
		return api.Metadata{}
	}

	return api.Metadata{
		CurrentPage:  m.CurrentPage,
		FirstPage:    m.FirstPage,
		LastPage:     m.LastPage,
		PageSize:     m.PageSize,
		TotalRecords: m.TotalRecords,
	}
}

// mediaURL maps a store path to the URL it is served under.
func mediaURL(path *string) *string {
	if path == nil {
		return nil
	}

	u := "/media/" + *path
	return &u
}
