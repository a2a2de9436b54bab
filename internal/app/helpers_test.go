package app

import (
	"net/url"
	"testing"

	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestReadPagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		want       domain.Pagination
		wantIssues []api.ValidationError
	}{
		{
			name:  "defaults",
			query: "",
			want:  domain.Pagination{Page: 1, PageSize: defaultPageSize},
		},
		{
			name:  "explicit values",
			query: "page=3&pageSize=50",
			want:  domain.Pagination{Page: 3, PageSize: 50},
		},
		{
			name:  "last allowed page",
			query: "page=1000000&pageSize=100",
			want:  domain.Pagination{Page: maxPage, PageSize: 100},
		},
		{
			name:       "page beyond the cap",
			query:      "page=9223372036854775807&pageSize=100",
			want:       domain.Pagination{Page: 1, PageSize: 100},
			wantIssues: []api.ValidationError{{Field: "page", Issue: "must be at most 1000000"}},
		},
		{
			name:       "page that does not fit an int",
			query:      "page=99999999999999999999",
			want:       domain.Pagination{Page: 1, PageSize: defaultPageSize},
			wantIssues: []api.ValidationError{{Field: "page", Issue: "must be a positive number"}},
		},
		{
			name:  "zero page and oversized page size",
			query: "page=0&pageSize=500",
			want:  domain.Pagination{Page: 1, PageSize: defaultPageSize},
			wantIssues: []api.ValidationError{
				{Field: "page", Issue: "must be a positive number"},
				{Field: "pageSize", Issue: "must be at most 100"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			got, issues := readPagination(qs)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantIssues, issues)
			assert.GreaterOrEqual(t, got.Offset(), 0)
		})
	}
}
