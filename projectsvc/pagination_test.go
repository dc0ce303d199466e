package projectsvc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		total            int64
		page             int
		wantLastPage     int
		wantFrom, wantTo int64
		wantEmpty        bool
	}{
		{name: "first page", total: 40, page: 1, wantLastPage: 3, wantFrom: 1, wantTo: 15},
		{name: "middle page", total: 40, page: 2, wantLastPage: 3, wantFrom: 16, wantTo: 30},
		{name: "last partial page", total: 40, page: 3, wantLastPage: 3, wantFrom: 31, wantTo: 40},
		{name: "beyond last page", total: 40, page: 4, wantLastPage: 3, wantEmpty: true},
		{name: "empty set", total: 0, page: 1, wantLastPage: 1, wantEmpty: true},
		{name: "exact multiple", total: 30, page: 2, wantLastPage: 2, wantFrom: 16, wantTo: 30},
		{name: "page below one", total: 5, page: 0, wantLastPage: 1, wantFrom: 1, wantTo: 5},
		{name: "huge page", total: 3, page: math.MaxInt, wantLastPage: 1, wantEmpty: true},
		{name: "page overflowing offset", total: 40, page: math.MaxInt/PerPage + 2, wantLastPage: 3, wantEmpty: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewPagination(tt.total, tt.page)
			require.Equal(t, PerPage, p.PerPage)
			require.Equal(t, tt.total, p.Total)
			require.Equal(t, tt.wantLastPage, p.LastPage)

			if tt.wantEmpty {
				require.Nil(t, p.From)
				require.Nil(t, p.To)
				return
			}
			require.NotNil(t, p.From)
			require.NotNil(t, p.To)
			require.Equal(t, tt.wantFrom, *p.From)
			require.Equal(t, tt.wantTo, *p.To)
		})
	}
}

func TestPageRequestWindow(t *testing.T) {
	t.Parallel()

	p := PageRequest(3)
	require.Equal(t, 30, p.Offset())
	require.Equal(t, 15, p.Limit())

	p = PageRequest(-2)
	require.Equal(t, 1, p.CurrentPage)
	require.Equal(t, 0, p.Offset())
}

func TestBeyond(t *testing.T) {
	t.Parallel()

	require.False(t, PageRequest(3).Beyond(40))
	require.True(t, PageRequest(4).Beyond(40))
	require.True(t, PageRequest(1).Beyond(0))
	require.True(t, PageRequest(math.MaxInt).Beyond(40))
}
