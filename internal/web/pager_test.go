package web

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPager(t *testing.T) {
	cases := []struct {
		name  string
		query url.Values
		want  string
	}{
		{"no query", nil, "/dashboard?"},
		{"page is dropped", url.Values{"page": {"4"}}, "/dashboard?"},
		{"filters are kept", url.Values{"status": {"done"}, "page": {"2"}, "q": {"milk tea"}}, "/dashboard?q=milk+tea&status=done&"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPager("/dashboard", tc.query, 2, 7, 65, []int{1, 2, 3, 4, 5})
			assert.Equal(t, tc.want, p.BasePath)
			assert.Equal(t, 2, p.Page)
			assert.Equal(t, 7, p.TotalPages)
			assert.Equal(t, 65, p.TotalItems)
		})
	}
}
