package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagFilter_ShouldInclude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		groups  []string
		include []string
		exclude []string
		want    bool
	}{
		{name: "no filters", groups: []string{"comics"}, want: true},
		{name: "no filters and no groups", want: true},
		{name: "include match", groups: []string{"novels", "comics"}, include: []string{"comics"}, want: true},
		{name: "include without match", groups: []string{"novels"}, include: []string{"comics"}, want: false},
		{name: "include with no groups", include: []string{"comics"}, want: false},
		{name: "exclude match", groups: []string{"comics", "18+"}, exclude: []string{"18+"}, want: false},
		{name: "exclude precedence", groups: []string{"comics", "18+"}, include: []string{"comics"}, exclude: []string{"18+"}, want: false},
		{name: "exclude only without match", groups: []string{"novels"}, exclude: []string{"18+"}, want: true},
		{name: "exact match only", groups: []string{"Comics"}, include: []string{"comics"}, want: false},
	}

	filter := NewDefaultTagFilter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, reason := filter.ShouldInclude(tt.groups, tt.include, tt.exclude)
			assert.Equal(t, tt.want, got, reason)
			assert.NotEmpty(t, reason)
		})
	}
}
