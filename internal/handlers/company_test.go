package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/models"
)

func TestWithinUserLimit(t *testing.T) {
	cases := []struct {
		name        string
		maxUsers    int
		activeUsers int
		want        bool
	}{
		{"unlimited plan", 0, 100, true},
		{"below limit", 5, 4, true},
		{"at limit", 5, 5, false},
		{"over limit", 5, 6, false},
		{"single seat taken", 1, 1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := &models.Plan{MaxUsers: tc.maxUsers}
			assert.Equal(t, tc.want, withinUserLimit(plan, tc.activeUsers))
		})
	}
}
