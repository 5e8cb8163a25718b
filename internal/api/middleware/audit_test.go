package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractResource(t *testing.T) {
	cases := []struct {
		path         string
		resourceType string
		resourceID   string
	}{
		{"/api/v1/processes", "processes", ""},
		{"/api/v1/processes/3", "processes", "3"},
		{"/api/v1/processes/3/phases", "phases", ""},
		{"/api/v1/phases/7/members", "members", ""},
		{"/api/v1/processes/3/licenses/21", "licenses", "21"},
	}

	for _, tc := range cases {
		rt, rid := extractResource(tc.path)
		require.NotNil(t, rt, tc.path)
		assert.Equal(t, tc.resourceType, *rt, tc.path)
		if tc.resourceID == "" {
			assert.Nil(t, rid, tc.path)
		} else {
			require.NotNil(t, rid, tc.path)
			assert.Equal(t, tc.resourceID, *rid, tc.path)
		}
	}
}

func TestExtractResource_Root(t *testing.T) {
	rt, rid := extractResource("/api/v1/")
	assert.Nil(t, rt)
	assert.Nil(t, rid)
}
