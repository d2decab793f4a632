package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/perftools/internal/perftools"
)

func TestGroupByActor(t *testing.T) {
	tests := map[string]struct {
		env      string
		args     []string
		expected bool
	}{
		"default":            {expected: false},
		"flag":               {args: []string{"--group-by-actor"}, expected: true},
		"environment":        {env: "true", expected: true},
		"flag overrides env": {env: "true", args: []string{"--group-by-actor=false"}, expected: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if tc.env != "" {
				t.Setenv("PERFTOOLS_DIFFERENCING_GROUP_BY_ACTOR", tc.env)
			}
			cmd := summarizeCmd(perftools.New())
			require.NoError(t, cmd.ParseFlags(tc.args))

			groupBy, err := groupByActor(cmd)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, groupBy)
		})
	}
}
