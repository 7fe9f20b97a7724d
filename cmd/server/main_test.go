package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"no flags", nil, false},
		{"long", []string{"--auto-migrate"}, true},
		{"single dash", []string{"-auto-migrate"}, true},
		{"short", []string{"-m"}, true},
		{"explicit false", []string{"--auto-migrate=false"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseServerOptions(tt.args, io.Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts.autoMigrate)
		})
	}
}

func TestParseServerOptions_Rejects(t *testing.T) {
	for _, args := range [][]string{{"--auto-migrat"}, {"migrate"}, {"-m", "extra"}} {
		_, err := parseServerOptions(args, io.Discard)
		assert.Error(t, err, args)
	}
}
