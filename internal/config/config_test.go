package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/semdiff/internal/compare"
	"github.com/gnoswap-labs/semdiff/internal/slicer"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, compare.DefaultOptions(), c.CompareOptions())
	assert.Equal(t, slicer.DefaultOptions(), c.SlicerOptions())
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		check   func(t *testing.T, c Config)
		wantErr string
	}{
		{
			name:  "empty document",
			input: "",
			check: func(t *testing.T, c Config) {
				assert.Equal(t, Default(), c)
			},
		},
		{
			name: "partial override",
			input: `name: kernel
compare:
  control_flow_only: true
  relocation_distance: 8
`,
			check: func(t *testing.T, c Config) {
				assert.Equal(t, "kernel", c.Name)
				assert.True(t, c.Compare.ControlFlowOnly)
				assert.Equal(t, 8, c.Compare.RelocationDistance)
				assert.Equal(t, Default().Compare.Lookahead, c.Compare.Lookahead)
				assert.Equal(t, Default().Compare.Allocators, c.Compare.Allocators)
			},
		},
		{
			name: "lists replace defaults",
			input: `compare:
  side_effect_free: [trace]
slicer:
  always_include: [llvm.dbg.value]
`,
			check: func(t *testing.T, c Config) {
				assert.Equal(t, []string{"trace"}, c.CompareOptions().SideEffectFree)
				assert.Equal(t, []string{"llvm.dbg.value"}, c.SlicerOptions().AlwaysInclude)
			},
		},
		{
			name:    "unknown key",
			input:   "compare:\n  distance: 3\n",
			wantErr: "field distance not found",
		},
		{
			name:    "negative lookahead",
			input:   "compare:\n  lookahead: -1\n",
			wantErr: "compare.lookahead must not be negative",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultPath)
	c := Default()
	c.Compare.ControlFlowOnly = true
	require.NoError(t, Write(path, c))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "control_flow_only: true")
	assert.Contains(t, string(data), "always_include:")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
