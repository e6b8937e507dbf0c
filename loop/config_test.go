package loop

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithConfig(t *testing.T) {
	o := NewOptions(WithConfig([]byte(`
mode:
  debug: true
heartbeat: 250ms
exportTraceId: false
`)))

	assert.True(t, o.DebugMode)
	assert.Equal(t, 250*time.Millisecond, o.HeartbeatInterval)
	assert.False(t, o.ExportTraceID)
	assert.NotNil(t, o.Logger)
	assert.NotNil(t, o.Sink)
	assert.NotNil(t, o.Clock)
}

func TestWithConfigKeepsDefaults(t *testing.T) {
	o := NewOptions(WithConfig([]byte(`mode: {debug: false}`)))
	assert.True(t, o.ExportTraceID)
	assert.Zero(t, o.HeartbeatInterval)
}

func TestWithConfigWithoutModeKeepsDebugMode(t *testing.T) {
	o := NewOptions(WithDebugMode(true), WithConfig([]byte(`heartbeat: 1s`)))
	assert.True(t, o.DebugMode)

	o = NewOptions(WithDebugMode(true), WithConfig([]byte(`mode: {debug: false}`)))
	assert.False(t, o.DebugMode)
}

func TestParseConfig(t *testing.T) {
	opt, err := ParseConfig([]byte(`heartbeat: 2s`))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, NewOptions(opt).HeartbeatInterval)

	_, err = ParseConfig([]byte(`heartbeat: -1s`))
	assert.Error(t, err)
}

func TestWithConfigInvalidPanics(t *testing.T) {
	assert.Panics(t, func() { NewOptions(WithConfig([]byte(`heartbeat: soon`))) })
	assert.Panics(t, func() { NewOptions(WithConfig([]byte(`heartbeat: -1s`))) })
	assert.Panics(t, func() { NewOptions(WithConfig([]byte(`mode: [`))) })
}

func TestWithConfigFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "loop.yaml")
	require.NoError(t, os.WriteFile(p, []byte("heartbeat: 1s\n"), 0o644))

	assert.Equal(t, time.Second, NewOptions(WithConfigFile(p)).HeartbeatInterval)
	assert.Panics(t, func() { NewOptions(WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))) })
}
