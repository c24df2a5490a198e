package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/comicmap/internal/appcontext"
)

func TestVersionCommand(t *testing.T) {
	app := &appcontext.Mock{
		VersionFunc:      func() string { return "1.4.0" },
		OutputFormatFunc: func() string { return "json" },
	}

	var buf bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var info Info
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, "unknown", info.Commit)
	assert.NotEmpty(t, info.GoVersion)
}

func TestVersionCommandTable(t *testing.T) {
	var buf bytes.Buffer
	cmd := NewCommand(&appcontext.Mock{})
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "dev")
	assert.Contains(t, buf.String(), "Built By")
}
