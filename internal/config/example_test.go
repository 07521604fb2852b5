package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteExample(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteExample(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc exampleDoc
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc.Providers, "openrouter")
	assert.Equal(t, "30s", doc.Providers["openrouter"].Timeout)
	assert.Equal(t, "$AIRTABLE_TOKEN", doc.Store.Token)

	// Never clobber an existing config.
	_, err = WriteExample(dir)
	require.Error(t, err)
}
