package config

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line   string
		key    string
		val    string
		wantOK bool
	}{
		{line: "LLM_API_KEY=abc", key: "LLM_API_KEY", val: "abc", wantOK: true},
		{line: `export CHAT_MODEL="llama 3"`, key: "CHAT_MODEL", val: "llama 3", wantOK: true},
		{line: "S3_PREFIX='audio/'", key: "S3_PREFIX", val: "audio/", wantOK: true},
		{line: "# comment", wantOK: false},
		{line: "   ", wantOK: false},
		{line: "NOVALUE", wantOK: false},
		{line: "=value", wantOK: false},
	}
	for _, tt := range tests {
		key, val, ok := parseEnvLine(tt.line)
		assert.Equal(t, tt.wantOK, ok, tt.line)
		if tt.wantOK {
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.val, val)
		}
	}
}

func TestLoadEnvFilesKeepsExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("NOTES_TEST_SET=file\nNOTES_TEST_NEW=file\n"), 0o644))
	t.Setenv("NOTES_TEST_SET", "env")
	t.Setenv("NOTES_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("NOTES_TEST_NEW"))

	loadEnvFiles(fs, ".env", "missing.env")

	assert.Equal(t, "env", os.Getenv("NOTES_TEST_SET"))
	assert.Equal(t, "file", os.Getenv("NOTES_TEST_NEW"))
}
