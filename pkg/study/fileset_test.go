package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveFileSet(t *testing.T) {
	fs, err := DeriveFileSet("data.csv")
	require.NoError(t, err)

	assert.Equal(t, "data.csv", fs.Base)
	assert.Equal(t, "data.json", fs.Mapping)
	assert.Equal(t, "simulated_data.csv", fs.Simulated)
	assert.Equal(t, "data_encoded.csv", fs.Encoded)
	assert.Equal(t, "data_codebook.json", fs.Codebook)

	assert.Equal(t, []string{
		"data.csv",
		"data.json",
		"simulated_data.csv",
		"data_encoded.csv",
		"data_codebook.json",
	}, fs.Names())
}

func TestDeriveFileSet_MultiDotBase(t *testing.T) {
	fs, err := DeriveFileSet("survey.wave2.csv")
	require.NoError(t, err)

	assert.Equal(t, "survey.wave2.json", fs.Mapping)
	assert.Equal(t, "simulated_survey.wave2.csv", fs.Simulated)
	assert.Equal(t, "survey.wave2_encoded.csv", fs.Encoded)
	assert.Equal(t, "survey.wave2_codebook.json", fs.Codebook)
}

func TestDeriveFileSet_Invalid(t *testing.T) {
	tests := []struct {
		name string
		base string
	}{
		{name: "empty", base: ""},
		{name: "no extension", base: "data"},
		{name: "dotfile only", base: ".csv"},
		{name: "path separator", base: "dir/data.csv"},
		{name: "backslash separator", base: `dir\data.csv`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveFileSet(tt.base)
			assert.Error(t, err)
		})
	}
}

func TestFileSetContains(t *testing.T) {
	fs, err := DeriveFileSet("data.csv")
	require.NoError(t, err)

	assert.True(t, fs.Contains("data.csv"))
	assert.True(t, fs.Contains("data_codebook.json"))
	assert.False(t, fs.Contains("other.csv"))
}
