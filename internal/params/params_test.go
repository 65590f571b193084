package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValuePairs(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    map[string]string
		wantErr string
	}{
		{
			name:  "single pair",
			input: []string{"store.driver=sqlite"},
			want:  map[string]string{"store.driver": "sqlite"},
		},
		{
			name:  "multiple pairs",
			input: []string{"store.driver=postgres", "resolve.parallelism=8"},
			want:  map[string]string{"store.driver": "postgres", "resolve.parallelism": "8"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  map[string]string{},
		},
		{
			name:  "empty value",
			input: []string{"reqnum="},
			want:  map[string]string{"reqnum": ""},
		},
		{
			name:  "value with equals",
			input: []string{"store.dsn=host=localhost dbname=archive"},
			want:  map[string]string{"store.dsn": "host=localhost dbname=archive"},
		},
		{
			name:  "key is trimmed",
			input: []string{" reqnum =42"},
			want:  map[string]string{"reqnum": "42"},
		},
		{
			name:    "missing equals",
			input:   []string{"reqnum"},
			wantErr: "not in key=value format",
		},
		{
			name:    "empty key",
			input:   []string{"=42"},
			wantErr: "empty key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeyValuePairs(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnvFile(t *testing.T) {
	content := []byte(`# overrides for the nightly run
reqnum=1234
wrapper.pipeline="hsc pipe"
export unitname='D00001'
`)
	got, err := ParseEnvFile(content)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"reqnum":           "1234",
		"wrapper.pipeline": "hsc pipe",
		"unitname":         "D00001",
	}, got)
}

func TestMerge_LaterWins(t *testing.T) {
	got := Merge(
		map[string]string{"a": "file", "b": "file"},
		map[string]string{"b": "cli"},
		nil,
	)
	assert.Equal(t, map[string]string{"a": "file", "b": "cli"}, got)
}

func TestLoadFiles(t *testing.T) {
	files := map[string][]byte{
		"base.env":  []byte("reqnum=1\nattnum=1\n"),
		"night.env": []byte("attnum=2\n"),
	}
	read := func(path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			return nil, errors.New("missing")
		}
		return data, nil
	}

	got, err := LoadFiles(read, []string{"base.env", "night.env"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"reqnum": "1", "attnum": "2"}, got)

	_, err = LoadFiles(read, []string{"absent.env"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.env")
}
