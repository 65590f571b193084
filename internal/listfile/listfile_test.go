package listfile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ftmgmt/internal/files/filesystem"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// flat returns the fields of every record's single flat unit as strings.
func flat(t *testing.T, records []*Record) []map[string]string {
	t.Helper()
	out := make([]map[string]string, 0, len(records))
	for _, r := range records {
		fields, ok := r.Unit(FlatUnit)
		require.True(t, ok, "record %s has no %s unit", r.Name, FlatUnit)
		m := make(map[string]string)
		fields.Range(func(k string, v ftmgmt.Value) bool {
			m[k] = v.String()
			return true
		})
		out = append(out, m)
	}
	return out
}

func TestReadBytes_Delimited(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		data    string
		columns []string
		want    []map[string]string
	}{
		{
			name:    "csv",
			format:  FormatCSV,
			data:    "a,1\nb,2",
			columns: []string{"name", "val"},
			want:    []map[string]string{{"name": "a", "val": "1"}, {"name": "b", "val": "2"}},
		},
		{
			name:    "tab with blank lines and CRLF",
			format:  FormatTab,
			data:    "a\t1\r\n\r\nb\t 2 \r\n",
			columns: []string{"name", "val"},
			want:    []map[string]string{{"name": "a", "val": "1"}, {"name": "b", "val": "2"}},
		},
		{
			name:    "space collapses runs",
			format:  FormatSpace,
			data:    "x.fits   3\n",
			columns: []string{"filename", "ccd"},
			want:    []map[string]string{{"filename": "x.fits", "ccd": "3"}},
		},
		{
			name:    "fewer tokens than columns",
			format:  FormatCSV,
			data:    "a\nb,2,extra",
			columns: []string{"name", "val"},
			want:    []map[string]string{{"name": "a"}, {"name": "b", "val": "2"}},
		},
		{
			name:    "default format",
			format:  "",
			data:    "a 1",
			columns: []string{"name", "val"},
			want:    []map[string]string{{"name": "a", "val": "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ReadBytes([]byte(tt.data), tt.format, tt.columns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, flat(t, records))
		})
	}
}

func TestReadBytes_LineNamesAndOrder(t *testing.T) {
	records, err := ReadBytes([]byte("c\na\nb"), FormatCSV, []string{"name"})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "line00001", records[0].Name)
	assert.Equal(t, "line00003", records[2].Name)

	var names []string
	for _, m := range flat(t, records) {
		names = append(names, m["name"])
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)

	fields, _ := records[0].Unit(FlatUnit)
	assert.Equal(t, []string{"name"}, fields.Keys())
}

func TestReadBytes_YAML(t *testing.T) {
	doc := `
list:
  line:
    line00002:
      file:
        sci: {filename: b.fits, ccd: 2}
        bkg: {filename: b_bkg.fits}
    line00001:
      file:
        sci: {filename: a.fits, ccd: 1, exptime: 30.5}
`
	for _, format := range []string{FormatConfig, FormatWCL, FormatYAML} {
		records, err := ReadBytes([]byte(doc), format, nil)
		require.NoError(t, err, format)
		require.Len(t, records, 2)

		assert.Equal(t, "line00002", records[0].Name, "file order is kept")
		assert.Equal(t, []string{"sci", "bkg"}, records[0].Units())

		sci, ok := records[1].Unit("sci")
		require.True(t, ok)
		assert.Equal(t, []string{"filename", "ccd", "exptime"}, sci.Keys())
		ccd, _ := sci.Get("ccd")
		assert.Equal(t, ftmgmt.KindInt, ccd.Kind())
		exptime, _ := sci.Get("exptime")
		f, ok := exptime.Float()
		require.True(t, ok)
		assert.Equal(t, 30.5, f)
	}
}

func TestReadBytes_YAMLWithoutWrappers(t *testing.T) {
	doc := "l1:\n  sci: {ccd: 7}\n"
	records, err := ReadBytes([]byte(doc), FormatYAML, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	sci, ok := records[0].Unit("sci")
	require.True(t, ok)
	v, _ := sci.Get("ccd")
	assert.Equal(t, "7", v.String())
}

func TestReadBytes_HCL(t *testing.T) {
	doc := `
line "line00001" {
  file "sci" {
    filename = "a.fits"
    ccd      = 1
    exptime  = 30.5
    good     = true
  }
}
line "line00002" {
  file "sci" {
    filename = "b.fits"
    ccd      = 2
  }
  file "bkg" {
    filename = "b_bkg.fits"
  }
}
`
	records, err := ReadBytes([]byte(doc), FormatHCL, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	sci, _ := records[0].Unit("sci")
	assert.Equal(t, []string{"filename", "ccd", "exptime", "good"}, sci.Keys(), "attribute order follows the source")
	ccd, _ := sci.Get("ccd")
	assert.Equal(t, ftmgmt.IntValue(1), ccd)
	exptime, _ := sci.Get("exptime")
	assert.Equal(t, ftmgmt.FloatValue(30.5), exptime)
	good, _ := sci.Get("good")
	assert.Equal(t, ftmgmt.BoolValue(true), good)

	assert.Equal(t, []string{"sci", "bkg"}, records[1].Units())
}

func TestReadBytes_Errors(t *testing.T) {
	_, err := ReadBytes([]byte("a"), "xml", nil)
	assert.ErrorIs(t, err, ftmgmt.ErrUnsupportedListFormat)

	_, err = ReadBytes([]byte("line \"x\" {"), FormatHCL, nil)
	assert.ErrorIs(t, err, ftmgmt.ErrInvalidConfig)

	_, err = ReadBytes([]byte("l1: [1, 2]"), FormatYAML, nil)
	assert.ErrorIs(t, err, ftmgmt.ErrInvalidConfig)

	_, err = ReadBytes([]byte("line \"x\" {\n  file \"sci\" {\n    v = [1]\n  }\n}\n"), FormatHCL, nil)
	assert.ErrorIs(t, err, ftmgmt.ErrInvalidConfig)
}

func TestRead(t *testing.T) {
	fs := filesystem.NewMemoryFileSystem("/lists")
	fs.AddFile("visits.csv", "0123456,r\n0123457,g\n")

	records, err := Read(fs, "/lists/visits.csv", FormatCSV, ParseColumns("visit, FILTER", false))
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"visit": "0123456", "filter": "r"},
		{"visit": "0123457", "filter": "g"},
	}, flat(t, records))

	_, err = Read(fs, "/lists/missing.csv", FormatCSV, nil)
	assert.ErrorIs(t, err, ftmgmt.ErrFileNotFound)
}

func TestParseColumns(t *testing.T) {
	assert.Equal(t, []string{"name", "val"}, ParseColumns("name,val", false))
	assert.Equal(t, []string{"name", "val"}, ParseColumns(" Name , VAL ", false))
	assert.Equal(t, []string{"Name", "val"}, ParseColumns("Name val", true))
	assert.Empty(t, ParseColumns("", false))
}

func TestRecord_MarshalJSON(t *testing.T) {
	records, err := ReadBytes([]byte("a,1"), FormatCSV, []string{"name", "val"})
	require.NoError(t, err)

	b, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"line00001","file":{"file":{"name":"a","val":"1"}}}`, string(b))
}
