package computed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ftmgmt/internal/policy"
	testhelpers "github.com/vvka-141/ftmgmt/internal/testing"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

var _ policy.FunctionSet = (*Registry)(nil)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.HasFunc("band"))

	r.Register("Band", Band)
	assert.True(t, r.HasFunc("band"))
	assert.True(t, r.HasFunc("BAND"))

	_, ok := r.Override("compound")
	assert.False(t, ok)
	r.RegisterOverride("compound", Compound)
	assert.True(t, r.HasOverride("Compound"))

	assert.Equal(t, []string{"band", "compression", "field", "filename", "filesize", "md5sum", "nite", "pointing"}, Default().Names())
}

func TestBuiltins(t *testing.T) {
	hdr := testhelpers.NewFakeHeaders().
		Set("primary", "FILTER01", ftmgmt.StringValue(" hsc-r ")).
		Set("primary", "DATE-OBS", ftmgmt.StringValue("2020-01-02T05:30:00.5")).
		Set("primary", "MJD", ftmgmt.FloatValue(58850.2)).
		Set("primary", "OBJECT", ftmgmt.StringValue("ssp-wide 1")).
		Set("sci", "OBJECT", ftmgmt.StringValue("#")).
		Set("sci", "DATE-OBS", ftmgmt.StringValue("2020-01-02"))

	tests := []struct {
		name string
		fn   ftmgmt.ComputedFunc
		path string
		unit string
		want ftmgmt.Value
	}{
		{"filename", Filename, "/raw/a.fits.fz", "primary", ftmgmt.StringValue("a.fits")},
		{"compression", Compression, "/raw/a.fits.fz", "primary", ftmgmt.StringValue(".fz")},
		{"no compression", Compression, "/raw/a.fits", "primary", ftmgmt.Value{}},
		{"band", Band, "", "primary", ftmgmt.StringValue("R")},
		{"nite before noon", Nite, "", "primary", ftmgmt.StringValue("20200101")},
		{"nite date only", Nite, "", "sci", ftmgmt.StringValue("20200101")},
		{"pointing", Pointing, "", "primary", ftmgmt.IntValue(58850 - PointingEpochMJD)},
		{"field", Field, "", "primary", ftmgmt.StringValue("SSP_WIDE_1")},
		{"unknown field", Field, "", "sci", ftmgmt.StringValue("UNKNOWN")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.path, hdr, tt.unit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltins_NotDerivable(t *testing.T) {
	hdr := testhelpers.NewFakeHeaders().
		Set("primary", "DATE-OBS", ftmgmt.StringValue("yesterday")).
		Set("primary", "MJD", ftmgmt.StringValue("n/a")).
		Set("primary", "FILTER", ftmgmt.StringValue("  "))

	_, err := Nite("", hdr, "primary")
	assert.True(t, errors.Is(err, ftmgmt.ErrNotDerivable))

	_, err = Pointing("", hdr, "primary")
	assert.True(t, errors.Is(err, ftmgmt.ErrNotDerivable))

	_, err = Band("", hdr, "primary")
	assert.True(t, errors.Is(err, ftmgmt.ErrNotDerivable))

	_, err = Field("", hdr, "primary")
	assert.True(t, errors.Is(err, ftmgmt.ErrKeyNotFound))
}

func TestCompound(t *testing.T) {
	spec := &policy.Override{
		Func:   "compound",
		Key:    "CALIB_ID",
		Fields: []string{"filter", "calibDate", "ccd"},
		Consts: []policy.Const{{Name: "camsym", Value: ftmgmt.StringValue("H")}},
	}

	t.Run("any order", func(t *testing.T) {
		hdr := testhelpers.NewFakeHeaders().
			Set("primary", "CALIB_ID", ftmgmt.StringValue("ccd=42 filter=HSC-R calibDate=2020-01-01"))
		got, err := Compound(hdr, "primary", spec)
		require.NoError(t, err)
		assert.Equal(t, map[string]ftmgmt.Value{
			"filter":    ftmgmt.StringValue("HSC-R"),
			"calibDate": ftmgmt.StringValue("2020-01-01"),
			"ccd":       ftmgmt.StringValue("42"),
			"camsym":    ftmgmt.StringValue("H"),
		}, got)
	})

	t.Run("partial", func(t *testing.T) {
		hdr := testhelpers.NewFakeHeaders().
			Set("primary", "CALIB_ID", ftmgmt.StringValue("filter=HSC-G"))
		got, err := Compound(hdr, "primary", spec)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ftmgmt.ErrNotDerivable))
		assert.Contains(t, err.Error(), "calibDate, ccd")
		assert.Equal(t, ftmgmt.StringValue("HSC-G"), got["filter"])
		assert.Equal(t, ftmgmt.StringValue("H"), got["camsym"])
	})

	t.Run("missing key keeps consts", func(t *testing.T) {
		hdr := testhelpers.NewFakeHeaders().AddUnit("primary")
		got, err := Compound(hdr, "primary", spec)
		assert.True(t, errors.Is(err, ftmgmt.ErrKeyNotFound))
		assert.Equal(t, map[string]ftmgmt.Value{"camsym": ftmgmt.StringValue("H")}, got)
	})

	t.Run("custom pattern", func(t *testing.T) {
		custom := &policy.Override{Key: "ID", Fields: []string{"visit"}, Pattern: `%s:(\d+)`}
		hdr := testhelpers.NewFakeHeaders().Set("primary", "ID", ftmgmt.StringValue("visit:1234;ccd:5"))
		got, err := Compound(hdr, "primary", custom)
		require.NoError(t, err)
		assert.Equal(t, ftmgmt.StringValue("1234"), got["visit"])
	})

	t.Run("field name is not a suffix match", func(t *testing.T) {
		hdr := testhelpers.NewFakeHeaders().
			Set("primary", "CALIB_ID", ftmgmt.StringValue("subccd=7 ccd=3 filter=N calibDate=x"))
		got, err := Compound(hdr, "primary", spec)
		require.NoError(t, err)
		assert.Equal(t, ftmgmt.StringValue("3"), got["ccd"])
	})
}

func TestFileDigests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_0001.fits.fz")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	v, err := MD5Sum(path, nil, "primary")
	require.NoError(t, err)
	assert.Equal(t, ftmgmt.StringValue("900150983cd24fb0d6963f7d28e17f72"), v)

	v, err = FileSize(path, nil, "primary")
	require.NoError(t, err)
	assert.Equal(t, ftmgmt.IntValue(3), v)

	_, err = FileSize(filepath.Join(t.TempDir(), "absent.fits"), nil, "primary")
	assert.ErrorIs(t, err, ftmgmt.ErrFileNotFound)
}
