package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vvka-141/ftmgmt/internal/computed"
	"github.com/vvka-141/ftmgmt/internal/config"
	"github.com/vvka-141/ftmgmt/internal/policy"
	testhelpers "github.com/vvka-141/ftmgmt/internal/testing"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testConfig = `
reqnum: 12
site: ${camera}-site
camera: hsc
filetype_metadata:
  raw:
    filename_pattern: '^HSC-(?P<visit>\d{7})-(?P<ccd>\d{3})\.fits$'
    hdus:
      primary:
        r:
          f: {filename: , visit: }
          w: {reqnum: , site: }
          h: {exptime: EXPTIME, object: , visit: EXP-ID}
          c: {band: }
        o:
          h: {missing: NOPE}
      sci:
        r:
          h: {ccdtemp: }
          p: {object: primary}
  calib:
    hdus:
      primary:
        override: {func: compound, key: CALIB_ID, fields: [filter, calibDate], consts: {camsym: H}}
        r:
          h: {filter: , calibDate: , ccd: CCDNUM}
          c: {camsym: }
`

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) { l.add("V", format, args...) }
func (l *recordingLogger) Info(format string, args ...interface{})    { l.add("I", format, args...) }
func (l *recordingLogger) Error(format string, args ...interface{})   { l.add("E", format, args...) }

func (l *recordingLogger) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

func newEngine(t *testing.T, opener ftmgmt.HeaderOpener) (*Engine, *recordingLogger) {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	model, err := policy.FromStore(cfg)
	require.NoError(t, err)
	logger := &recordingLogger{}
	return New(model, opener, cfg, computed.Default(), logger), logger
}

func rawHeaders() *testhelpers.FakeHeaders {
	return testhelpers.NewFakeHeaders().
		Set("primary", "EXPTIME", ftmgmt.FloatValue(30)).
		Set("primary", "OBJECT", ftmgmt.StringValue("SSP_WIDE")).
		Set("primary", "EXP-ID", ftmgmt.StringValue("HSCA01234560")).
		Set("primary", "FILTER", ftmgmt.StringValue("HSC-i")).
		Set("sci", "CCDTEMP", ftmgmt.FloatValue(-110.5))
}

func recordMap(rec *ftmgmt.Record) map[string]string {
	out := make(map[string]string)
	rec.Range(func(k string, v ftmgmt.Value) bool {
		out[k] = v.String()
		return true
	})
	return out
}

func TestResolve_RawFile(t *testing.T) {
	const path = "/data/raw/HSC-0123456-042.fits"
	hdr := rawHeaders()
	engine, _ := newEngine(t, testhelpers.NewFakeOpener().Add(path, hdr))

	rec, prov, err := engine.Resolve(context.Background(), path, "raw")
	require.NoError(t, err)

	want := map[string]string{
		"filename": "HSC-0123456-042.fits",
		"visit":    "HSCA01234560",
		"reqnum":   "12",
		"site":     "hsc-site",
		"exptime":  "30",
		"object":   "SSP_WIDE",
		"band":     "I",
		"ccdtemp":  "-110.5",
	}
	if diff := cmp.Diff(want, recordMap(rec)); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, hdr.Closed(), "header store must be closed exactly once")

	p, ok := prov.Get("object")
	require.True(t, ok)
	assert.Equal(t, ftmgmt.CopyFromUnit, p.Source)
	assert.Equal(t, "primary", p.Unit)
	assert.Equal(t, "OBJECT", p.Key)
	assert.Equal(t, ftmgmt.KindString, p.Type)

	p, _ = prov.Get("reqnum")
	assert.Equal(t, ftmgmt.FromConfig, p.Source)
	assert.Equal(t, ftmgmt.KindInt, p.Type)
}

func TestResolve_LaterKindWins(t *testing.T) {
	const path = "HSC-0123456-042.fits"
	engine, _ := newEngine(t, testhelpers.NewFakeOpener().Add(path, rawHeaders()))

	rec, prov, err := engine.Resolve(context.Background(), path, "raw")
	require.NoError(t, err)

	v, _ := rec.Get("visit")
	assert.Equal(t, "HSCA01234560", v.String(), "header value must overwrite the filename value")
	p, _ := prov.Get("visit")
	assert.Equal(t, ftmgmt.FromHeader, p.Source)
	assert.Equal(t, "EXP-ID", p.Key)
}

func TestResolve_MissingHeaderKeyIsOmitted(t *testing.T) {
	const path = "HSC-0123456-042.fits"
	hdr := testhelpers.NewFakeHeaders().
		Set("primary", "OBJECT", ftmgmt.StringValue("SSP_WIDE")).
		AddUnit("sci")
	engine, logger := newEngine(t, testhelpers.NewFakeOpener().Add(path, hdr))

	rec, _, err := engine.Resolve(context.Background(), path, "raw")
	require.NoError(t, err)

	assert.False(t, rec.Has("exptime"))
	assert.False(t, rec.Has("missing"))
	assert.False(t, rec.Has("band"))
	v, ok := rec.Get("visit")
	require.True(t, ok, "filename value survives when the header has none")
	assert.Equal(t, "0123456", v.String())
	assert.True(t, logger.contains("Didn't find key NOPE in primary header"))
}

func TestResolve_OverrideCache(t *testing.T) {
	const path = "/calib/calib-042.fits.fz"
	hdr := testhelpers.NewFakeHeaders().
		Set("primary", "CALIB_ID", ftmgmt.StringValue("filter=HSC-R calibDate=2020-01-01")).
		Set("primary", "FILTER", ftmgmt.StringValue("ignored")).
		Set("primary", "CCDNUM", ftmgmt.IntValue(42))
	engine, _ := newEngine(t, testhelpers.NewFakeOpener().Add(path, hdr))

	rec, prov, err := engine.Resolve(context.Background(), path, "calib")
	require.NoError(t, err)

	want := map[string]string{
		"filter":    "HSC-R",
		"calibDate": "2020-01-01",
		"ccd":       "42",
		"camsym":    "H",
	}
	if diff := cmp.Diff(want, recordMap(rec)); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	p, _ := prov.Get("filter")
	assert.Equal(t, "CALIB_ID", p.Key)
	p, _ = prov.Get("camsym")
	assert.Equal(t, ftmgmt.Computed, p.Source)
	assert.Equal(t, "compound", p.Key)
}

func TestResolve_OverrideFailureIsPartial(t *testing.T) {
	const path = "calib.fits"
	hdr := testhelpers.NewFakeHeaders().
		Set("primary", "CALIB_ID", ftmgmt.StringValue("filter=HSC-R")).
		Set("primary", "CALIBDATE", ftmgmt.StringValue("2019-12-31"))
	engine, logger := newEngine(t, testhelpers.NewFakeOpener().Add(path, hdr))

	rec, _, err := engine.Resolve(context.Background(), path, "calib")
	require.NoError(t, err)

	v, _ := rec.Get("filter")
	assert.Equal(t, "HSC-R", v.String())
	v, _ = rec.Get("calibDate")
	assert.Equal(t, "2019-12-31", v.String(), "fields missing from the override fall back to the header")
	assert.True(t, rec.Has("camsym"))
	assert.True(t, logger.contains("WARN: override compound"))
}

func TestResolve_OverrideKeysDifferingOnlyByCase(t *testing.T) {
	const doc = `
filetype_metadata:
  calib:
    hdus:
      primary:
        override: {func: clash, key: CALIB_ID}
        r:
          h: {ccd: }
`
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	model, err := policy.FromStore(cfg)
	require.NoError(t, err)

	registry := computed.NewRegistry()
	registry.RegisterOverride("clash", func(ftmgmt.HeaderStore, string, *policy.Override) (map[string]ftmgmt.Value, error) {
		return map[string]ftmgmt.Value{"CCD": ftmgmt.IntValue(2), "ccd": ftmgmt.IntValue(1)}, nil
	})

	const path = "calib.fits"
	opener := testhelpers.NewFakeOpener().Add(path, testhelpers.NewFakeHeaders().AddUnit("primary"))
	engine := New(model, opener, cfg, registry, &recordingLogger{})

	for i := 0; i < 20; i++ {
		rec, _, err := engine.Resolve(context.Background(), path, "calib")
		require.NoError(t, err)
		v, ok := rec.Get("ccd")
		require.True(t, ok)
		assert.Equal(t, "1", v.String())
	}
}

func TestResolve_Errors(t *testing.T) {
	engine, _ := newEngine(t, testhelpers.NewFakeOpener())

	_, _, err := engine.Resolve(context.Background(), "x.fits", "nope")
	assert.True(t, errors.Is(err, ftmgmt.ErrUnknownFileType))

	_, _, err = engine.Resolve(context.Background(), "x.fits", "raw")
	assert.True(t, errors.Is(err, ftmgmt.ErrFileNotFound))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = engine.Resolve(ctx, "x.fits", "raw")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_UnknownComputedFunction(t *testing.T) {
	const path = "HSC-0123456-042.fits"
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	model, err := policy.FromStore(cfg)
	require.NoError(t, err)
	logger := &recordingLogger{}
	engine := New(model, testhelpers.NewFakeOpener().Add(path, rawHeaders()), cfg, computed.NewRegistry(), logger)

	rec, _, err := engine.Resolve(context.Background(), path, "raw")
	require.NoError(t, err)
	assert.False(t, rec.Has("band"))
	assert.True(t, logger.contains(`no computed function "band"`))
}

func TestPlan(t *testing.T) {
	engine, _ := newEngine(t, testhelpers.NewFakeOpener())

	steps, err := engine.Plan("RAW")
	require.NoError(t, err)

	var got []string
	for _, s := range steps {
		got = append(got, s.Unit.Name+":"+s.Kind.Code()+":"+s.Source.Field)
	}
	want := []string{
		"primary:f:filename", "primary:f:visit",
		"primary:w:reqnum", "primary:w:site",
		"primary:h:exptime", "primary:h:object", "primary:h:visit",
		"primary:c:band",
		"primary:h:missing",
		"sci:h:ccdtemp",
		"sci:p:object",
	}
	assert.Equal(t, want, got)
	assert.Contains(t, DescribePlan(steps), "sci/r p object <- primary.OBJECT")
}

func TestResolveMany(t *testing.T) {
	opener := testhelpers.NewFakeOpener()
	var paths []string
	for i := 0; i < 20; i++ {
		p := fmt.Sprintf("HSC-%07d-001.fits", i)
		paths = append(paths, p)
		if i != 7 {
			opener.Add(p, rawHeaders())
		}
	}
	engine, _ := newEngine(t, opener)

	results, err := engine.ResolveMany(context.Background(), paths, "raw", 3)
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	for i, r := range results {
		assert.Equal(t, paths[i], r.Path, "results keep input order")
		if i == 7 {
			assert.ErrorIs(t, r.Err, ftmgmt.ErrFileNotFound)
			continue
		}
		require.NoError(t, r.Err)
		v, _ := r.Record.Get("filename")
		assert.Equal(t, paths[i], v.String())
	}

	_, err = engine.ResolveMany(context.Background(), paths, "nope", 2)
	assert.ErrorIs(t, err, ftmgmt.ErrUnknownFileType)
}

type fakeStore struct {
	present map[string]bool
	calls   [][]string
}

func (s *fakeStore) ExistingFilenames(_ context.Context, names []string) (map[string]bool, error) {
	s.calls = append(s.calls, append([]string(nil), names...))
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = s.present[n]
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

func TestIngested(t *testing.T) {
	store := &fakeStore{present: map[string]bool{"calib_20200101": true}}

	got, err := Ingested(context.Background(), store, []string{
		"calib_20200101.fits",
		"/archive/calib_20200101.fits.fz",
		"calib_20200102.fits",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{
		"calib_20200101.fits":             true,
		"/archive/calib_20200101.fits.fz": true,
		"calib_20200102.fits":             false,
	}, got)
	require.Len(t, store.calls, 1)
	assert.Equal(t, []string{"calib_20200101.fits", "calib_20200101", "calib_20200102.fits", "calib_20200102"},
		store.calls[0], "duplicates are queried once")
}

func TestIngested_StoreKeepsFITSExtension(t *testing.T) {
	store := &fakeStore{present: map[string]bool{"calib_20200101.fits": true}}

	got, err := Ingested(context.Background(), store, []string{
		"/a/calib_20200101.fits",
		"/b/calib_20200101.fits.fz",
		"/c/calib_20200102.fits.fz",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"/a/calib_20200101.fits":    true,
		"/b/calib_20200101.fits.fz": true,
		"/c/calib_20200102.fits.fz": false,
	}, got)
}

func TestIngested_Batches(t *testing.T) {
	store := &fakeStore{present: map[string]bool{}}
	var names []string
	for i := 0; i < ftmgmt.ExistenceBatchSize+10; i++ {
		names = append(names, fmt.Sprintf("f%05d.fits", i))
	}

	got, err := Ingested(context.Background(), store, names)
	require.NoError(t, err)
	assert.Len(t, got, len(names))
	// Each name is looked up with and without its FITS extension.
	require.Len(t, store.calls, 3)
	assert.Len(t, store.calls[0], ftmgmt.ExistenceBatchSize)
	assert.Len(t, store.calls[1], ftmgmt.ExistenceBatchSize)
	assert.Len(t, store.calls[2], 20)
}

func TestIngested_Empty(t *testing.T) {
	store := &fakeStore{}
	got, err := Ingested(context.Background(), store, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, store.calls)
}

type failingStore struct{}

func (failingStore) ExistingFilenames(context.Context, []string) (map[string]bool, error) {
	return nil, ftmgmt.ErrStoreUnavailable
}
func (failingStore) Close() error { return nil }

func TestIngested_StoreError(t *testing.T) {
	_, err := Ingested(context.Background(), failingStore{}, []string{"a.fits"})
	assert.ErrorIs(t, err, ftmgmt.ErrStoreUnavailable)
}

func TestResolve_Deterministic(t *testing.T) {
	const path = "HSC-0123456-042.fits"
	engine, _ := newEngine(t, testhelpers.NewFakeOpener().Add(path, rawHeaders()))

	rec1, prov1, err := engine.Resolve(context.Background(), path, "raw")
	require.NoError(t, err)
	rec2, prov2, err := engine.Resolve(context.Background(), path, "raw")
	require.NoError(t, err)

	b1, err := rec1.MarshalJSON()
	require.NoError(t, err)
	b2, err := rec2.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
	assert.Equal(t, rec1.Keys(), rec2.Keys())

	p1, _ := prov1.MarshalJSON()
	p2, _ := prov2.MarshalJSON()
	assert.Equal(t, string(p1), string(p2))
}
