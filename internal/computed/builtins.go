package computed

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/vvka-141/ftmgmt/internal/filename"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// PointingEpochMJD is the MJD of 2012-01-01, the zero point of pointing numbers.
const PointingEpochMJD = 55927

var (
	filterKeys  = []string{"FILTER", "FILTER01"}
	dateObsKeys = []string{"DATE-OBS", "TAIOBS"}

	nonWord = regexp.MustCompile(`\W`)

	dateLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// Filename returns the file's name without directory or compression suffix.
func Filename(path string, _ ftmgmt.HeaderStore, _ string) (ftmgmt.Value, error) {
	return ftmgmt.StringValue(filename.Split(path).Filename), nil
}

// Compression returns the compression suffix (".fz"), or null for plain files.
func Compression(path string, _ ftmgmt.HeaderStore, _ string) (ftmgmt.Value, error) {
	c := filename.Split(path).Compression
	if c == "" {
		return ftmgmt.Value{}, nil
	}
	return ftmgmt.StringValue(c), nil
}

// Band returns the last character of the upper-cased filter name.
func Band(_ string, hdr ftmgmt.HeaderStore, unit string) (ftmgmt.Value, error) {
	v, err := firstValue(hdr, unit, filterKeys)
	if err != nil {
		return ftmgmt.Value{}, err
	}
	f := strings.ToUpper(strings.TrimSpace(v.String()))
	if f == "" {
		return ftmgmt.Value{}, fmt.Errorf("%w: empty filter", ftmgmt.ErrNotDerivable)
	}
	return ftmgmt.StringValue(f[len(f)-1:]), nil
}

// Nite returns the observing night of DATE-OBS as YYYYMMDD. Nights roll over
// at local noon, approximated by shifting the UT timestamp back 12 hours.
func Nite(_ string, hdr ftmgmt.HeaderStore, unit string) (ftmgmt.Value, error) {
	v, err := firstValue(hdr, unit, dateObsKeys)
	if err != nil {
		return ftmgmt.Value{}, err
	}
	s := strings.TrimSpace(v.String())
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ftmgmt.StringValue(t.Add(-12 * time.Hour).Format("20060102")), nil
		}
	}
	return ftmgmt.Value{}, fmt.Errorf("%w: unparseable DATE-OBS %q", ftmgmt.ErrNotDerivable, s)
}

// Pointing returns the truncated MJD counted from PointingEpochMJD.
func Pointing(_ string, hdr ftmgmt.HeaderStore, unit string) (ftmgmt.Value, error) {
	v, err := hdr.Value(unit, "MJD")
	if err != nil {
		return ftmgmt.Value{}, err
	}
	mjd, ok := v.Float()
	if !ok || math.IsNaN(mjd) {
		return ftmgmt.Value{}, fmt.Errorf("%w: MJD %q is not numeric", ftmgmt.ErrNotDerivable, v.String())
	}
	return ftmgmt.IntValue(int64(mjd) - PointingEpochMJD), nil
}

// Field returns OBJECT upper-cased with non-word characters replaced by '_'.
// A bare "#" means the object is unknown.
func Field(_ string, hdr ftmgmt.HeaderStore, unit string) (ftmgmt.Value, error) {
	v, err := hdr.Value(unit, "OBJECT")
	if err != nil {
		return ftmgmt.Value{}, err
	}
	return ftmgmt.StringValue(TranslateField(v.String())), nil
}

// TranslateField sanitises an object name for use in paths.
func TranslateField(object string) string {
	if object == "#" {
		object = "UNKNOWN"
	}
	return strings.ToUpper(nonWord.ReplaceAllString(object, "_"))
}

func firstValue(hdr ftmgmt.HeaderStore, unit string, keys []string) (ftmgmt.Value, error) {
	var lastErr error
	for _, k := range keys {
		v, err := hdr.Value(unit, k)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return ftmgmt.Value{}, lastErr
}
