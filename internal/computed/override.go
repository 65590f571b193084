package computed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vvka-141/ftmgmt/internal/policy"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Compound splits a composite header value into named fields. With
//
//	override: {func: compound, key: CALIB_ID, fields: [filter, calibDate, ccd], consts: {camsym: H}}
//
// a card CALIB_ID = 'filter=HSC-R calibDate=2020-01-01 ccd=42' yields
// filter, calibDate and ccd in whatever order they appear, plus camsym.
// spec.Pattern may replace the default "<field>=(\S+)" matcher; it must
// contain one %s for the quoted field name and one capture group.
//
// Constants are always returned. Fields absent from the value are reported
// in the error alongside the partial result.
func Compound(hdr ftmgmt.HeaderStore, unit string, spec *policy.Override) (map[string]ftmgmt.Value, error) {
	out := make(map[string]ftmgmt.Value, len(spec.Fields)+len(spec.Consts))
	for _, c := range spec.Consts {
		out[c.Name] = c.Value
	}
	if spec.Key == "" || len(spec.Fields) == 0 {
		return out, nil
	}

	raw, err := hdr.Value(unit, spec.Key)
	if err != nil {
		return out, err
	}
	text := raw.String()

	layout := `(?:^|\s)%s=(\S+)`
	if spec.Pattern != "" {
		layout = spec.Pattern
	}

	var missing []string
	for _, field := range spec.Fields {
		re, err := regexp.Compile(fmt.Sprintf(layout, regexp.QuoteMeta(field)))
		if err != nil {
			return out, fmt.Errorf("%w: override pattern for %s: %v", ftmgmt.ErrInvalidConfig, field, err)
		}
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			missing = append(missing, field)
			continue
		}
		out[field] = ftmgmt.StringValue(m[1])
	}
	if len(missing) > 0 {
		return out, fmt.Errorf("%w: %s %q has no %s", ftmgmt.ErrNotDerivable, spec.Key, text, strings.Join(missing, ", "))
	}
	return out, nil
}
