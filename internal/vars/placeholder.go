package vars

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder is one ${...} or $opt{...} occurrence in a template.
type Placeholder struct {
	Raw      string // Full text, e.g. "${ccd:3}"
	Name     string // Variable name or dotted path
	Width    int    // Zero-pad width, 0 when not requested
	Optional bool   // $opt{...}
	StartPos int    // Byte offset in template (inclusive)
	EndPos   int    // Byte offset in template (exclusive)
}

var (
	placeholderPattern = regexp.MustCompile(`\$(opt)?\{([^{}]+)\}`)
	parensPattern      = regexp.MustCompile(`\$(opt)?\(([^()]+)\)`)
	widthPattern       = regexp.MustCompile(`^(.+):(\d+)$`)
)

// Detect finds all placeholders in template, in order of appearance.
func Detect(template string) []Placeholder {
	matches := placeholderPattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return nil
	}

	out := make([]Placeholder, 0, len(matches))
	for _, m := range matches {
		// m[2:4] = "opt" marker, m[4:6] = body
		p := Placeholder{
			Raw:      template[m[0]:m[1]],
			Optional: m[2] >= 0,
			StartPos: m[0],
			EndPos:   m[1],
		}
		body := strings.TrimSpace(template[m[4]:m[5]])
		if wm := widthPattern.FindStringSubmatch(body); wm != nil {
			body = strings.TrimSpace(wm[1])
			p.Width, _ = strconv.Atoi(wm[2])
		}
		p.Name = body
		out = append(out, p)
	}
	return out
}

// HasPlaceholders reports whether s contains any placeholder.
func HasPlaceholders(s string) bool {
	return placeholderPattern.MatchString(s)
}

// Names returns the distinct placeholder names of template in order.
func Names(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range Detect(template) {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	return names
}

// ParensToBraces rewrites command-template $(name) syntax to ${name}.
func ParensToBraces(s string) string {
	return parensPattern.ReplaceAllString(s, `$$${1}{${2}}`)
}
