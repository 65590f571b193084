package resolve

import (
	"fmt"
	"strings"

	"github.com/vvka-141/ftmgmt/internal/policy"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Step is one field resolution attempt.
type Step struct {
	Unit    *policy.Unit
	Section string
	Kind    ftmgmt.SourceKind
	Source  policy.FieldSource
}

func (s Step) String() string {
	src := s.Source.Key
	if s.Kind == ftmgmt.CopyFromUnit {
		src = s.Source.Unit + "." + s.Source.Key
	}
	return fmt.Sprintf("%s/%s %s %s <- %s", s.Unit.Name, s.Section, s.Kind.Code(), s.Source.Field, src)
}

// Plan lists the steps of a file type in execution order.
func Plan(ft *policy.FileType) []Step {
	var steps []Step
	for _, unit := range ft.Units {
		for _, sect := range unit.Sections {
			for _, g := range sect.Groups {
				for _, fs := range g.Fields {
					steps = append(steps, Step{Unit: unit, Section: sect.Name, Kind: g.Kind, Source: fs})
				}
			}
		}
	}
	return steps
}

// DescribePlan renders a plan one step per line.
func DescribePlan(steps []Step) string {
	var sb strings.Builder
	for i, s := range steps {
		fmt.Fprintf(&sb, "%3d  %s\n", i+1, s)
	}
	return sb.String()
}
