package cmdline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vvka-141/ftmgmt/internal/files/filesystem"
	"github.com/vvka-141/ftmgmt/internal/listfile"
	"github.com/vvka-141/ftmgmt/internal/vars"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// ListSource yields the records of a named list section.
type ListSource interface {
	Records(ctx context.Context, list string) ([]*listfile.Record, error)
}

// ConfigLists reads list sections of the form
//
//	list:
//	  visits: {fullname: /lists/visits.csv, format: textcsv, columns: "visit,filter"}
//
// and loads the named file. fullname may contain variables.
type ConfigLists struct {
	cfg      ftmgmt.ConfigStore
	fs       filesystem.Provider
	resolver *vars.Resolver
}

// NewConfigLists creates a list source over cfg reading files through fs.
func NewConfigLists(cfg ftmgmt.ConfigStore, fs filesystem.Provider) *ConfigLists {
	return &ConfigLists{cfg: cfg, fs: fs, resolver: vars.NewResolver(cfg)}
}

func (c *ConfigLists) Records(ctx context.Context, list string) ([]*listfile.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	section := "list." + list

	raw, err := c.cfg.Lookup(section + ".fullname")
	if errors.Is(err, ftmgmt.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s has no fullname", ftmgmt.ErrListNotFound, section)
	}
	if err != nil {
		return nil, err
	}
	fullname, err := c.resolver.ReplaceSingle(fmt.Sprint(raw), vars.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("%s.fullname: %w", section, err)
	}
	if !c.fs.Exists(fullname) {
		return nil, fmt.Errorf("%w: %s does not exist", ftmgmt.ErrListNotFound, fullname)
	}

	format := listfile.DefaultFormat
	if v, err := c.cfg.Lookup(section + ".format"); err == nil && v != nil {
		format = fmt.Sprint(v)
	}
	var columns []string
	if v, err := c.cfg.Lookup(section + ".columns"); err == nil {
		columns = columnList(v)
	}

	return listfile.Read(c.fs, fullname, format, columns)
}

// columnList accepts "a,b" as well as a YAML sequence.
func columnList(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, fmt.Sprint(item))
		}
		return listfile.ParseColumns(strings.Join(parts, ","), false)
	default:
		return listfile.ParseColumns(fmt.Sprint(x), false)
	}
}
