package resolve

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vvka-141/ftmgmt/internal/computed"
	"github.com/vvka-141/ftmgmt/internal/filename"
	"github.com/vvka-141/ftmgmt/internal/policy"
	"github.com/vvka-141/ftmgmt/internal/vars"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Engine resolves metadata records. It is read-only after construction and
// safe for concurrent use; every Resolve call builds its own buffers.
type Engine struct {
	model    *policy.Model
	opener   ftmgmt.HeaderOpener
	resolver *vars.Resolver
	registry *computed.Registry
	logger   ftmgmt.Logger

	plans sync.Map // file type id -> []Step
}

// New creates an Engine. cfg may be nil when no policy uses config fields;
// a nil registry means computed.Default().
func New(model *policy.Model, opener ftmgmt.HeaderOpener, cfg ftmgmt.ConfigStore,
	registry *computed.Registry, logger ftmgmt.Logger) *Engine {
	if registry == nil {
		registry = computed.Default()
	}
	return &Engine{
		model:    model,
		opener:   opener,
		resolver: vars.NewResolver(cfg),
		registry: registry,
		logger:   logger,
	}
}

// Plan returns the cached execution plan for fileType.
func (e *Engine) Plan(fileType string) ([]Step, error) {
	ft, err := e.model.FileType(fileType)
	if err != nil {
		return nil, err
	}
	if cached, ok := e.plans.Load(ft.ID); ok {
		return cached.([]Step), nil
	}
	steps := Plan(ft)
	e.plans.Store(ft.ID, steps)
	return steps, nil
}

// Resolve builds the metadata record of the file at path.
func (e *Engine) Resolve(ctx context.Context, path, fileType string) (*ftmgmt.Record, *ftmgmt.ProvenanceRecord, error) {
	ft, err := e.model.FileType(fileType)
	if err != nil {
		return nil, nil, err
	}
	steps, err := e.Plan(ft.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	hdr, err := e.opener.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer hdr.Close()

	e.logger.Verbose("Resolving %s as %s (%d steps)", path, ft.ID, len(steps))

	r := &resolution{
		engine: e,
		path:   path,
		hdr:    hdr,
		name:   filename.Parse(path, ft.FilenamePattern),
		caches: make(map[string]map[string]ftmgmt.Value),
		rec:    ftmgmt.NewRecord(),
		prov:   ftmgmt.NewProvenanceRecord(),
	}
	if ft.FilenamePattern != nil && !r.name.Matched {
		e.logger.Verbose("%s does not match filename_pattern of %s", path, ft.ID)
	}

	var lastUnit *policy.Unit
	for _, step := range steps {
		if step.Unit != lastUnit {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			lastUnit = step.Unit
		}
		r.apply(step)
	}
	return r.rec, r.prov, nil
}

// stepFunc produces a value for one step; ok is false when the source has none.
type stepFunc func(r *resolution, s Step) (v ftmgmt.Value, p ftmgmt.Provenance, ok bool)

var stepFuncs = map[ftmgmt.SourceKind]stepFunc{
	ftmgmt.FromFilename: (*resolution).fromFilename,
	ftmgmt.FromConfig:   (*resolution).fromConfig,
	ftmgmt.FromHeader:   (*resolution).fromHeader,
	ftmgmt.Computed:     (*resolution).fromComputed,
	ftmgmt.CopyFromUnit: (*resolution).fromOtherUnit,
}

// resolution is the per-file state of one Resolve call.
type resolution struct {
	engine *Engine
	path   string
	hdr    ftmgmt.HeaderStore
	name   *filename.Info
	caches map[string]map[string]ftmgmt.Value
	rec    *ftmgmt.Record
	prov   *ftmgmt.ProvenanceRecord
}

func (r *resolution) apply(s Step) {
	fn, ok := stepFuncs[s.Kind]
	if !ok {
		return
	}
	v, p, ok := fn(r, s)
	if !ok {
		return
	}
	p.Source = s.Kind
	if p.Type == ftmgmt.KindNull {
		p.Type = v.Kind()
	}
	r.rec.Set(s.Source.Field, v)
	r.prov.Set(s.Source.Field, p)
}

func (r *resolution) fromFilename(s Step) (ftmgmt.Value, ftmgmt.Provenance, bool) {
	v, ok := r.name.Value(s.Source.Key)
	if !ok {
		r.engine.logger.Verbose("No %s in filename of %s", s.Source.Key, r.path)
		return v, ftmgmt.Provenance{}, false
	}
	return v, ftmgmt.Provenance{Key: s.Source.Key}, true
}

func (r *resolution) fromConfig(s Step) (ftmgmt.Value, ftmgmt.Provenance, bool) {
	v, err := r.engine.resolver.Value(s.Source.Key, nil)
	if err == nil && v.Kind() == ftmgmt.KindString && vars.HasPlaceholders(v.String()) {
		var text string
		text, err = r.engine.resolver.ReplaceSingle(v.String(), vars.DefaultOptions())
		v = ftmgmt.StringValue(text)
	}
	if err != nil {
		r.engine.logger.Verbose("Config value %s for field %s unavailable: %v", s.Source.Key, s.Source.Field, err)
		return ftmgmt.Value{}, ftmgmt.Provenance{}, false
	}
	return v, ftmgmt.Provenance{Key: s.Source.Key}, true
}

func (r *resolution) fromHeader(s Step) (ftmgmt.Value, ftmgmt.Provenance, bool) {
	if v, ok := r.cached(s.Unit, s.Source.Field); ok {
		return v, ftmgmt.Provenance{Unit: s.Unit.Name, Key: s.Unit.Override.Key}, true
	}
	return r.headerValue(s.Unit.Name, s.Source)
}

func (r *resolution) fromOtherUnit(s Step) (ftmgmt.Value, ftmgmt.Provenance, bool) {
	return r.headerValue(s.Source.Unit, s.Source)
}

func (r *resolution) headerValue(unit string, fs policy.FieldSource) (ftmgmt.Value, ftmgmt.Provenance, bool) {
	v, err := r.hdr.Value(unit, fs.Key)
	if err != nil {
		r.engine.logger.Verbose("Didn't find key %s in %s header of file %s", fs.Key, unit, r.path)
		return v, ftmgmt.Provenance{}, false
	}
	p := ftmgmt.Provenance{Unit: unit, Key: fs.Key}
	if extra, err := r.hdr.Extra(unit, fs.Key); err == nil {
		p.Type = extra.Type
		p.Width = extra.Width
		p.Comment = extra.Comment
	}
	return v, p, true
}

func (r *resolution) fromComputed(s Step) (ftmgmt.Value, ftmgmt.Provenance, bool) {
	if v, ok := r.cached(s.Unit, s.Source.Field); ok {
		return v, ftmgmt.Provenance{Unit: s.Unit.Name, Key: s.Unit.Override.Func}, true
	}

	logger := r.engine.logger
	fn, ok := r.engine.registry.Func(s.Source.Key)
	if !ok {
		logger.Info("WARN: no computed function %q for field %s", s.Source.Key, s.Source.Field)
		return ftmgmt.Value{}, ftmgmt.Provenance{}, false
	}
	v, err := fn(r.path, r.hdr, s.Unit.Name)
	if err != nil {
		if errors.Is(err, ftmgmt.ErrNotDerivable) || errors.Is(err, ftmgmt.ErrKeyNotFound) ||
			errors.Is(err, ftmgmt.ErrUnitNotFound) {
			logger.Verbose("Couldn't create value for key %s in %s header of file %s: %v",
				s.Source.Field, s.Unit.Name, r.path, err)
		} else {
			logger.Info("WARN: computed function %s failed for %s: %v", s.Source.Key, r.path, err)
		}
		return ftmgmt.Value{}, ftmgmt.Provenance{}, false
	}
	return v, ftmgmt.Provenance{Unit: s.Unit.Name, Key: s.Source.Key}, true
}

// cached consults the unit's override values, building them on first use.
func (r *resolution) cached(unit *policy.Unit, field string) (ftmgmt.Value, bool) {
	if unit.Override == nil {
		return ftmgmt.Value{}, false
	}
	cache, built := r.caches[unit.Name]
	if !built {
		cache = r.buildCache(unit)
		r.caches[unit.Name] = cache
	}
	v, ok := cache[strings.ToLower(field)]
	return v, ok
}

func (r *resolution) buildCache(unit *policy.Unit) map[string]ftmgmt.Value {
	logger := r.engine.logger
	fn, ok := r.engine.registry.Override(unit.Override.Func)
	if !ok {
		logger.Info("WARN: no override function %q for unit %s", unit.Override.Func, unit.Name)
		return map[string]ftmgmt.Value{}
	}
	vals, err := fn(r.hdr, unit.Name, unit.Override)
	if err != nil {
		logger.Info("WARN: override %s for %s of %s: %v", unit.Override.Func, unit.Name, r.path, err)
	}
	// Keys are folded to lower case; on a case-only clash the
	// lexically greatest original key wins.
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cache := make(map[string]ftmgmt.Value, len(vals))
	for _, k := range keys {
		cache[strings.ToLower(k)] = vals[k]
	}
	return cache
}
