package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vvka-141/ftmgmt/internal/config"
	"github.com/vvka-141/ftmgmt/internal/db"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Driver names accepted in store.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Defaults for the archive table holding ingested filenames.
const (
	DefaultDriver = DriverPostgres
	DefaultTable  = ftmgmt.DefaultIngestTable
	DefaultColumn = ftmgmt.DefaultIngestColumn
)

// Config selects and addresses an existence store.
type Config struct {
	Driver string
	DSN    string
	Table  string
	Column string

	// Auth, AWSRegion and GoogleInstance select cloud IAM authentication
	// for the postgres driver (see db.Options).
	Auth           string
	AWSRegion      string
	GoogleInstance string

	// Names seeds the memory driver (store.names: a list, or one
	// comma separated string).
	Names []string
}

// identifier accepts plain or schema-qualified SQL names.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ConfigFromStore reads the store section of the configuration document,
// filling in defaults for absent keys.
func ConfigFromStore(cfg *config.Store) Config {
	return Config{
		Driver: cfg.StringOr("store.driver", DefaultDriver),
		DSN:    cfg.StringOr("store.dsn", ""),
		Table:  cfg.StringOr("store.table", DefaultTable),
		Column: cfg.StringOr("store.column", DefaultColumn),

		Auth:           cfg.StringOr("store.auth", db.AuthPassword),
		AWSRegion:      cfg.StringOr("store.aws_region", ""),
		GoogleInstance: cfg.StringOr("store.google_instance", ""),

		Names: configNames(cfg),
	}
}

func configNames(cfg *config.Store) []string {
	v, err := cfg.Lookup("store.names")
	if err != nil || v == nil {
		return nil
	}
	var names []string
	switch v := v.(type) {
	case []any:
		for _, item := range v {
			names = append(names, fmt.Sprint(item))
		}
	default:
		for _, item := range strings.Split(fmt.Sprint(v), ",") {
			if item = strings.TrimSpace(item); item != "" {
				names = append(names, item)
			}
		}
	}
	return names
}

// Validate checks the driver name and the table and column identifiers.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown store driver %q (expected postgres, sqlite or memory)", ftmgmt.ErrInvalidConfig, c.Driver)
	}
	if c.Driver == DriverMemory {
		return nil
	}
	if !identifier.MatchString(c.Table) {
		return fmt.Errorf("%w: invalid store table name %q", ftmgmt.ErrInvalidConfig, c.Table)
	}
	if !identifier.MatchString(c.Column) {
		return fmt.Errorf("%w: invalid store column name %q", ftmgmt.ErrInvalidConfig, c.Column)
	}
	return nil
}

// Open connects the store named by cfg.Driver. For postgres, an empty DSN
// falls back to DATABASE_URL and the PG* environment variables.
func Open(ctx context.Context, cfg Config, logger ftmgmt.Logger) (ftmgmt.ExistenceStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("%w: store.dsn must name the sqlite database file", ftmgmt.ErrInvalidConfig)
		}
		return OpenSQLite(ctx, cfg.DSN, cfg.Table, cfg.Column)
	case DriverMemory:
		return NewMemory(cfg.Names...), nil
	}

	dsn, err := db.ResolveDSN("", cfg.DSN, db.LoadFromEnvironment())
	if err != nil {
		return nil, err
	}
	opts := db.Options{Auth: cfg.Auth, AWSRegion: cfg.AWSRegion, GoogleInstance: cfg.GoogleInstance}
	pool, err := db.Connect(ctx, dsn, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ftmgmt.ErrStoreUnavailable, err)
	}
	return NewPostgres(pool, cfg.Table, cfg.Column, logger), nil
}

// quoteIdent double-quotes each dotted part of a validated identifier.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, ".")
}
