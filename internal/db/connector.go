package db

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/ftmgmt/internal/retry"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Connection pool configuration
const (
	// DefaultMaxConns bounds concurrent existence queries.
	DefaultMaxConns = 4

	DefaultMinConns = 0

	DefaultMaxConnIdleTime = 5 * time.Minute

	// DefaultConnectAttempts is the number of connection retries.
	DefaultConnectAttempts = 3

	// tokenExpiryWarning triggers a warning for tokens about to lapse.
	tokenExpiryWarning = 5 * time.Minute
)

// Authentication methods accepted in store.auth.
const (
	AuthPassword = "password"
	AuthAWS      = "aws"
	AuthAzure    = "azure"
	AuthGoogle   = "google"
)

// Options selects how Connect authenticates.
type Options struct {
	// Auth is one of AuthPassword (default), AuthAWS, AuthAzure, AuthGoogle.
	Auth string

	// AWSRegion is required for AuthAWS; $AWS_REGION is used when empty.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name
	// (project:region:instance), required for AuthGoogle.
	GoogleInstance string
}

// Pool is a connection pool plus the dialer resources it holds.
type Pool struct {
	*pgxpool.Pool
	dialer *cloudsqlconn.Dialer
}

// Close closes the pool, then the Cloud SQL dialer if one is in use.
func (p *Pool) Close() {
	p.Pool.Close()
	if p.dialer != nil {
		_ = p.dialer.Close()
	}
}

// Connect opens a pool for dsn and pings it, retrying transient failures.
func Connect(ctx context.Context, dsn string, opts Options, logger ftmgmt.Logger) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse connection string: %v", ftmgmt.ErrInvalidConfig, err)
	}
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime

	cc := poolConfig.ConnConfig
	host, port, database := cc.Host, int(cc.Port), cc.Database

	var dialer *cloudsqlconn.Dialer
	switch opts.Auth {
	case "", AuthPassword:
	case AuthAWS:
		region := opts.AWSRegion
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		provider, err := NewAWSIAMTokenProvider(fmt.Sprintf("%s:%d", host, port), region, cc.User)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ftmgmt.ErrInvalidConfig, err)
		}
		useTokenProvider(poolConfig, provider, logger)
	case AuthAzure:
		provider, err := NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ftmgmt.ErrInvalidConfig, err)
		}
		useTokenProvider(poolConfig, provider, logger)
	case AuthGoogle:
		if opts.GoogleInstance == "" {
			return nil, fmt.Errorf("%w: Google Cloud SQL auth requires store.google_instance (project:region:instance)", ftmgmt.ErrInvalidConfig)
		}
		dialer, err = cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
		if err != nil {
			return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
		}
		instance := opts.GoogleInstance
		cc.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, instance)
		}
		host = instance
	default:
		return nil, fmt.Errorf("%w: unknown store auth %q (expected password, aws, azure or google)", ftmgmt.ErrInvalidConfig, opts.Auth)
	}

	executor := retry.NewExecutor(retry.NewStoreErrorClassifier(), retry.NewExponentialBackoff(DefaultConnectAttempts)).
		WithLogger(logger, fmt.Sprintf("connect to %s:%d", host, port))

	pool, err := retry.Do(ctx, executor, func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, wrapConnectionError(err, host, port, database)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, wrapConnectionError(err, host, port, database)
		}
		return pool, nil
	})
	if err != nil {
		if dialer != nil {
			_ = dialer.Close()
		}
		return nil, err
	}
	return &Pool{Pool: pool, dialer: dialer}, nil
}

// useTokenProvider fetches a fresh token as the password of every new
// connection, so pools outlive individual tokens.
func useTokenProvider(poolConfig *pgxpool.Config, provider TokenProvider, logger ftmgmt.Logger) {
	logger.Verbose("Authenticating with %s", provider)
	poolConfig.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
		token, expiresOn, err := provider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire token from %s: %w", provider, err)
		}
		if left := time.Until(expiresOn); left < tokenExpiryWarning {
			logger.Info("WARN: %s token expires in %v", provider, left.Round(time.Second))
		}
		cc.Password = token
		return nil
	}
}

// wrapConnectionError adds actionable guidance to raw pgx connection errors.
// The original error stays in the chain for retry classification.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port in --dsn or store.dsn

Original error: %w`, addr, host, port, err)

	case strings.Contains(errStr, "no such host"):
		return fmt.Errorf(`cannot resolve host "%s"

Original error: %w`, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username
  - Expired or mis-scoped token when store.auth is aws, azure or google

Original error: %w`, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

Original error: %w`, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Original error: %w`, addr, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}
