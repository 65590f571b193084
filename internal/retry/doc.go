// Package retry retries existence-store queries that fail for transient
// reasons, with exponential backoff between attempts.
//
// # Example Usage
//
//	executor := retry.NewExecutor(retry.NewStoreErrorClassifier(), retry.NewExponentialBackoff(3))
//
//	found, err := retry.Do(ctx, executor, func(ctx context.Context) (map[string]bool, error) {
//	    return queryBatch(ctx, names)
//	})
//
// # Error Classification
//
// StoreErrorClassifier treats PostgreSQL connection, resource and operator
// intervention errors, SQLite busy and locked errors, and temporary network
// failures as transient. Everything else fails immediately.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. WithOnRetry returns a new
// Executor and leaves the receiver unchanged.
package retry
