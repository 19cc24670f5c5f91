// Package metrics provides constants used across metric definitions.
package metrics

// Operation type constants used as label values across metrics.
const (
	// OpFetch is an upstream export download.
	OpFetch = "fetch"
	// OpReplace is a full table replacement.
	OpReplace = "replace"
	// OpDbQuery represents database query operations.
	OpDbQuery = "db_query"
	// OpDbInsert represents database insert operations.
	OpDbInsert = "db_insert"
	// OpDbUpdate represents database update operations.
	OpDbUpdate = "db_update"
	// OpDbDelete represents database delete operations.
	OpDbDelete = "db_delete"
	// OpUpsert is a metric upsert.
	OpUpsert = "upsert"
	// OpPurge deletes DATA_COLLECTION sessions and their specimens.
	OpPurge = "purge"
	// OpTransaction represents database transaction operations.
	OpTransaction = "transaction"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketStart1KB is the starting bucket for 1KB histograms (1KB to ~1GB range).
	BucketStart1KB = 1024.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketFactor4 grows size histograms faster.
	BucketFactor4 = 4

	// BucketCount10 is the number of buckets for 10-bucket histograms.
	BucketCount10 = 10
	// BucketCount12 is the number of buckets for 12-bucket histograms.
	BucketCount12 = 12
	// BucketCount15 is the number of buckets for 15-bucket histograms.
	BucketCount15 = 15
)
