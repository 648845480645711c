package store

// Config holds configuration for the Store.
type Config struct {
	// Collection is the DynamoDB table documents are written to. Its key schema must be
	// a single string hash key named "id".
	// Default: "documents"
	Collection string

	// MaxItemCount is the page size used by Read when the caller does not set one.
	// Default: 100
	// Max: 1000
	MaxItemCount int32

	// MaxBatchSize bounds the number of items accepted by one batch call.
	// Larger batches fail as a whole with a single BadRequest envelope.
	// Default: 1000
	MaxBatchSize int

	// BatchConcurrency limits how many batch items run at once.
	// Default: 0 (every item is started immediately)
	BatchConcurrency int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Collection:   "documents",
		MaxItemCount: 100,
		MaxBatchSize: 1000,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Collection == "" {
		c.Collection = "documents"
	}
	if c.MaxItemCount < 1 {
		c.MaxItemCount = 100
	}
	if c.MaxItemCount > 1000 {
		c.MaxItemCount = 1000
	}
	if c.MaxBatchSize < 1 {
		c.MaxBatchSize = 1000
	}
	if c.BatchConcurrency < 0 {
		c.BatchConcurrency = 0
	}
}
