// Package config holds the process-wide configuration for the buffer pool
// and the B+ tree indexes it backs.
package config

// AppConfig aggregates every sub-configuration the process needs. Mirrors
// the shape of a typical top-level config object: one struct per
// subsystem, assembled by New.
type AppConfig struct {
	BufferPool *BufferPoolConfig
	Tree       *TreeConfig
}

func New() *AppConfig {
	return &AppConfig{
		BufferPool: NewBufferPoolConfig(),
		Tree:       NewTreeConfig(),
	}
}

// BufferPoolConfig configures the Page Store.
type BufferPoolConfig struct {
	// PoolSize is the number of page frames the buffer pool holds
	// resident at once.
	PoolSize int

	// PageSize is the fixed size, in bytes, of every page in the pool.
	PageSize int
}

func NewBufferPoolConfig() *BufferPoolConfig {
	return &BufferPoolConfig{
		PoolSize: 128,
		PageSize: 4096,
	}
}

// TreeConfig configures node capacity for a B+ tree opened against a
// buffer pool.
type TreeConfig struct {
	LeafMaxSize     int
	InternalMaxSize int
}

func NewTreeConfig() *TreeConfig {
	return &TreeConfig{
		LeafMaxSize:     leafMaxSizeDefault,
		InternalMaxSize: internalMaxSizeDefault,
	}
}

const (
	leafMaxSizeDefault     = 128
	internalMaxSizeDefault = 128
)
