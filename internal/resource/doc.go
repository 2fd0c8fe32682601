// Package resource implements the resource Controller that bounds distance
// cache growth and persistence bandwidth.
//
// The Controller manages two resource types:
//
//   - Memory: Track and limit bytes held by cache entries (non-blocking, fail-fast)
//   - IO: Rate-limit cache persistence so large dumps do not saturate disks or links
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic counters
// for usage tracking. AcquireMemory is non-blocking and returns immediately
// with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(entryBytes); err != nil {
//	    // ErrMemoryLimitExceeded - the entry is not stored
//	}
//
// # IO Rate Limiting
//
// Token bucket rate limiter for persistence IO:
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//
//	writer := resource.NewRateLimitedWriter(ctx, file, rc)
//	reader := resource.NewRateLimitedReader(ctx, file, rc)
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
