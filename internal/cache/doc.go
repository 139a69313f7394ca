// Package cache provides file-based caching with per-category TTL expiration
// for data fetched from the trending listing and the GitHub metadata tool.
//
// Key features:
//   - One JSON record per key under <dir>/<category>/<blake3(key)>.json
//   - Atomic writes (temp file in the same directory, fsync, rename)
//   - Per-category TTLs (trending 1h, repository metadata 24h, issues 30m)
//   - Corrupt or truncated records are removed on read and reported as misses
//   - Optional zstd compression for large payloads
//
// The cache never decides whether to refetch; that belongs to the fetch
// package, which consults Policy.IsFresh before touching any upstream.
package cache
