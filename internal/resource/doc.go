// Package resource bounds what a search may consume.
//
// A Controller tracks three budgets:
//
//   - Memory: bytes held by block caches (non-blocking, fail-fast)
//   - Loads: concurrent document loads during verification (semaphore)
//   - IO: document bytes read per second (token bucket)
//
// A nil *Controller imposes no limits, so callers never need to check.
package resource
