// Package speech turns vocabulary text into audible pronunciation.
//
// The pipeline is cache-first: decoded clips live in an in-memory
// cache for the process lifetime, misses are fetched from a remote
// generator with bounded retries, and any unrecoverable failure
// degrades to a local fallback voice instead of an error.
package speech
