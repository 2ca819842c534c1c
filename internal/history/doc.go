// Package history provides a queryable summary of past runs.
//
// It currently supports:
//   - One row per invocation (scheduled or interactive)
//   - A file (JSONL) and a sqlite backend
//
// The per-run log file remains the authoritative record; history only
// answers "what ran lately and how did it end".
package history
