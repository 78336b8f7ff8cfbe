// Package sources retrieves book source lists from the places they are
// published.
//
// The package defines the SourceHandler interface, which abstracts validating
// one configured list and fetching its definitions. Handlers return a
// FetchResult carrying the parsed definitions together with a SHA256 hash of
// the raw document, which the sync manager uses to detect changes.
//
// Current implementations:
//   - file: reads a list from the local filesystem
//   - url: downloads a list over HTTP(S), retrying transient failures
//   - git: reads a list from a Git repository cloned in memory, at a branch,
//     tag or commit
//
// Lists may be written as JSON or HuJSON, and contain either an array of
// definitions or a single definition object.
package sources
