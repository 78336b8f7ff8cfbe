// Package sync loads configured book source lists into the registry.
//
// The Manager fetches every configured list concurrently, keeps the last good
// content of a list whose fetch failed, merges the lists in configuration
// order and publishes the result with booksource.Registry.Replace. A code that
// appears in more than one list takes the content of the later list and keeps
// the position of its first appearance.
//
// A new snapshot is published only when the combined hash of the lists
// changed, so an unchanged upstream never bumps the registry generation. The
// first run always publishes, even with no lists configured, which marks the
// registry as loaded.
//
// The coordinator subpackage runs the manager on a schedule.
package sync
