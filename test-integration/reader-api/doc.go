// Package integration provides integration tests for the reader API server.
// These tests run the complete server lifecycle against file, url and git
// source lists and a fake rule engine reached over HTTP.
package integration
