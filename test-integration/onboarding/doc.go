// Package integration provides end-to-end tests for the onboarding server.
// The server runs in-process with in-memory storage against fake NetSuite
// and Glean endpoints.
package integration
