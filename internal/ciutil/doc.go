// Package ciutil detects CI environments and resolves environment variables
// used by the test suites, most notably the integration test database URL.
package ciutil
