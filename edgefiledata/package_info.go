// Package edgefiledata provides a SharedStateProvider that reads the configuration and
// identity states from a local file, for hosts that have no shared-state mechanism of their
// own and for test fixtures. It can be combined with the edgefilewatch package for automatic
// reloading; the two packages are separate so as to avoid bringing the file-watching
// dependency to users who do not need it.
package edgefiledata
