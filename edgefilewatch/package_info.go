// Package edgefilewatch allows the file-backed shared-state provider to reload its source
// file whenever it has been modified. It should be used in conjunction with the edgefiledata
// package.
package edgefilewatch
