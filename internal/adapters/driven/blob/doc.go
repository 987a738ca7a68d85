// Package blob stores raw uploaded files on the local filesystem.
package blob
