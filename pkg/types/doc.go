// Package types defines the Store and Collection interfaces, the record and
// snapshot types, and the standard errors for the coffer record store.
package types
