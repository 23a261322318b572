// Package snapshot implements the persistence codecs that map an element
// collection to a durable string and back.
package snapshot
