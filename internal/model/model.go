// Package model contains the case graph, the closed enumerations the Gate
// validates against, and the wire envelope shared by the service and HTTP layers.
// It holds no I/O and no locking; ownership rules are documented per type.
package model

// ID is an opaque object identifier.
type ID = string

// set builds a membership map for a closed enumeration.
func set[T ~string](values ...T) map[T]struct{} {
	out := make(map[T]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
