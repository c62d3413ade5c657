package state

// Pair is a generic 2-tuple.
type Pair[T1 any, T2 any] struct {
	V1 T1
	V2 T2
}
