// Package traverse implements parallel graph traversal over any read-only
// adjacency source, in particular the zero-copy graph.View and the mutable
// graph.Graph.
//
// All algorithms address nodes by array position (0..NodeCount), share an
// atomic test-and-set visited bit-vector, and guarantee that the visited set
// and component count are independent of worker count and scheduling. Visit
// order is not guaranteed. There is no in-flight cancellation; callers that
// need bounded work must traverse a smaller source.
package traverse
