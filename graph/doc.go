// Package graph provides a mutable directed graph with typed, weighted
// edges and variable payloads, a binary serializer/deserializer for it, and
// a zero-copy read-only view over an mmap'd graph file.
//
// Quick start:
//
//	g := graph.New(1024, 8192)
//	g.AddNode(0, 1, 0, nil)
//	g.AddNode(1, 1, 0, []byte("payload"))
//	g.AddEdge(0, 1, 7, 0.5, nil)
//	g.SaveToAtomic("graph.emap", graph.WithChecksum)
//
//	v, _ := graph.OpenView("graph.emap", 0)
//	defer v.Close()
//	v.ForEachNeighbor(0, func(t uint64) bool { ...; return true })
package graph
