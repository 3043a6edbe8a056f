// Package callgraph models the directed graph of functions for one side of
// a binary comparison: vertices are flowgraph.FlowGraphs, edges are call
// sites with multiplicity. See types.go for CallGraph/Metadata and
// signature.go for the call-graph-extended MD-index helper.
package callgraph
