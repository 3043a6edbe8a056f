// File: signature.go
// Role: Call-graph-extended MD-index support — aggregates the immediate
// callees' entry-block signatures of a function, for use with
// flowgraph.FlowGraph.ExtendedMDIndex.
package callgraph

// CalleeExtension sums the entry-block (in-degree + out-degree) of every
// immediate callee of caller, giving the "immediate callees' entry
// signatures" contribution spec §4.1 names for the call-graph-extended
// MD-index. A function with no callees (a leaf) contributes 0, so its
// extended MD-index equals its plain MD-index.
//
// Complexity: O(callees(caller)).
func (c *CallGraph) CalleeExtension(caller FuncID) (float64, error) {
	var total float64
	for _, calleeID := range c.Callees(caller) {
		callee, err := c.Function(calleeID)
		if err != nil {
			return 0, err
		}
		entry, err := callee.Entry()
		if err != nil {
			// A callee with no entry set contributes nothing rather than
			// failing the whole comparison over one malformed callee.
			continue
		}
		total += float64(callee.InDegree(entry) + callee.OutDegree(entry))
	}

	return total, nil
}
