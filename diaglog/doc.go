// Package diaglog is the module's only logging surface: a single
// Warnf-shaped interface that pipeline.Driver calls when a step panics or a
// scoring feature degenerates, generalizing the teacher's
// FlowOptions.Verbose + fmt.Printf idiom (flow/edmonds_karp.go,
// flow/ford_fulkerson.go, flow/dinic.go) into something a caller can supply
// or silence.
package diaglog
