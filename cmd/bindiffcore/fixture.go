// File: fixture.go
// Role: A JSON-fixture ports.ExecutableFactory for local testing and
// demonstration. Real deployments implement ExecutableFactory against a
// disassembler's export format; this one exists so the CLI has something
// concrete to load without a real binary analysis backend.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/instruction"
	"github.com/whicun/bindiff/ports"
)

type fixtureInstruction struct {
	Address  uint64 `json:"address"`
	Mnemonic string `json:"mnemonic"`
	Operands string `json:"operands"`
}

type fixtureBlock struct {
	Instructions []fixtureInstruction `json:"instructions"`
}

type fixtureEdge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Label string `json:"label"`
}

type fixtureCall struct {
	Caller int `json:"caller"`
	Callee int `json:"callee"`
	Count  int `json:"count"`
}

type fixtureFunction struct {
	Name       string         `json:"name"`
	Blocks     []fixtureBlock `json:"blocks"`
	Entry      int            `json:"entry_block"`
	Edges      []fixtureEdge  `json:"edges"`
	Library    bool           `json:"library"`
	Stub       bool           `json:"stub"`
	StringRefs []uint64       `json:"string_refs"`
}

type fixtureFile struct {
	ExecutableID string            `json:"executable_id"`
	Architecture string            `json:"architecture"`
	Functions    []fixtureFunction `json:"functions"`
	Calls        []fixtureCall     `json:"calls"`
}

// JSONFactory loads a fixtureFile from disk into a CallGraph and a fresh
// Instruction Cache scoped to that one executable — the literal shape spec
// §6 describes ("given a path... returns a populated CallGraph and an
// Instruction Cache").
//
// A two-sided comparison needs primary and secondary interned against the
// *same* cache (instruction primes are assigned in first-seen order per
// Cache, per instruction/primes.go, so two independently created caches
// cannot be assumed prime-comparable); main wires that by calling
// loadInto with one shared cache instead of going through Load twice.
type JSONFactory struct{}

func (JSONFactory) Load(_ context.Context, path string) (*callgraph.CallGraph, *instruction.Cache, error) {
	cache := instruction.NewCache()
	cg, err := loadInto(cache, path)
	if err != nil {
		return nil, nil, err
	}

	return cg, cache, nil
}

// loadInto parses the fixture at path into cg, interning every instruction
// against cache rather than a fresh one.
func loadInto(cache *instruction.Cache, path string) (*callgraph.CallGraph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ports.NewLoadError(path, err)
	}

	var fixture fixtureFile
	if err := json.Unmarshal(raw, &fixture); err != nil {
		return nil, ports.NewLoadError(path, err)
	}

	cg := callgraph.New(callgraph.Metadata{
		ExecutableID: fixture.ExecutableID,
		Architecture: fixture.Architecture,
	})

	for _, fn := range fixture.Functions {
		fg, err := buildFlowGraph(cache, fn)
		if err != nil {
			return nil, ports.NewLoadError(path, err)
		}
		cg.AddFunction(fg)
	}

	for _, call := range fixture.Calls {
		if err := cg.AddCallEdge(callgraph.FuncID(call.Caller), callgraph.FuncID(call.Callee), call.Count); err != nil {
			return nil, ports.NewLoadError(path, err)
		}
	}

	return cg, nil
}

func buildFlowGraph(cache *instruction.Cache, fn fixtureFunction) (*flowgraph.FlowGraph, error) {
	fg := flowgraph.New(fn.Name)
	fg.SetLibrary(fn.Library)
	fg.SetStub(fn.Stub)
	fg.SetStringRefs(fn.StringRefs)

	vertices := make([]flowgraph.VertexID, len(fn.Blocks))
	for i, block := range fn.Blocks {
		instructions := make(instruction.Instructions, len(block.Instructions))
		for j, ins := range block.Instructions {
			built, err := instruction.New(cache, ins.Address, ins.Mnemonic, ins.Operands)
			if err != nil {
				return nil, err
			}
			instructions[j] = built
		}
		bb, err := flowgraph.NewBasicBlock(instructions)
		if err != nil {
			return nil, err
		}
		vertices[i] = fg.AddBlock(bb)
	}

	if fn.Entry < 0 || fn.Entry >= len(vertices) {
		return nil, fmt.Errorf("%s: entry_block %d out of range", fn.Name, fn.Entry)
	}
	if err := fg.SetEntry(vertices[fn.Entry]); err != nil {
		return nil, err
	}

	for _, edge := range fn.Edges {
		label, err := parseEdgeLabel(edge.Label)
		if err != nil {
			return nil, err
		}
		if err := fg.AddEdge(vertices[edge.From], vertices[edge.To], label); err != nil {
			return nil, err
		}
	}

	return fg, nil
}

func parseEdgeLabel(s string) (flowgraph.EdgeLabel, error) {
	switch s {
	case "", "unconditional":
		return flowgraph.Unconditional, nil
	case "true-branch":
		return flowgraph.TrueBranch, nil
	case "false-branch":
		return flowgraph.FalseBranch, nil
	case "switch":
		return flowgraph.Switch, nil
	case "call":
		return flowgraph.Call, nil
	default:
		return 0, fmt.Errorf("unknown edge label %q", s)
	}
}
