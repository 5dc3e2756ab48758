package evaluator

import (
	"sync"

	"github.com/tallygrid/tally/pkg/formula/ast"
)

// GridResolver is an in-memory Resolver backed by per-sheet maps. The
// REPL and tests use it; production storage brings its own Resolver.
// Reads and writes are guarded so evaluations may run concurrently with
// each other (writes between evaluations, per the Resolver contract).
type GridResolver struct {
	mu     sync.RWMutex
	sheets map[string]map[ast.Address]Value
}

// NewGridResolver creates a resolver with the given sheets, all empty.
func NewGridResolver(sheets ...string) *GridResolver {
	g := &GridResolver{sheets: make(map[string]map[ast.Address]Value)}
	for _, s := range sheets {
		g.sheets[s] = make(map[ast.Address]Value)
	}
	return g
}

// Set stores a value, creating the sheet if needed.
func (g *GridResolver) Set(sheet string, addr ast.Address, v Value) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cells, ok := g.sheets[sheet]
	if !ok {
		cells = make(map[ast.Address]Value)
		g.sheets[sheet] = cells
	}
	cells[addr] = v
}

// SetA1 stores a value at an A1-style address, ignoring bad addresses.
func (g *GridResolver) SetA1(sheet, a1 string, v Value) {
	addr, err := ast.ParseAddress(a1)
	if err != nil {
		return
	}
	g.Set(sheet, addr, v)
}

// Clear removes a cell.
func (g *GridResolver) Clear(sheet string, addr ast.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cells, ok := g.sheets[sheet]; ok {
		delete(cells, addr)
	}
}

// SheetExists implements Resolver.
func (g *GridResolver) SheetExists(sheet string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.sheets[sheet]
	return ok
}

// CellValue implements Resolver. Unknown cells are Blank, per contract.
func (g *GridResolver) CellValue(sheet string, addr ast.Address) Value {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cells, ok := g.sheets[sheet]
	if !ok {
		return BLANK
	}
	v, ok := cells[addr]
	if !ok {
		return BLANK
	}
	return v
}
