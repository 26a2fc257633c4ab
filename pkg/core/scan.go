package core

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/kindgraph/kindgraph/pkg/provider"
)

// SchemaFn fetches schema text for one resource kind. Errors are
// recoverable at scan scope: the kind contributes no edges.
type SchemaFn func(ref ResourceReference) (string, error)

// SchemaFnFrom adapts a SchemaProvider to the scanner's SchemaFn.
func SchemaFnFrom(p provider.SchemaProvider) SchemaFn {
	return func(ref ResourceReference) (string, error) {
		return p.GetSchema(ref.GVK())
	}
}

// ScanAndStore is the batch write path of the engine: it fans dependency
// discovery out across the given resource kinds with a worker pool and
// upserts every discovered edge into the graph store. The store's upsert
// semantics make concurrent workers writing overlapping kinds safe.
//
// A schema fetch or parse failure for one kind is logged and skipped; the
// scan continues. The returned count is the number of edge upserts
// performed, for observability.
func (a *Assembler) ScanAndStore(resources []ResourceReference, schemaProvider SchemaFn) (int, error) {
	if a.store == nil {
		return 0, fmt.Errorf("graph store unavailable")
	}
	if schemaProvider == nil {
		return 0, fmt.Errorf("schema provider unavailable")
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(resources) {
		numWorkers = len(resources)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	workChan := make(chan ResourceReference, len(resources))
	for _, ref := range resources {
		workChan <- ref
	}
	close(workChan)

	var edgeCount int64
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range workChan {
				// Every scanned kind becomes a node even when it
				// contributes no edges.
				a.store.UpsertNode(ref)

				schemaText, err := schemaProvider(ref)
				if err != nil {
					warnLog("schema unavailable for %s: %v", ref, err)
					continue
				}
				for _, edge := range DiscoverDependencies(ref, schemaText) {
					a.store.UpsertEdge(edge)
					atomic.AddInt64(&edgeCount, 1)
				}
			}
		}()
	}
	wg.Wait()

	debugLog("scan complete: %d resources, %d edge upserts", len(resources), edgeCount)
	return int(edgeCount), nil
}
