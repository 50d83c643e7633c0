//go:build cgo

package main

import "github.com/dusk-indust/ldf/internal/graph"

func openGraphDB(path string) (graph.Store, error) {
	return graph.NewKuzuFileStore(path)
}
