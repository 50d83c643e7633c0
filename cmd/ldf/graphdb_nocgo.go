//go:build !cgo

package main

import (
	"errors"

	"github.com/dusk-indust/ldf/internal/graph"
)

func openGraphDB(string) (graph.Store, error) {
	return nil, errors.New("--graph-db needs a cgo build of ldf")
}
