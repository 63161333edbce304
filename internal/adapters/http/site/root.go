// Package site serves the embedded standings board.
package site

import (
	"context"
	"net/http"
)

// Mux is the routing surface Register needs. Both *http.ServeMux and
// chi.Router satisfy it.
type Mux interface {
	Handle(pattern string, h http.Handler)
}

// Register serves the board at the root path of mux.
func Register(_ context.Context, mux Mux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
