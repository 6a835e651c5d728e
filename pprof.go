//go:build pprof

package main

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/tesselslate/xmacro/internal/log"
)

func init() {
	go func() {
		err := http.ListenAndServe("localhost:6060", nil)
		log.FromName("xmacro").Error("pprof server stopped: %s", err)
	}()
}
