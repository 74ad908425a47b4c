package controller

import (
	"net/http"
	"net/http/pprof"
)

// PprofMux exposes the net/http/pprof handlers on a standalone ServeMux so
// the solver's API server can mount them under its /debug/pprof/ prefix.
func PprofMux() *http.ServeMux {
	m := http.NewServeMux()

	m.HandleFunc("/", pprof.Index)
	m.HandleFunc("/cmdline", pprof.Cmdline)
	m.HandleFunc("/profile", pprof.Profile)
	m.HandleFunc("/symbol", pprof.Symbol)
	m.HandleFunc("/trace", pprof.Trace)

	return m
}
