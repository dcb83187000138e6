package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/shopstream/realtime/internal/observ"
	"github.com/shopstream/realtime/internal/stubs"
)

func main() {
	godotenv.Load()

	addr := flag.String("addr", ":8091", "listen address")
	flag.Parse()

	if env := os.Getenv("STUB_ADDR"); env != "" && *addr == ":8091" {
		*addr = env
	}

	mux := http.NewServeMux()
	mux.Handle("/ws/", stubs.NewWSServer())
	mux.Handle("/metrics", observ.Handler())

	observ.Log("stub_server_started", map[string]any{"addr": *addr})
	if err := http.ListenAndServe(*addr, mux); err != nil {
		observ.Log("stub_server_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
