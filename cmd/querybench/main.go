// Querybench serves the SQL assessment evaluation API: submissions are
// validated, executed against the configured SQL Server target and
// compared to the curator's solution query.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/OmprakashShyamalan/QueryBench/evaluator"
)

func main() {
	if !flag.Parsed() {
		flag.Parse()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(logLevel)}))
	slog.SetDefault(logger)

	// Print runtime info.
	log.Printf("Runtime Info - GOMAXPROCS: %d NumCPU: %d GOOS/GOARCH: %s/%s", runtime.GOMAXPROCS(0), runtime.NumCPU(), runtime.GOOS, runtime.GOARCH)

	s := make([]string, 0)
	visit(func(f *flag.Flag) {
		s = append(s, fmt.Sprintf("%s:%s", f.Name, f.Value))
	})
	log.Printf("Command line flags: %s", strings.Join(s, " "))

	cfg, err := evaluator.ConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	ev := evaluator.NewEvaluator(cfg, logger)
	defer ev.Close()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)

	mux := http.NewServeMux()
	mux.Handle("/evaluate", newEvaluateHandler(ev, logger))
	mux.Handle("/schema", newSchemaHandler(ev))
	mux.Handle("/healthz", newHealthHandler(ev))
	mux.HandleFunc("/favicon.ico", func(http.ResponseWriter, *http.Request) {}) // Avoid handler call for browser favicon request.

	// pprof
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	svr := http.Server{Addr: net.JoinHostPort(host, port), Handler: mux}
	log.Println("listening...")

	go func() {
		if err := svr.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-sigint
	// shutdown server
	log.Println("shutting down...")
	if err := svr.Shutdown(context.Background()); err != nil {
		log.Fatalf("HTTP server Shutdown: %v", err)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
