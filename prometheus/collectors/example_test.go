package collectors_test

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/OmprakashShyamalan/QueryBench/evaluator"
	evaluatorcollectors "github.com/OmprakashShyamalan/QueryBench/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Example demonstrates exporting querybench evaluator metrics.
func Example() {
	const envHTTP = "QBHTTP"

	addr := os.Getenv(envHTTP)

	// exit if the primary connection or http address is missing.
	cfg, err := evaluator.ConfigFromEnv()
	if err != nil || addr == "" {
		return
	}

	ev := evaluator.NewEvaluator(cfg, slog.Default())
	defer ev.Close()

	// register collector for evaluator stats.
	statsCollector := evaluatorcollectors.NewEvaluatorStatsCollector(ev, "assessmentDB")
	if err := prometheus.Register(statsCollector); err != nil {
		log.Fatal(err)
	}

	// register prometheus HTTP handler and start HTTP server.
	http.Handle("/metrics", promhttp.Handler())
	log.Fatal(http.ListenAndServe(addr, nil))

	// output:
}
