package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Flag name constants.
const (
	fnHost     = "host"
	fnPort     = "port"
	fnLogLevel = "logLevel"
)

// Environment constants.
const (
	envHost     = "HOST"
	envPort     = "PORT"
	envLogLevel = "LOGLEVEL"
)

var (
	host, port string
	logLevel   string
)

func init() {
	flag.StringVar(&host, fnHost, getStringEnv(envHost, "localhost"), fmt.Sprintf("HTTP host (environment variable: %s)", envHost))
	flag.StringVar(&port, fnPort, getStringEnv(envPort, "8080"), fmt.Sprintf("HTTP port (environment variable: %s)", envPort))
	flag.StringVar(&logLevel, fnLogLevel, getStringEnv(envLogLevel, "info"), fmt.Sprintf("log level: debug info warn error (environment variable: %s)", envLogLevel))
}

// visit calls fn for the flags defined in this package.
func visit(fn func(f *flag.Flag)) {
	for _, name := range []string{fnHost, fnPort, fnLogLevel} {
		if f := flag.Lookup(name); f != nil {
			fn(f)
		}
	}
}

func getStringEnv(name, defValue string) string {
	if v, ok := os.LookupEnv(name); ok {
		return strings.TrimSpace(v)
	}
	return defValue
}
