package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/questboard/internal/flagx"
)

// parseFlags populates Config from the command line. Only the flags listed
// here are considered; see flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-db", "-t", "-m"})
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.SessionDBPath, "db", cfg.SessionDBPath, "local session database path")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.EmailDomain, "m", cfg.EmailDomain, "email domain accepted at registration")
	if err := fs.Parse(args); err != nil {
		panic(err)
	}
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
