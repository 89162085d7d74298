// Package main generates market token keys or issues a principal token.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/tollgate.space/internal/platform/config"
	"github.com/louisbranch/tollgate.space/internal/tools/accesstoken"
)

func main() {
	cfg, err := accesstoken.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := accesstoken.Run(cfg, os.Stdout, nil, nil); err != nil {
		config.Exitf("market token: %v", err)
	}
}
