package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/maksimkurb/hostgate/src/internal/commands"
	"github.com/maksimkurb/hostgate/src/internal/log"
)

var (
	version = "dev"
	commit  = "n/a"
	date    = "n/a"
)

func main() {
	ctx := &commands.AppContext{}

	flag.StringVar(&ctx.ConfigPath, "config", "/opt/etc/hostgate/hostgate.toml", "Path to configuration file")
	flag.StringVar(&ctx.EnvFile, "env-file", "", "Optional KEY=VALUE file with HOSTGATE_* overrides")
	flag.BoolVar(&ctx.Verbose, "verbose", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "hostgate: small HTTP host with client bans\n")
		fmt.Fprintf(os.Stderr, "Version: %s (Commit: %s, Date: %s)\n\n", version, commit, date)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  serve                   Run the HTTP server until stopped\n")
		fmt.Fprintf(os.Stderr, "  check-config            Validate the configuration file\n")
		fmt.Fprintf(os.Stderr, "  routes                  Print the route table\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if ctx.Verbose {
		log.SetVerbose(true)
	}

	if _, err := os.Stat(ctx.ConfigPath); errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Configuration file not found: %s", ctx.ConfigPath)
	}

	cmds := []commands.Runner{
		commands.CreateServeCommand(),
		commands.CreateCheckConfigCommand(),
		commands.CreateRoutesCommand(),
	}

	args := flag.Args()

	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	subcommand := args[0]
	for _, cmd := range cmds {
		if cmd.Name() == subcommand {
			if err := cmd.Init(args[1:], ctx); err != nil {
				log.Fatalf("Failed to initialize command: %v", err)
			}

			if err := cmd.Run(); err != nil {
				log.Fatalf("Failed to run command: %v", err)
			}

			os.Exit(0)
		}
	}

	log.Fatalf("Unknown subcommand: %s", subcommand)
}
