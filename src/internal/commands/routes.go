package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/maksimkurb/hostgate/src/internal/core"
)

func CreateRoutesCommand() *RoutesCommand {
	return &RoutesCommand{
		fs:  flag.NewFlagSet("routes", flag.ExitOnError),
		out: os.Stdout,
	}
}

// RoutesCommand prints the route table in resolution order.
type RoutesCommand struct {
	fs   *flag.FlagSet
	deps *core.AppDependencies
	out  io.Writer
}

func (r *RoutesCommand) Name() string {
	return r.fs.Name()
}

func (r *RoutesCommand) Init(args []string, ctx *AppContext) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx)
	if err != nil {
		return err
	}

	deps, err := core.NewAppDependencies(cfg, core.AppConfig{})
	if err != nil {
		return err
	}
	r.deps = deps
	return nil
}

func (r *RoutesCommand) Run() error {
	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tMETHOD\tPATTERN")
	for i, route := range r.deps.Routes().Routes() {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, route.Method, route.Pattern)
	}
	return w.Flush()
}
