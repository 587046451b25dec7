package commands

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/maksimkurb/hostgate/src/internal/access"
	"github.com/maksimkurb/hostgate/src/internal/config"
)

func CreateCheckConfigCommand() *CheckConfigCommand {
	cc := &CheckConfigCommand{
		fs:  flag.NewFlagSet("check-config", flag.ExitOnError),
		out: os.Stdout,
	}

	cc.fs.BoolVar(&cc.Print, "print", false, "Print the effective configuration after defaults and overrides")

	return cc
}

type CheckConfigCommand struct {
	fs    *flag.FlagSet
	cfg   *config.Config
	out   io.Writer
	Print bool
}

func (c *CheckConfigCommand) Name() string {
	return c.fs.Name()
}

func (c *CheckConfigCommand) Init(args []string, ctx *AppContext) error {
	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *CheckConfigCommand) Run() error {
	host, err := access.NewHostFromSource(c.cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Configuration is valid\n")
	fmt.Fprintf(c.out, "  listen: %s\n", host.Address())
	fmt.Fprintf(c.out, "  banned ids: %d\n", len(host.BannedIDs()))

	if c.Print {
		buf, err := c.cfg.SerializeConfig()
		if err != nil {
			return fmt.Errorf("failed to serialize configuration: %w", err)
		}
		fmt.Fprintf(c.out, "\n%s", buf.String())
	}
	return nil
}
