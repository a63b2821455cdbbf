package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/strata-format/strata"
)

func build(cfg *BuildConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Build.Parse(cc, args)
	if err != nil {
		cfg.Build.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: build requires at least one file", cli.ErrUsage)
	}
	val, err := strata.NewBuilder().Build(args...)
	if err != nil {
		return fmt.Errorf("error building %v: %w", args, err)
	}
	return emit(cfg.MainConfig, cc.Out, val)
}
