package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/strata-format/strata"
	"github.com/strata-format/strata/encode"
)

func flatten(cfg *FlattenConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Flatten.Parse(cc, args)
	if err != nil {
		cfg.Flatten.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: flatten requires at least one file", cli.ErrUsage)
	}
	root, err := strata.NewBuilder().Flatten(args...)
	if err != nil {
		return fmt.Errorf("error flattening %v: %w", args, err)
	}
	if root == nil {
		return nil
	}
	if err := encode.Encode(root, cc.Out, cfg.encOpts(cc.Out)...); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
