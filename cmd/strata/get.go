package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/strata-format/strata"
	"github.com/strata-format/strata/ir"
)

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		cfg.Get.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: get requires a path and at least one file", cli.ErrUsage)
	}
	path, err := ir.ParsePath(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	val, err := strata.NewBuilder().Build(args[1:]...)
	if err != nil {
		return fmt.Errorf("error building %v: %w", args[1:], err)
	}
	got, err := lookup(val, path)
	if err != nil {
		return fmt.Errorf("error querying %s: %w", args[0], err)
	}
	return emit(cfg.MainConfig, cc.Out, got)
}

// lookup walks an evaluated value along a path. Negative indices count
// from the end, as in path resolution over trees.
func lookup(v any, path ir.Path) (any, error) {
	for i, step := range path {
		at := path[:i+1]
		switch {
		case step.Name != nil:
			m, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: %w: not a mapping", at, ir.ErrNotFound)
			}
			v, ok = m[*step.Name]
			if !ok {
				return nil, fmt.Errorf("%s: %w", at, ir.ErrNotFound)
			}
		case step.Index != nil:
			xs, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("%s: %w: not a sequence", at, ir.ErrNotFound)
			}
			n := *step.Index
			if n < 0 {
				n += len(xs)
			}
			if n < 0 || n >= len(xs) {
				return nil, fmt.Errorf("%s: %w: index out of range", at, ir.ErrNotFound)
			}
			v = xs[n]
		}
	}
	return v, nil
}
