package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/scott-cotton/cli"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/strata-format/strata"
	"github.com/strata-format/strata/encode"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	a, err := diffText(cfg, args[0])
	if err != nil {
		return fmt.Errorf("error building %s: %w", args[0], err)
	}
	b, err := diffText(cfg, args[1])
	if err != nil {
		return fmt.Errorf("error building %s: %w", args[1], err)
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, true))
	if !hasChange(diffs) {
		return nil
	}
	if cfg.useColor(cc.Out) {
		fmt.Fprint(cc.Out, dmp.DiffPrettyText(diffs))
	} else {
		fmt.Fprint(cc.Out, plainDiff(diffs))
	}
	return cli.ExitCodeErr(1)
}

// diffText renders one argument to comparable text, either the built
// native value or, with -flat, the composed tree.
func diffText(cfg *DiffConfig, file string) (string, error) {
	b := strata.NewBuilder()
	if cfg.Flat {
		root, err := b.Flatten(file)
		if err != nil {
			return "", err
		}
		if root == nil {
			return "", nil
		}
		buf := bytes.NewBuffer(nil)
		if err := encode.Encode(root, buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	val, err := b.Build(file)
	if err != nil {
		return "", err
	}
	buf := bytes.NewBuffer(nil)
	if err := emit(cfg.MainConfig, buf, val); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func hasChange(diffs []diffmatchpatch.Diff) bool {
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			return true
		}
	}
	return false
}

// plainDiff renders inline word-diff markers for non-terminal output.
func plainDiff(diffs []diffmatchpatch.Diff) string {
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-")
			sb.WriteString(d.Text)
			sb.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+")
			sb.WriteString(d.Text)
			sb.WriteString("+}")
		default:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}
