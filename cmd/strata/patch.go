package main

import (
	"encoding/json"
	"fmt"
	"os"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/scott-cotton/cli"

	"github.com/strata-format/strata"
)

func patch(cfg *PatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Patch.Parse(cc, args)
	if err != nil {
		cfg.Patch.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: patch requires a patch and at least one file", cli.ErrUsage)
	}
	patchData := []byte(args[0])
	if !cfg.String {
		patchData, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("could not read patch %q: %w", args[0], err)
		}
	}
	p, err := jsonpatch.DecodePatch(patchData)
	if err != nil {
		return fmt.Errorf("error decoding patch: %w", err)
	}
	val, err := strata.NewBuilder().Build(args[1:]...)
	if err != nil {
		return fmt.Errorf("error building %v: %w", args[1:], err)
	}
	doc, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("error encoding built value: %w", err)
	}
	res, err := p.Apply(doc)
	if err != nil {
		return fmt.Errorf("error patching: %w", err)
	}
	var out any
	if err := json.Unmarshal(res, &out); err != nil {
		return fmt.Errorf("error decoding patched value: %w", err)
	}
	return emit(cfg.MainConfig, cc.Out, out)
}
