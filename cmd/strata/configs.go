package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/strata-format/strata/encode"
)

type MainConfig struct {
	JSON  bool `cli:"name=j aliases=json desc='output JSON instead of YAML'"`
	Color bool `cli:"name=color desc='encode with color'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) encOpts(w io.Writer) []encode.Option {
	var res []encode.Option
	if cfg.Color {
		return append(res, encode.WithColors(encode.NewColors()))
	}
	// An explicitly passed -color=false wins over terminal detection.
	colorsSet := false
	for _, opt := range cfg.Main.Opts {
		if opt.Name != "color" {
			continue
		}
		colorsSet = opt.Value != nil
		break
	}
	if colorsSet {
		return res
	}
	f, ok := w.(*os.File)
	if !ok {
		return res
	}
	if isatty.IsTerminal(f.Fd()) {
		res = append(res, encode.WithColors(encode.NewColors()))
	}
	return res
}

func (cfg *MainConfig) useColor(w io.Writer) bool {
	return len(cfg.encOpts(w)) > 0
}

func (cfg *MainConfig) outOpt(cc *cli.Context, a string) (any, error) {
	cfg.Out = a
	if a == "-" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cc.Out = f
	cfg.CloseOut = f.Close
	return nil, nil
}

type BuildConfig struct {
	*MainConfig

	Build *cli.Command
}

type GetConfig struct {
	*MainConfig

	Get *cli.Command
}

type FlattenConfig struct {
	*MainConfig

	Flatten *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Flat bool `cli:"name=flat desc='diff flattened trees instead of built values'"`

	Diff *cli.Command
}

type PatchConfig struct {
	*MainConfig
	String bool `cli:"name=s desc='patch arg is a literal JSON patch'"`

	Patch *cli.Command
}
