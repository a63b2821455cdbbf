package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Parse      bool
	Merge      bool
	Preprocess bool
	Eval       bool
}

var d *debug

func init() {
	d = &debug{}
	d.Parse = boolEnv("STRATA_DEBUG_PARSE")
	d.Merge = boolEnv("STRATA_DEBUG_MERGE")
	d.Preprocess = boolEnv("STRATA_DEBUG_PREPROCESS")
	d.Eval = boolEnv("STRATA_DEBUG_EVAL")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Parse() bool {
	return d.Parse
}
func Merge() bool {
	return d.Merge
}
func Preprocess() bool {
	return d.Preprocess
}
func Eval() bool {
	return d.Eval
}
