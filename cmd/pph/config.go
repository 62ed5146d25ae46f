// config.go -- JSON config file support
//
// Grounded on original_source/pph.cpp's boost::program_options
// config-file layer (the same flags accepted on the command line are
// also accepted from --config), reimplemented with a JSON document and
// github.com/sugawarayuuta/sonnet's encoding/json-compatible decoder
// instead of an INI-style parser, since that's the config format the
// rest of the retrieval pack's JSON-driven tools use.

package main

import (
	"os"

	flag "github.com/opencoff/pflag"
	"github.com/sugawarayuuta/sonnet"
)

type fileConfig struct {
	UUID       *string  `json:"uuid"`
	P          *float64 `json:"p"`
	Timeout    *uint64  `json:"timeout"`
	Seed       *uint64  `json:"seed"`
	Multiplier *uint64  `json:"multiplier"`
	Adjustment *uint64  `json:"adjustment"`
	Skip       *uint64  `json:"skip"`
	Rows       *uint64  `json:"rows"`
}

// loadConfig fills in any flag the caller didn't set explicitly on the
// command line from path's JSON document. Flags given on the command
// line always win, matching the precedence of the original CLI's own
// config layer.
func loadConfig(path string, opt *options, fs *flag.FlagSet) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var cfg fileConfig
	dec := sonnet.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return err
	}

	if cfg.UUID != nil && !fs.Changed("uuid") {
		opt.uuid = *cfg.UUID
	}
	if cfg.P != nil && !fs.Changed("p") {
		opt.p = *cfg.P
		opt.pSet = true
	}
	if cfg.Timeout != nil && !fs.Changed("timeout") {
		opt.timeout = *cfg.Timeout
	}
	if cfg.Seed != nil && !fs.Changed("seed") {
		opt.seed = *cfg.Seed
	}
	if cfg.Multiplier != nil && !fs.Changed("multiplier") {
		opt.multiplier = *cfg.Multiplier
	}
	if cfg.Adjustment != nil && !fs.Changed("adjustment") {
		opt.adjustment = *cfg.Adjustment
	}
	if cfg.Skip != nil && !fs.Changed("skip") {
		opt.skip = *cfg.Skip
	}
	if cfg.Rows != nil && !fs.Changed("rows") {
		opt.rows = *cfg.Rows
	}
	return nil
}
