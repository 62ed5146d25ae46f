// config_test.go -- CLI-flag-wins-over-config precedence
//
// Styled with github.com/stretchr/testify, matching pphdb's test layer.

package main

import (
	"os"
	"path/filepath"
	"testing"

	flag "github.com/opencoff/pflag"
	"github.com/stretchr/testify/require"
)

func newTestFlagSet(opt *options) *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVarP(&opt.uuid, "uuid", "U", "default-uuid", "")
	fs.Float64VarP(&opt.p, "p", "P", 0.97, "")
	fs.Uint64VarP(&opt.timeout, "timeout", "T", 60000, "")
	fs.Uint64VarP(&opt.seed, "seed", "S", 0, "")
	fs.Uint64VarP(&opt.multiplier, "multiplier", "M", 65, "")
	fs.Uint64VarP(&opt.adjustment, "adjustment", "A", 0, "")
	fs.Uint64Var(&opt.skip, "skip", 0, "")
	fs.Uint64Var(&opt.rows, "rows", 0, "")
	return fs
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	fn := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(fn, []byte(body), 0600))
	return fn
}

func TestLoadConfigFillsUnsetFlags(t *testing.T) {
	var opt options
	fs := newTestFlagSet(&opt)
	require.NoError(t, fs.Parse(nil))

	fn := writeConfigFile(t, `{"uuid": "from-config", "timeout": 1234}`)
	require.NoError(t, loadConfig(fn, &opt, fs))

	require.Equal(t, "from-config", opt.uuid)
	require.Equal(t, uint64(1234), opt.timeout)
}

func TestLoadConfigDoesNotOverrideExplicitFlags(t *testing.T) {
	var opt options
	fs := newTestFlagSet(&opt)
	require.NoError(t, fs.Parse([]string{"--uuid", "from-cli"}))

	fn := writeConfigFile(t, `{"uuid": "from-config", "timeout": 1234}`)
	require.NoError(t, loadConfig(fn, &opt, fs))

	require.Equal(t, "from-cli", opt.uuid, "an explicit CLI flag must win over the config file")
	require.Equal(t, uint64(1234), opt.timeout, "an unset flag is still filled in from the config file")
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	var opt options
	fs := newTestFlagSet(&opt)
	require.NoError(t, fs.Parse(nil))

	require.Error(t, loadConfig(filepath.Join(t.TempDir(), "nope.json"), &opt, fs))
}
