// get.go -- 'get' command implementation
//
// A pphdb-specific addition the teacher's example/ didn't need: the
// teacher's CHD/BBHash DB kept uint64 keys, so its 'dump' command could
// just iterate and print every (key, value) pair. pphdb keys are
// arbitrary byte strings, so looking up one specific key is the
// natural single-record query to expose.

package main

import (
	"fmt"
	"os"

	flag "github.com/opencoff/pflag"

	"github.com/renesugar/pph/pphdb"
)

type getCommand struct{}

func init() {
	registerCommand("get", &getCommand{})
}

func (m *getCommand) run(args []string, opt *Option) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.Usage = func() {
		fmt.Printf("Usage: get [options] DB KEY\n\noptions:\n")
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("get: %w", err)
	}

	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("get: insufficient args")
	}

	fn, key := rest[0], rest[1]
	rd, err := pphdb.Open(fn, 128)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer rd.Close()

	val, err := rd.Find([]byte(key))
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	fmt.Printf("%s\n", val)
	return nil
}
