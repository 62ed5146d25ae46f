// dump.go -- 'dump' command implementation
//
// Grounded on the teacher's deleted example/dump.go, adapted from
// iterating uint64 keys over mph.DBReader.IterFunc to iterating the
// byte-string keys pph.Table.Keys() hands back from pphdb.Reader.

package main

import (
	"fmt"
	"os"

	flag "github.com/opencoff/pflag"

	"github.com/renesugar/pph/pphdb"
)

type dumpCommand struct{}

func init() {
	registerCommand("dump", &dumpCommand{})
}

func (m *dumpCommand) run(args []string, opt *Option) error {
	var all, meta bool

	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.BoolVarP(&all, "all", "a", false, "dump keys and payloads")
	fs.BoolVarP(&meta, "meta", "m", false, "dump only metadata")
	fs.Usage = func() {
		fmt.Printf("Usage: dump [options] DB\n\noptions:\n")
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("dump: insufficient args")
	}

	fn := rest[0]
	rd, err := pphdb.Open(fn, 1000)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	defer rd.Close()

	if meta {
		fmt.Printf("%s: %d records, key-digest %#x\n", fn, rd.Len(), rd.KeyDigest())
		return nil
	}

	for _, k := range rd.Keys() {
		if all {
			v, err := rd.Find(k)
			if err != nil {
				return fmt.Errorf("dump: %q: %w", k, err)
			}
			fmt.Printf("%s: %s\n", k, v)
		} else {
			fmt.Printf("%s\n", k)
		}
	}
	return nil
}
