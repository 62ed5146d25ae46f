// fsck.go -- 'fsck' command implementation
//
// Grounded on the teacher's deleted example/fsck.go, redirected at
// pphdb.Open instead of mph.NewDBReader.

package main

import (
	"fmt"
	"os"

	flag "github.com/opencoff/pflag"

	"github.com/renesugar/pph/pphdb"
)

type fsckCommand struct{}

func init() {
	registerCommand("fsck", &fsckCommand{})
}

func (m *fsckCommand) run(args []string, opt *Option) error {
	fs := flag.NewFlagSet("fsck", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.Usage = func() {
		fmt.Printf("Usage: fsck [options] DB\n\noptions:\n")
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("fsck: %w", err)
	}

	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("fsck: insufficient args")
	}

	fn := rest[0]
	rd, err := pphdb.Open(fn, 1000)
	if err != nil {
		return fmt.Errorf("fsck: %w", err)
	}
	defer rd.Close()

	fmt.Printf("%s: %d records, key-digest %#x: OK\n", fn, rd.Len(), rd.KeyDigest())
	return nil
}
