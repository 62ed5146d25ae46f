// make.go -- 'make' command implementation
//
// Grounded on the teacher's deleted example/make.go and example/text.go:
// same per-line "key value" ingestion idiom (AddTextStream), redirected
// at pphdb.Writer instead of mph.DBWriter. Before running the
// expensive PHF search, 'make' compares the candidate key set's
// xxh3 digest against any existing DB's stored digest and skips the
// rebuild when they already match.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	flag "github.com/opencoff/pflag"

	"github.com/renesugar/pph"
	"github.com/renesugar/pph/pphdb"
)

type makeCommand struct{}

func init() {
	registerCommand("make", &makeCommand{})
}

func (m *makeCommand) run(args []string, opt *Option) error {
	var load float64
	var uuid string
	var timeout uint64
	var force bool

	fs := flag.NewFlagSet("make", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.Float64VarP(&load, "load", "l", 0.97, "use `L` as the table load factor")
	fs.StringVarP(&uuid, "uuid", "U", pph.UUIDDJB, "UUID of the key hash function")
	fs.Uint64VarP(&timeout, "timeout", "T", 60000, "timeout in ms for the secondary-hash search")
	fs.BoolVarP(&force, "force", "f", false, "rebuild even if an existing DB's key digest matches")
	fs.Usage = func() {
		fmt.Printf(`Usage: make [options] DB [INPUT...]

where:
   DB       is the name of the output pphdb container
   INPUT    is one or more key files (one "key value" pair per line,
            value is optional); reads stdin if none are given

options:
`)
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("make: %w", err)
	}

	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("make: insufficient args")
	}
	fn := rest[0]
	inputs := rest[1:]

	w := pphdb.NewWriter(load, uuid)

	var tot uint64
	if len(inputs) > 0 {
		for _, f := range inputs {
			n, err := addTextFile(w, f)
			if err != nil {
				return fmt.Errorf("make: can't add %s: %w", f, err)
			}
			opt.Printf("+ %s: %d records\n", f, n)
			tot += n
		}
	} else {
		n, err := addTextStream(w, os.Stdin)
		if err != nil {
			return fmt.Errorf("make: can't add stdin: %w", err)
		}
		opt.Printf("+ <STDIN>: %d records\n", n)
		tot += n
	}

	if !force {
		if rd, err := pphdb.Open(fn, 0); err == nil {
			same := rd.KeyDigest() == w.KeyDigest()
			rd.Close()
			if same {
				opt.Printf("%s: key set unchanged, skipping rebuild\n", fn)
				return nil
			}
		}
	}

	start := time.Now()
	if err := w.Build(fn, timeout); err != nil {
		return fmt.Errorf("make: can't write db %s: %w", fn, err)
	}
	delta := time.Since(start)
	opt.Printf("%d keys, %s\n", tot, delta.Truncate(time.Millisecond))
	return nil
}

func addTextFile(w *pphdb.Writer, fn string) (uint64, error) {
	fd, err := os.Open(fn)
	if err != nil {
		return 0, err
	}
	defer fd.Close()
	return addTextStream(w, fd)
}

func addTextStream(w *pphdb.Writer, r *os.File) (uint64, error) {
	sc := bufio.NewScanner(r)
	var n uint64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		key, val := line, ""
		if i := strings.IndexAny(line, " \t"); i > 0 {
			key, val = line[:i], strings.TrimSpace(line[i:])
		}

		if err := w.Add([]byte(key), []byte(val)); err != nil {
			if err == pphdb.ErrExists {
				continue
			}
			return n, err
		}
		n++
	}
	return n, sc.Err()
}
