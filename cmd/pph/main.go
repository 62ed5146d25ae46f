// main.go -- pph command-line frontend
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// pph builds and verifies a minimal order-preserving perfect hash
// table from one or more newline-delimited key files (or an optional
// SQLite table), following the flag surface of the original pph.cpp.
package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	flag "github.com/opencoff/pflag"

	"github.com/renesugar/pph"
)

type options struct {
	config     string
	output     string
	verify     string
	uuid       string
	p          float64
	pSet       bool
	timeout    uint64
	seed       uint64
	multiplier uint64
	adjustment uint64
	skip       uint64
	rows       uint64
	index      bool
	version    bool
	sqlite     bool
	sqliteArgs []string
}

const releaseVersion = "1.0.0"

func main() {
	var opt options

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.StringVar(&opt.config, "config", "", "path to a JSON config file providing defaults for the flags below")
	fs.StringVarP(&opt.output, "output", "o", "output.hash", "path to the serialized table output file")
	fs.StringVar(&opt.verify, "verify", "", "path to a table file to load and verify, instead of building one")
	fs.StringVarP(&opt.uuid, "uuid", "U", pph.UUIDDJB, "UUID of the key hash function")
	fs.Float64VarP(&opt.p, "p", "P", 0.97, "loading factor")
	fs.Uint64VarP(&opt.timeout, "timeout", "T", 60000, "timeout in ms for the secondary-hash search")
	fs.Uint64VarP(&opt.seed, "seed", "S", 0, "seed for the PRNG; 0 draws a random seed")
	fs.Uint64VarP(&opt.multiplier, "multiplier", "M", 65, "multiplier for the primary key hash function")
	fs.Uint64VarP(&opt.adjustment, "adjustment", "A", 0, "adjustment for the primary key hash function")
	fs.Uint64Var(&opt.skip, "skip", 0, "number of rows to skip at the start of the input, counted across all input files")
	fs.Uint64Var(&opt.rows, "rows", 0, "number of rows to read from the input (0 = unlimited)")
	fs.BoolVar(&opt.index, "index", false, "print key and h(key) for each input key, then exit")
	fs.BoolVarP(&opt.version, "version", "v", false, "print the release version and exit")
	fs.BoolVar(&opt.sqlite, "sqlite", false, "treat the positional arguments as 'DB TABLE COLUMN' and read keys from SQLite")
	fs.Usage = func() {
		fmt.Println("Usage: pph <input file(s)> [--config <config file>] [--verify <table file>]")
		fmt.Println("           [--output <output file>] [--version|-v] [--timeout <timeout>]")
		fmt.Println("           [--uuid <uuid>] [--multiplier <multiplier>] [--adjustment <adjustment>]")
		fmt.Println("           [--sqlite <db> <table> <column>]")
		fmt.Println()
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		die("%s", err)
	}

	if opt.version {
		fmt.Printf("pph version: %s\n", releaseVersion)
		return
	}

	args := fs.Args()
	if opt.sqlite {
		opt.sqliteArgs = args
		args = nil
	}

	opt.pSet = fs.Changed("p")

	if opt.config != "" {
		if err := loadConfig(opt.config, &opt, fs); err != nil {
			die("config: %s", err)
		}
	}

	if opt.verify != "" {
		if err := runVerify(opt.verify); err != nil {
			die("%s", err)
		}
		return
	}

	keys, values, err := collectKeys(&opt, args)
	if err != nil {
		die("%s", err)
	}

	tbl := pph.NewTable()
	err = tbl.Setup(uint64(len(keys)), opt.pSet, opt.p, opt.timeout, seedOrRandom(opt.seed), opt.multiplier, opt.adjustment, opt.uuid)
	if err != nil {
		die("setup: %s", err)
	}
	tbl.SetUUID(opt.uuid)

	if opt.index {
		printIndex(tbl, keys)
		return
	}

	if err := checkDuplicates(keys); err != nil {
		die("%s", err)
	}

	retval := 0
	if err := tbl.Load(keys, values); err != nil {
		warn("building table failed: %s", err)
		retval = 1
	} else if err := reverify(tbl, keys, values); err != nil {
		warn("testing hash function error: %s", err)
		retval = 1
	} else {
		fmt.Printf("Hash function generated and verified; written to %s\n", opt.output)
	}

	if err := writeOutput(tbl, opt.output); err != nil {
		warn("writing output failed: %s", err)
		retval = 1
	}

	os.Exit(retval)
}

func printIndex(tbl *pph.Table, keys [][]byte) {
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, k := range keys {
		fmt.Fprintf(w, "%s %d\n", k, tbl.Hash(k))
	}
}

func reverify(tbl *pph.Table, keys [][]byte, values []uint64) error {
	return verifyParallel(tbl, keys, values)
}

// verifyParallel checks that every key in keys resolves via tbl.FindVal,
// sharded across runtime.NumCPU() workers the same way Table.Load's own
// self-verify pass is. If values is non-nil, each resolved value must
// also match the corresponding entry; otherwise only membership is
// checked.
func verifyParallel(tbl *pph.Table, keys [][]byte, values []uint64) error {
	n := len(keys)
	if n == 0 {
		return nil
	}

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			for j := lo; j < hi; j++ {
				v := tbl.FindVal(keys[j])
				if tbl.NotFound(v) {
					return fmt.Errorf("error verifying key %q at index %d", keys[j], j)
				}
				if values != nil && v != values[j] {
					return fmt.Errorf("error verifying key %q at index %d: got %d, want %d", keys[j], j, v, values[j])
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func writeOutput(tbl *pph.Table, path string) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fd.Close()

	bw := bufio.NewWriter(fd)
	if err := tbl.Serialize(bw); err != nil {
		return err
	}
	return bw.Flush()
}

func runVerify(path string) error {
	fd, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fd.Close()

	tbl := pph.NewTable()
	if err := tbl.Unserialize(bufio.NewReader(fd)); err != nil {
		return fmt.Errorf("unserializing %s: %w", path, err)
	}

	if err := verifyParallel(tbl, tbl.Keys(), nil); err != nil {
		return err
	}

	fmt.Printf("Hash function verified; loaded from %s\n", path)
	return nil
}

func seedOrRandom(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return pph.RandomSeed()
}

func die(f string, v ...interface{}) {
	warn(f, v...)
	os.Exit(1)
}

func warn(f string, v ...interface{}) {
	s := fmt.Sprintf(f, v...)
	if n := len(s); n == 0 || s[n-1] != '\n' {
		s += "\n"
	}
	fmt.Fprintf(os.Stderr, "%s: %s", os.Args[0], s)
}
