// main.go -- pphdb command-line frontend
//
// Grounded on the teacher's deleted example/main.go and example/cmds.go:
// the same "global flags, then CMD CMD-ARGS..." registry, just pointed
// at pphdb.Writer/Reader instead of mph.DBWriter/DBReader.

package main

import (
	"fmt"
	"os"
	"sync"

	flag "github.com/opencoff/pflag"
)

type command interface {
	run(args []string, opt *Option) error
}

var cmds = struct {
	sync.Mutex
	m map[string]command
}{
	m: make(map[string]command),
}

func registerCommand(nm string, cmd command) {
	cmds.Lock()
	defer cmds.Unlock()
	if _, ok := cmds.m[nm]; ok {
		panic(fmt.Sprintf("%s already registered", nm))
	}
	cmds.m[nm] = cmd
}

func runCommand(args []string, o *Option) error {
	nm := args[0]

	cmds.Lock()
	cmd, ok := cmds.m[nm]
	cmds.Unlock()
	if !ok {
		return fmt.Errorf("unknown command %s", nm)
	}
	return cmd.run(args, o)
}

// Option carries flags common to every subcommand.
type Option struct {
	verbose bool
}

func (o *Option) Printf(s string, v ...interface{}) {
	if o.verbose {
		fmt.Printf(s, v...)
	}
}

func main() {
	var opt Option

	usage := fmt.Sprintf(`%s - build and query a pphdb container

Usage: %s [global-options] CMD CMD-ARGS...

  make [options] DB [INPUT...]  -- build a new container from newline-delimited key files
  get [options] DB KEY          -- look up KEY's payload in container DB
  fsck [options] DB             -- verify the integrity of a container
  dump [options] DB             -- dump a container's keys, payloads or metadata

Options:
`, os.Args[0], os.Args[0])

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(os.Stdout)
	fs.BoolVarP(&opt.verbose, "verbose", "V", false, "show verbose output")
	fs.Usage = func() {
		fmt.Print(usage)
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		die("%s", err)
	}

	args := fs.Args()
	if len(args) < 1 {
		fmt.Print(usage)
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := runCommand(args, &opt); err != nil {
		die("%s", err)
	}
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
