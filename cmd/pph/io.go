// io.go -- key ingestion: flat files, stdin, and an optional SQLite source
//
// Grounded on original_source/pph.cpp's input-reading loop (trim,
// blank-line-terminated, skip/rows windowing) and the teacher's
// example/text.go Add*File helper pattern, adapted from a CHD/BBHash
// <key,value> reader to a plain ordered key reader plus a separate
// fasthash-based duplicate preflight.

package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/opencoff/go-fasthash"
	_ "github.com/mattn/go-sqlite3"
)

// collectKeys reads the ordered key list for a build, either from the
// named input files (or stdin if none are given) or from a SQLite
// table when --sqlite was used. Values are the key's ordinal position.
func collectKeys(opt *options, files []string) ([][]byte, []uint64, error) {
	if opt.sqlite {
		return collectKeysFromSQLite(opt.sqliteArgs)
	}
	return collectKeysFromText(files, opt.skip, opt.rows)
}

func collectKeysFromText(files []string, skip, rows uint64) ([][]byte, []uint64, error) {
	var keys [][]byte
	var n, count uint64

	readLines := func(r *bufio.Scanner) bool {
		for r.Scan() {
			line := strings.TrimSpace(r.Text())
			if line == "" {
				return false
			}

			if n < skip {
				n++
				continue
			}
			n++

			keys = append(keys, []byte(line))
			count++

			if rows > 0 && count >= rows {
				return false
			}
		}
		return true
	}

	if len(files) == 0 {
		sc := bufio.NewScanner(os.Stdin)
		readLines(sc)
	} else {
		for _, fn := range files {
			fd, err := os.Open(fn)
			if err != nil {
				return nil, nil, fmt.Errorf("opening %s: %w", fn, err)
			}
			cont := readLines(bufio.NewScanner(fd))
			fd.Close()
			if !cont {
				break
			}
		}
	}

	values := make([]uint64, len(keys))
	for i := range values {
		values[i] = uint64(i)
	}
	return keys, values, nil
}

// collectKeysFromSQLite reads one key per row from db.table.column,
// ordered by rowid so the ordinal values stay reproducible across runs.
func collectKeysFromSQLite(args []string) ([][]byte, []uint64, error) {
	if len(args) != 3 {
		return nil, nil, fmt.Errorf("--sqlite requires exactly 3 positional args: DB TABLE COLUMN")
	}
	dbPath, table, column := args[0], args[1], args[2]

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening sqlite db %s: %w", dbPath, err)
	}
	defer conn.Close()

	rows, err := conn.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", column, table))
	if err != nil {
		return nil, nil, fmt.Errorf("querying %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	var keys [][]byte
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, nil, err
		}
		keys = append(keys, []byte(k))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	values := make([]uint64, len(keys))
	for i := range values {
		values[i] = uint64(i)
	}
	return keys, values, nil
}

// checkDuplicates does a fast O(N) preflight over a fasthash digest of
// every key so a duplicate-key build failure is reported precisely,
// instead of waiting out Table.Load's full BuildTimeout.
func checkDuplicates(keys [][]byte) error {
	seen := make(map[uint64][]string, len(keys))
	for _, k := range keys {
		h := fasthash.Hash64(0, k)
		for _, prior := range seen[h] {
			if prior == string(k) {
				return fmt.Errorf("duplicate key: %s", k)
			}
		}
		seen[h] = append(seen[h], string(k))
	}
	return nil
}
