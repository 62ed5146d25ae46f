// serialize.go -- text serialization format
//
// Grounded on original_source/pph.h's Table::serialize/Table::unserialize
// and original_source/StringUtil.h's escape_string/unescape_string. The
// format is whitespace-token text, blocks separated by a blank line, in
// this fixed order: the magic line, the escaped UUID, the PRNG seed, the
// family size followed by one "i m mu alpha" row per family member, the
// seven-field parameter line, one "b p i r" row per non-empty header,
// the dense array size, and one "x key val owner" row per live slot.

package pph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const pphMagic = "pph version 1.0.0"

// escapeString rewrites every non-alphanumeric byte of s as \xHHHH
// (four uppercase hex digits), matching StringUtil.h's escape_string.
func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\x%04X", c)
		}
	}
	return b.String()
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// unescapeString is the inverse of escapeString: every \xHHHH run is
// replaced by the single byte it encodes.
func unescapeString(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'x' {
			if i+6 > len(s) {
				return "", fmt.Errorf("pph: truncated escape in %q", s)
			}
			v, err := strconv.ParseUint(s[i+2:i+6], 16, 8)
			if err != nil {
				return "", fmt.Errorf("pph: invalid escape %q: %w", s[i:i+6], err)
			}
			b.WriteByte(byte(v))
			i += 6
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String(), nil
}

// Serialize writes the table's complete state as the text format
// described by serialize.go's file header comment.
func (t *Table) Serialize(w io.Writer) error {
	ew := newErrWriter(w)
	bw := bufio.NewWriter(ew)

	fmt.Fprintln(bw, pphMagic)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, escapeString(t.uuid))
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, t.seed)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, t.fam.size())
	for i := 0; i < t.fam.size(); i++ {
		e := t.fam.entries[i]
		fmt.Fprintf(bw, "%d %d %d %d\n", i, e.modulus, e.multiplier, e.adjustment)
	}
	fmt.Fprintln(bw)

	timeoutMS := uint64(t.timeout / time.Millisecond)
	fmt.Fprintf(bw, "%d %d %g %d %d %d %d\n", len(t.h_), t.n, t.p, t.s, t.multiplier, t.adjustment, timeoutMS)
	fmt.Fprintln(bw)

	for b, hdr := range t.h_ {
		if hdr.r == 0 {
			continue
		}
		fmt.Fprintf(bw, "%d %d %d %d\n", b, hdr.p, hdr.i, hdr.r)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, len(t.d))
	fmt.Fprintln(bw)

	for x, s := range t.d {
		if !s.used {
			continue
		}
		fmt.Fprintf(bw, "%d %s %d %d\n", x, escapeString(string(t.keys[s.keyIdx])), s.val, s.owner)
	}
	fmt.Fprintln(bw)

	if err := bw.Flush(); err != nil {
		return err
	}
	return ew.Error()
}

// lineReader scans lines while letting callers peek one line ahead, so
// row sections of unknown length can be read up to their blank-line
// terminator without consuming it twice.
type lineReader struct {
	sc     *bufio.Scanner
	peeked *string
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &lineReader{sc: sc}
}

func (lr *lineReader) next() (string, bool) {
	if lr.peeked != nil {
		s := *lr.peeked
		lr.peeked = nil
		return s, true
	}
	if lr.sc.Scan() {
		return lr.sc.Text(), true
	}
	return "", false
}

func (lr *lineReader) peek() (string, bool) {
	if lr.peeked == nil {
		if !lr.sc.Scan() {
			return "", false
		}
		s := lr.sc.Text()
		lr.peeked = &s
	}
	return *lr.peeked, true
}

func (lr *lineReader) nextNonBlank() (string, bool) {
	for {
		s, ok := lr.next()
		if !ok {
			return "", false
		}
		if strings.TrimSpace(s) != "" {
			return s, true
		}
	}
}

// readRowSection reads contiguous non-blank lines as a section of
// unknown length. It first consumes the single blank separator line
// that Serialize writes before each row section, then the rows, then
// (without returning it) the blank line or EOF that terminates them.
func (lr *lineReader) readRowSection() []string {
	if s, ok := lr.peek(); ok && strings.TrimSpace(s) == "" {
		lr.next()
	}

	var rows []string
	for {
		s, ok := lr.peek()
		if !ok {
			break
		}
		if strings.TrimSpace(s) == "" {
			lr.next()
			break
		}
		lr.next()
		rows = append(rows, s)
	}
	return rows
}

// Unserialize rebuilds a Table from the text format Serialize writes.
// The table is considered loaded (ready for FindVal) on success.
func (t *Table) Unserialize(r io.Reader) error {
	lr := newLineReader(r)

	magic, ok := lr.nextNonBlank()
	if !ok || strings.TrimSpace(magic) != pphMagic {
		return ErrSerialization
	}

	uuidLine, ok := lr.nextNonBlank()
	if !ok {
		return ErrSerialization
	}
	uuid, err := unescapeString(strings.TrimSpace(uuidLine))
	if err != nil {
		return fmt.Errorf("pph: %w: %v", ErrSerialization, err)
	}

	seedLine, ok := lr.nextNonBlank()
	if !ok {
		return ErrSerialization
	}
	seed, err := strconv.ParseUint(strings.TrimSpace(seedLine), 10, 64)
	if err != nil {
		return ErrSerialization
	}

	famCountLine, ok := lr.nextNonBlank()
	if !ok {
		return ErrSerialization
	}
	famCount, err := strconv.Atoi(strings.TrimSpace(famCountLine))
	if err != nil || famCount < 1 {
		return ErrSerialization
	}

	keyfn := lookupKeyFunc(uuid)
	fam := newSecondaryFamily(keyfn)
	fam.entries = make([]secondaryEntry, famCount)
	for k := 0; k < famCount; k++ {
		line, ok := lr.next()
		if !ok {
			return ErrSerialization
		}
		f := strings.Fields(line)
		if len(f) != 4 {
			return ErrSerialization
		}
		idx, e1 := strconv.ParseUint(f[0], 10, 64)
		m, e2 := strconv.ParseUint(f[1], 10, 64)
		mu, e3 := strconv.ParseUint(f[2], 10, 64)
		al, e4 := strconv.ParseUint(f[3], 10, 64)
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil || int(idx) >= famCount {
			return ErrSerialization
		}
		fam.entries[idx] = secondaryEntry{modulus: m, multiplier: mu, adjustment: al}
	}

	paramLine, ok := lr.nextNonBlank()
	if !ok {
		return ErrSerialization
	}
	pf := strings.Fields(paramLine)
	if len(pf) != 7 {
		return ErrSerialization
	}
	hSize, e1 := strconv.ParseUint(pf[0], 10, 64)
	n, e2 := strconv.ParseUint(pf[1], 10, 64)
	p, e3 := strconv.ParseFloat(pf[2], 64)
	s, e4 := strconv.ParseUint(pf[3], 10, 64)
	mu0, e5 := strconv.ParseUint(pf[4], 10, 64)
	al0, e6 := strconv.ParseUint(pf[5], 10, 64)
	timeoutMS, e7 := strconv.ParseUint(pf[6], 10, 64)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil || e6 != nil || e7 != nil {
		return ErrSerialization
	}

	headerRows := lr.readRowSection()

	dSizeLine, ok := lr.nextNonBlank()
	if !ok {
		return ErrSerialization
	}
	dSize, err := strconv.ParseUint(strings.TrimSpace(dSizeLine), 10, 64)
	if err != nil {
		return ErrSerialization
	}

	slotRows := lr.readRowSection()

	newH := make([]header, hSize)
	for _, row := range headerRows {
		f := strings.Fields(row)
		if len(f) != 4 {
			return ErrSerialization
		}
		b, e1 := strconv.ParseUint(f[0], 10, 64)
		hp, e2 := strconv.ParseUint(f[1], 10, 64)
		i, e3 := strconv.ParseUint(f[2], 10, 64)
		rr, e4 := strconv.ParseUint(f[3], 10, 64)
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil || b >= hSize {
			return ErrSerialization
		}
		newH[b] = header{p: hp, i: uint32(i), r: rr}
	}

	newD := make([]slot, dSize)
	newKeys := make([][]byte, 0, len(slotRows))
	for _, row := range slotRows {
		f := strings.Fields(row)
		if len(f) != 4 {
			return ErrSerialization
		}
		x, e1 := strconv.ParseUint(f[0], 10, 64)
		key, e2 := unescapeString(f[1])
		val, e3 := strconv.ParseUint(f[2], 10, 64)
		owner, e4 := strconv.ParseUint(f[3], 10, 64)
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil || x >= dSize {
			return ErrSerialization
		}
		idx := uint32(len(newKeys))
		newKeys = append(newKeys, []byte(key))
		newD[x] = slot{keyIdx: idx, owner: uint32(owner), used: true, val: val}
	}

	t.uuid = uuid
	t.keyfn = keyfn
	t.seed = seed
	t.n = n
	t.p = p
	t.s = s
	t.multiplier = mu0
	t.adjustment = al0
	t.timeout = time.Duration(timeoutMS) * time.Millisecond
	t.fam = fam
	t.rng = newXorShift1024Star(seed)
	t.h_ = newH
	t.d = newD
	t.keys = newKeys
	t.inputKeys = newKeys
	t.loaded = true
	return nil
}
