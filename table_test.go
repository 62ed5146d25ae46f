// table_test.go -- construction and lookup tests
//
// (c) Sudhi Herle 2018
//
// License GPLv2

package pph

import (
	"bytes"
	"strconv"
	"testing"
)

func buildTable(t *testing.T, keys []string, values []uint64) *Table {
	tbl := NewTable()
	err := tbl.Setup(uint64(len(keys)), false, 0.97, 60000, 1, hashMultiplier, 0, UUIDDJB)
	if err != nil {
		t.Fatalf("setup: %s", err)
	}

	kb := make([][]byte, len(keys))
	for i, k := range keys {
		kb[i] = []byte(k)
	}

	if err := tbl.Load(kb, values); err != nil {
		t.Fatalf("load: %s", err)
	}
	return tbl
}

func TestBuildAlphaBetaGamma(t *testing.T) {
	assert := newAsserter(t)

	tbl := buildTable(t, []string{"alpha", "beta", "gamma"}, []uint64{0, 1, 2})

	assert(tbl.FindVal([]byte("alpha")) == 0, "alpha: wrong value")
	assert(tbl.FindVal([]byte("beta")) == 1, "beta: wrong value")
	assert(tbl.FindVal([]byte("gamma")) == 2, "gamma: wrong value")
	assert(tbl.NotFound(tbl.FindVal([]byte("delta"))), "delta: expected miss")
}

func TestBuildAndSerializeRoundtrip(t *testing.T) {
	assert := newAsserter(t)

	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	values := make([]uint64, len(keys))
	for i := range values {
		values[i] = uint64(i)
	}

	tbl := buildTable(t, keys, values)

	var buf bytes.Buffer
	err := tbl.Serialize(&buf)
	assert(err == nil, "serialize: %s", err)

	loaded := NewTable()
	err = loaded.Unserialize(&buf)
	assert(err == nil, "unserialize: %s", err)

	for i, k := range keys {
		v := loaded.FindVal([]byte(k))
		assert(v == values[i], "roundtrip %q: exp %d, saw %d", k, values[i], v)
	}
	assert(loaded.NotFound(loaded.FindVal([]byte("zzz"))), "expected miss for zzz")
}

func TestBuildHundredKeys(t *testing.T) {
	assert := newAsserter(t)

	n := 100
	keys := make([]string, n)
	values := make([]uint64, n)
	for i := 0; i < n; i++ {
		keys[i] = "k" + strconv.Itoa(i)
		values[i] = uint64(i)
	}

	tbl := buildTable(t, keys, values)

	for i, k := range keys {
		v := tbl.FindVal([]byte(k))
		assert(v == values[i], "key %q: exp %d, saw %d", k, values[i], v)
	}
	assert(uint64(len(tbl.d)) >= uint64(n), "|D| too small: %d", len(tbl.d))
	assert(tbl.fam.size() >= 2, "|F| too small: %d", tbl.fam.size())
}

func TestDuplicateKeyFailsBuild(t *testing.T) {
	assert := newAsserter(t)

	tbl := NewTable()
	err := tbl.Setup(2, false, 0.97, 200, 1, hashMultiplier, 0, UUIDDJB)
	assert(err == nil, "setup: %s", err)

	err = tbl.Load([][]byte{[]byte("x"), []byte("x")}, []uint64{0, 1})
	assert(err != nil, "expected duplicate-key build to fail")
}

func TestIndexIsDeterministic(t *testing.T) {
	assert := newAsserter(t)

	t1 := NewTable()
	err := t1.Setup(3, false, 0.97, 60000, 1, hashMultiplier, 0, UUIDDJB)
	assert(err == nil, "setup1: %s", err)

	t2 := NewTable()
	err = t2.Setup(3, false, 0.97, 60000, 1, hashMultiplier, 0, UUIDDJB)
	assert(err == nil, "setup2: %s", err)

	h1 := t1.Hash([]byte("alpha"))
	h2 := t2.Hash([]byte("alpha"))
	assert(h1 == h2, "hash not deterministic: %d vs %d", h1, h2)
}

func TestUnserializeRejectsBadMagic(t *testing.T) {
	assert := newAsserter(t)

	tbl := NewTable()
	err := tbl.Unserialize(bytes.NewBufferString("not a pph table\n"))
	assert(err != nil, "expected serialization error")
}

func TestEmptyInput(t *testing.T) {
	assert := newAsserter(t)

	tbl := buildTable(t, nil, nil)
	assert(tbl.NotFound(tbl.FindVal([]byte("anything"))), "expected miss on empty table")
}
