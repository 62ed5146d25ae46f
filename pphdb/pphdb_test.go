// pphdb_test.go -- container build/query round trip
//
// New tests for a package the teacher never had in this shape; styled
// with github.com/stretchr/testify the way the rest of the retrieval
// pack tests above the single-package layer, per SPEC_FULL.md's
// ambient test-tooling section.

package pphdb

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaolacci/murmur3"
	"github.com/stretchr/testify/require"

	"github.com/renesugar/pph"
)

func buildContainer(t *testing.T, pairs map[string]string) (*Reader, string) {
	t.Helper()

	dir := t.TempDir()
	fn := filepath.Join(dir, "test.pphdb")

	w := NewWriter(0.97, pph.UUIDDJB)
	for k, v := range pairs {
		require.NoError(t, w.Add([]byte(k), []byte(v)))
	}
	require.NoError(t, w.Build(fn, 30000))

	rd, err := Open(fn, 16)
	require.NoError(t, err)
	return rd, fn
}

func TestWriterReaderRoundtrip(t *testing.T) {
	pairs := map[string]string{
		"alpha": "1",
		"beta":  "2",
		"gamma": "3",
		"delta": "4",
	}
	rd, _ := buildContainer(t, pairs)
	defer rd.Close()

	for k, v := range pairs {
		got, err := rd.Find([]byte(k))
		require.NoError(t, err)
		require.Equal(t, v, string(got))
	}

	_, err := rd.Find([]byte("nonexistent"))
	require.ErrorIs(t, err, ErrNoKey)
	require.Equal(t, len(pairs), rd.Len())
}

func TestWriterRejectsDuplicates(t *testing.T) {
	w := NewWriter(0.97, pph.UUIDDJB)
	require.NoError(t, w.Add([]byte("k"), []byte("v1")))
	require.ErrorIs(t, w.Add([]byte("k"), []byte("v2")), ErrExists)
}

func TestKeyDigestDetectsUnchangedSet(t *testing.T) {
	_, fn := buildContainer(t, map[string]string{"a": "1", "b": "2"})

	rd, err := Open(fn, 0)
	require.NoError(t, err)
	defer rd.Close()

	w2 := NewWriter(0.97, pph.UUIDDJB)
	require.NoError(t, w2.Add([]byte("b"), []byte("2")))
	require.NoError(t, w2.Add([]byte("a"), []byte("1")))
	require.Equal(t, rd.KeyDigest(), w2.KeyDigest(), "digest should be order-independent")

	w3 := NewWriter(0.97, pph.UUIDDJB)
	require.NoError(t, w3.Add([]byte("a"), []byte("1")))
	require.NoError(t, w3.Add([]byte("c"), []byte("3")))
	require.NotEqual(t, rd.KeyDigest(), w3.KeyDigest())
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	_, fn := buildContainer(t, map[string]string{"a": "1"})

	st, err := os.Stat(fn)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(fn, st.Size()-1))

	_, err = Open(fn, 0)
	require.Error(t, err)
}

func TestFindRejectsCorruptedRecord(t *testing.T) {
	_, fn := buildContainer(t, map[string]string{"a": "1", "b": "2"})

	// The byte at headerLen+1 lies in the stored checksum of the first
	// record written, which belongs to whichever key buildContainer
	// added first (map iteration order).
	fd, err := os.OpenFile(fn, os.O_RDWR, 0)
	require.NoError(t, err)
	_, err = fd.WriteAt([]byte{0xff}, headerLen+1)
	require.NoError(t, fd.Close())
	require.NoError(t, err)

	// Open verifies the header and metadata checksums only; record
	// checksums are checked by Find.
	rd, err := Open(fn, 0)
	require.NoError(t, err)
	defer rd.Close()

	var failed int
	for _, k := range []string{"a", "b"} {
		if _, err := rd.Find([]byte(k)); err != nil {
			require.ErrorIs(t, err, ErrCorrupt)
			failed++
		}
	}
	require.Equal(t, 1, failed, "exactly the corrupted record must fail its checksum")
}

// TestLargeSyntheticCorpus builds a container over a large,
// deterministic synthetic key set (murmur3-derived, rather than hand
// permuted strings) to exercise the PHF search and container format
// at a scale closer to a real workload.
func TestLargeSyntheticCorpus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large corpus build in -short mode")
	}

	const n = 2000
	pairs := make(map[string]string, n)
	for i := 0; i < n; i++ {
		seed := []byte(fmt.Sprintf("synthetic-key-%d", i))
		h := murmur3.Sum64(seed)
		key := fmt.Sprintf("%016x", h)
		pairs[key] = fmt.Sprintf("%d", i)
	}

	rd, _ := buildContainer(t, pairs)
	defer rd.Close()

	require.Equal(t, n, rd.Len())
	for k, v := range pairs {
		got, err := rd.Find([]byte(k))
		require.NoError(t, err)
		require.Equal(t, v, string(got))
	}
}
