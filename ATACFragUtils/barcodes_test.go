package atacfragutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarcodeRegistry(t *testing.T) {
	registry := NewBarcodeRegistry([]string{"A", "B", "A", "C"})

	assert.Equal(t, 4, registry.Len())
	assert.Equal(t, 1, registry.Duplicates)

	col, isInside := registry.Index([]byte("A"))
	assert.True(t, isInside)
	assert.Equal(t, uint32(2), col)

	col, isInside = registry.Index([]byte("C"))
	assert.True(t, isInside)
	assert.Equal(t, uint32(3), col)

	_, isInside = registry.Index([]byte("D"))
	assert.False(t, isInside)
}

func TestLoadBarcodeRegistry(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "barcodes.tsv")
	require.NoError(t, os.WriteFile(fname, []byte("AAAC-1\nGGGT-1 sample2\r\nTTTA-1\t42\nAAAC-1\nCCCA-1\n"), 0644))

	registry, err := LoadBarcodeRegistry(Filename(fname))
	require.NoError(t, err)

	assert.Equal(t, 5, registry.Len())
	assert.Equal(t, 1, registry.Duplicates)

	for barcode, want := range map[string]uint32{
		"AAAC-1":         3,
		"GGGT-1 sample2": 1,
		"TTTA-1\t42":     2,
		"CCCA-1":         4,
	} {
		col, isInside := registry.Index([]byte(barcode))
		assert.True(t, isInside, barcode)
		assert.Equal(t, want, col, barcode)
	}

	for _, barcode := range []string{"GGGT-1", "TTTA-1", "sample2"} {
		_, isInside := registry.Index([]byte(barcode))
		assert.False(t, isInside, barcode)
	}
}

func TestLoadBarcodeRegistryGzip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "barcodes.tsv.gz")
	writeWith(t, fname, "A\nB\n")

	registry, err := LoadBarcodeRegistry(Filename(fname))
	require.NoError(t, err)

	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, 0, registry.Duplicates)
}

func TestLoadBarcodeRegistryMissing(t *testing.T) {
	_, err := LoadBarcodeRegistry(Filename(filepath.Join(t.TempDir(), "missing.tsv")))

	assert.ErrorIs(t, err, os.ErrNotExist)
}
