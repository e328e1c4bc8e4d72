package atacfragutils

import "fmt"

/*BarcodeRegistry cell barcode <-> matrix column, in file order */
type BarcodeRegistry struct {
	index      map[string]uint32
	nbColumns  int
	Duplicates int
}

/*NewBarcodeRegistry build a registry from an ordered list of barcodes */
func NewBarcodeRegistry(barcodes []string) *BarcodeRegistry {
	registry := &BarcodeRegistry{index: make(map[string]uint32, len(barcodes))}

	for _, cellID := range barcodes {
		registry.add(cellID)
	}

	return registry
}

func (r *BarcodeRegistry) add(cellID string) {
	if _, isInside := r.index[cellID]; isInside {
		r.Duplicates++
	}

	r.index[cellID] = uint32(r.nbColumns)
	r.nbColumns++
}

/*Index return the column of barcode. The []byte form does not allocate */
func (r *BarcodeRegistry) Index(barcode []byte) (uint32, bool) {
	col, isInside := r.index[string(barcode)]
	return col, isInside
}

/*Len number of columns, one per barcode file line */
func (r *BarcodeRegistry) Len() int {
	return r.nbColumns
}

/*LoadBarcodeRegistry create cell ID index dict.
Each line is one column and the whole line, trailing carriage return aside, is the barcode.
A repeated barcode moves to its last line; the earlier lines stay empty columns,
so the column order always matches the file lines */
func LoadBarcodeRegistry(fname Filename) (*BarcodeRegistry, error) {
	scanner, f, err := fname.ReturnReader()

	if err != nil {
		return nil, err
	}

	defer f.Close()

	registry := &BarcodeRegistry{index: make(map[string]uint32)}

	for scanner.Scan() {
		registry.add(scanner.Text())
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("read barcodes %s: %w", fname, err)
	}

	return registry, nil
}
