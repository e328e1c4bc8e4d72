package atacmatutils

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	utils "gitlab.com/Grouumf/ATACFragMatrix/ATACFragUtils"
)

/*PRODUCER name written in the matrix metadata */
const PRODUCER = "ATACFragMatrix"

/*VERSION ... */
const VERSION = "0.1.0"

/*ROWSPERCHUNK rows serialised before the buffer is handed to the compressor */
const ROWSPERCHUNK = 5000

/*MatrixHeader Matrix Market banner for integer counts or real (weighted) values */
func MatrixHeader(weighted bool) string {
	if weighted {
		return "%%MatrixMarket matrix coordinate real general\n"
	}

	return "%%MatrixMarket matrix coordinate integer general\n"
}

/*MatrixMetadata comment line naming the producer */
func MatrixMetadata() string {
	return fmt.Sprintf("%%%%metadata json: {\"software_version\": \"%s-%s\"}\n", PRODUCER, VERSION)
}

/*WriteMatrixMarket serialise matrix as Matrix Market coordinate text: header, metadata,
"<rows> <columns> <nonzero>" then one 1-based "<row> <column> <value>" line per entry,
rows in order and columns ascending within a row */
func WriteMatrixMarket(writer io.Writer, matrix *SparseMatrix, nbColumns int, weighted bool) error {
	var cols []uint32

	buffer := make([]byte, 0, utils.BUFFERSIZE)

	buffer = append(buffer, MatrixHeader(weighted)...)
	buffer = append(buffer, MatrixMetadata()...)
	buffer = strconv.AppendInt(buffer, int64(matrix.NbRows()), 10)
	buffer = append(buffer, ' ')
	buffer = strconv.AppendInt(buffer, int64(nbColumns), 10)
	buffer = append(buffer, ' ')
	buffer = strconv.AppendInt(buffer, int64(matrix.NNZ()), 10)
	buffer = append(buffer, '\n')

	for row := 0; row < matrix.NbRows(); row++ {
		values := matrix.Row(row)
		cols = matrix.SortedColumns(row, cols[:0])

		for _, col := range cols {
			buffer = strconv.AppendInt(buffer, int64(row)+1, 10)
			buffer = append(buffer, ' ')
			buffer = strconv.AppendInt(buffer, int64(col)+1, 10)
			buffer = append(buffer, ' ')
			buffer = strconv.AppendFloat(buffer, float64(values[col]), 'f', -1, 32)
			buffer = append(buffer, '\n')
		}

		if row%ROWSPERCHUNK == 0 {
			if _, err := writer.Write(buffer); err != nil {
				return fmt.Errorf("write matrix: %w", err)
			}

			buffer = buffer[:0]
		}
	}

	if len(buffer) > 0 {
		if _, err := writer.Write(buffer); err != nil {
			return fmt.Errorf("write matrix: %w", err)
		}
	}

	return nil
}

/*WriteMatrixFile write matrix to fname compressed by threadnb parallel gzip workers */
func WriteMatrixFile(fname string, matrix *SparseMatrix, nbColumns int, weighted bool, threadnb int) error {
	log := utils.WithPhase("write")
	tStart := time.Now()

	if threadnb < 1 {
		return utils.ErrNoThreads
	}

	outputFile, err := os.Create(fname)

	if err != nil {
		return fmt.Errorf("create %s: %w", fname, err)
	}

	defer outputFile.Close()

	gzipWriter, err := utils.NewParallelGzipWriter(outputFile, threadnb)

	if err != nil {
		return err
	}

	if err = WriteMatrixMarket(gzipWriter, matrix, nbColumns, weighted); err != nil {
		gzipWriter.Close()
		return err
	}

	if err = gzipWriter.Close(); err != nil {
		return fmt.Errorf("compress %s: %w", fname, err)
	}

	if err = outputFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", fname, err)
	}

	log.Info().
		Str("file", fname).
		Int("nonzero", matrix.NNZ()).
		Int("threads", threadnb).
		Msgf("file: %s created in %f s", fname, time.Since(tStart).Seconds())

	return nil
}
