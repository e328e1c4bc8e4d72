package atacfragutils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/biogo/hts/bgzf"
	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
)

/*BUFFERSIZE initial scanner buffer size */
const BUFFERSIZE = 1000000

/*MAXLINESIZE longest line accepted by the scanners */
const MAXLINESIZE = 64 * BUFFERSIZE

/*GZIPBLOCKSIZE block size handed to each parallel gzip worker */
const GZIPBLOCKSIZE = 1 << 20

/*ErrNoThreads returned when a compressor is asked to run with less than one worker */
var ErrNoThreads = errors.New("thread count must be at least 1")

/*ErrNotDirectory returned when the output path exists and is not a directory */
var ErrNotDirectory = errors.New("output path is not a directory")

/*Filename type used to check if files exists */
type Filename string

/*Set ... */
func (i *Filename) Set(filename string) error {
	if _, err := os.Stat(filename); err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}

	*i = Filename(filename)
	return nil
}

func (i *Filename) String() string {
	return string(*i)
}

/*Type used by pflag to describe the value */
func (i *Filename) Type() string {
	return "filename"
}

/*ReturnReader Return reader for file */
func (i *Filename) ReturnReader() (*bufio.Scanner, io.Closer, error) {
	return ReturnReader(string(*i))
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error

	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

/*NewScanner return a line scanner accepting lines up to MAXLINESIZE */
func NewScanner(reader io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, BUFFERSIZE), MAXLINESIZE)

	return scanner
}

/*ReturnReader open fname and return a line scanner, decompressing .gz, .bz2, .zst and .lz4 files */
func ReturnReader(fname string) (*bufio.Scanner, io.Closer, error) {
	reader, closer, err := OpenDecompressed(fname)

	if err != nil {
		return nil, nil, err
	}

	return NewScanner(reader), closer, nil
}

/*OpenFragments open a fragment file as a decompressed byte stream.
BGZF files (bgzip, tabix ready) are decoded with threadnb workers,
any other gzip file, multi-member included, with pgzip */
func OpenFragments(fname string, threadnb int) (io.Reader, io.Closer, error) {
	return openDecompressed(fname, threadnb)
}

/*OpenDecompressed open fname as a decompressed byte stream chosen by extension */
func OpenDecompressed(fname string) (io.Reader, io.Closer, error) {
	return openDecompressed(fname, 1)
}

func openDecompressed(fname string, threadnb int) (io.Reader, io.Closer, error) {
	fileOpen, err := os.Open(fname)

	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", fname, err)
	}

	if threadnb < 1 {
		threadnb = 1
	}

	switch path.Ext(fname) {
	case ".gz", ".bgz":
		if isBgzf(fileOpen) {
			readerBgzf, err := bgzf.NewReader(bufio.NewReaderSize(fileOpen, BUFFERSIZE), threadnb)

			if err != nil {
				fileOpen.Close()
				return nil, nil, fmt.Errorf("bgzf reader %s: %w", fname, err)
			}

			return readerBgzf, multiCloser{fileOpen, readerBgzf}, nil
		}

		readerGzip, err := gzip.NewReader(bufio.NewReaderSize(fileOpen, BUFFERSIZE))

		if err != nil {
			fileOpen.Close()
			return nil, nil, fmt.Errorf("gzip reader %s: %w", fname, err)
		}

		return readerGzip, multiCloser{fileOpen, readerGzip}, nil

	case ".bz2":
		readerBzip, err := bzip2.NewReader(bufio.NewReaderSize(fileOpen, BUFFERSIZE), new(bzip2.ReaderConfig))

		if err != nil {
			fileOpen.Close()
			return nil, nil, fmt.Errorf("bzip2 reader %s: %w", fname, err)
		}

		return readerBzip, multiCloser{fileOpen, readerBzip}, nil

	case ".zst":
		readerZstd, err := zstd.NewReader(bufio.NewReaderSize(fileOpen, BUFFERSIZE), zstd.WithDecoderConcurrency(threadnb))

		if err != nil {
			fileOpen.Close()
			return nil, nil, fmt.Errorf("zstd reader %s: %w", fname, err)
		}

		release := closerFunc(func() error {
			readerZstd.Close()
			return nil
		})

		return readerZstd, multiCloser{fileOpen, release}, nil

	case ".lz4":
		readerLz4 := lz4.NewReader(bufio.NewReaderSize(fileOpen, BUFFERSIZE))

		if err = readerLz4.Apply(lz4.ConcurrencyOption(threadnb)); err != nil {
			fileOpen.Close()
			return nil, nil, fmt.Errorf("lz4 reader %s: %w", fname, err)
		}

		return readerLz4, fileOpen, nil
	}

	return fileOpen, fileOpen, nil
}

func isBgzf(f *os.File) bool {
	hasEOF, err := bgzf.HasEOF(f)

	return err == nil && hasEOF
}

type fileWriter struct {
	io.WriteCloser
	file *os.File
}

func (w fileWriter) Close() error {
	errWriter := w.WriteCloser.Close()
	errFile := w.file.Close()

	if errWriter != nil {
		return errWriter
	}

	return errFile
}

/*ReturnWriter create fname and return a writer compressing by extension.
.gz, .zst and .lz4 files are written by threadnb parallel workers */
func ReturnWriter(fname string, threadnb int) (io.WriteCloser, error) {
	switch path.Ext(fname) {
	case ".gz":
		return ReturnWriterForGzipFile(fname, threadnb)
	case ".bz2":
		return ReturnWriterForBzipfile(fname)
	case ".zst":
		return ReturnWriterForZstdFile(fname, threadnb)
	case ".lz4":
		return ReturnWriterForLz4File(fname, threadnb)
	}

	outputFile, err := os.Create(fname)

	if err != nil {
		return nil, fmt.Errorf("create %s: %w", fname, err)
	}

	return outputFile, nil
}

/*NewParallelGzipWriter wrap writer into a gzip compressor running threadnb workers */
func NewParallelGzipWriter(writer io.Writer, threadnb int) (*gzip.Writer, error) {
	if threadnb < 1 {
		return nil, ErrNoThreads
	}

	gzipWriter, err := gzip.NewWriterLevel(writer, gzip.DefaultCompression)

	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}

	if err = gzipWriter.SetConcurrency(GZIPBLOCKSIZE, threadnb); err != nil {
		return nil, fmt.Errorf("gzip concurrency: %w", err)
	}

	return gzipWriter, nil
}

/*ReturnWriterForGzipFile ... */
func ReturnWriterForGzipFile(fname string, threadnb int) (io.WriteCloser, error) {
	if threadnb < 1 {
		return nil, ErrNoThreads
	}

	outputFile, err := os.Create(fname)

	if err != nil {
		return nil, fmt.Errorf("create %s: %w", fname, err)
	}

	gzipFile, err := NewParallelGzipWriter(outputFile, threadnb)

	if err != nil {
		outputFile.Close()
		return nil, err
	}

	return fileWriter{WriteCloser: gzipFile, file: outputFile}, nil
}

/*ReturnWriterForBzipfile ... */
func ReturnWriterForBzipfile(fname string) (io.WriteCloser, error) {
	outputFile, err := os.Create(fname)

	if err != nil {
		return nil, fmt.Errorf("create %s: %w", fname, err)
	}

	bzipFile, err := bzip2.NewWriter(outputFile, new(bzip2.WriterConfig))

	if err != nil {
		outputFile.Close()
		return nil, fmt.Errorf("bzip2 writer %s: %w", fname, err)
	}

	return fileWriter{WriteCloser: bzipFile, file: outputFile}, nil
}

/*ReturnWriterForZstdFile ... */
func ReturnWriterForZstdFile(fname string, threadnb int) (io.WriteCloser, error) {
	if threadnb < 1 {
		return nil, ErrNoThreads
	}

	outputFile, err := os.Create(fname)

	if err != nil {
		return nil, fmt.Errorf("create %s: %w", fname, err)
	}

	zstdFile, err := zstd.NewWriter(outputFile, zstd.WithEncoderConcurrency(threadnb))

	if err != nil {
		outputFile.Close()
		return nil, fmt.Errorf("zstd writer %s: %w", fname, err)
	}

	return fileWriter{WriteCloser: zstdFile, file: outputFile}, nil
}

/*ReturnWriterForLz4File ... */
func ReturnWriterForLz4File(fname string, threadnb int) (io.WriteCloser, error) {
	if threadnb < 1 {
		return nil, ErrNoThreads
	}

	outputFile, err := os.Create(fname)

	if err != nil {
		return nil, fmt.Errorf("create %s: %w", fname, err)
	}

	lz4File := lz4.NewWriter(outputFile)

	if err = lz4File.Apply(lz4.ConcurrencyOption(threadnb)); err != nil {
		outputFile.Close()
		return nil, fmt.Errorf("lz4 writer %s: %w", fname, err)
	}

	return fileWriter{WriteCloser: lz4File, file: outputFile}, nil
}

/*PrepareOutputDir create dirname if needed and check it is a directory */
func PrepareOutputDir(dirname string) error {
	if err := os.MkdirAll(dirname, 0755); err != nil {
		info, errStat := os.Stat(dirname)

		if errStat == nil && !info.IsDir() {
			return fmt.Errorf("%s: %w", dirname, ErrNotDirectory)
		}

		return fmt.Errorf("create output directory %s: %w", dirname, err)
	}

	info, err := os.Stat(dirname)

	if err != nil {
		return fmt.Errorf("stat output directory %s: %w", dirname, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", dirname, ErrNotDirectory)
	}

	return nil
}

/*CopyFile copy src to dst byte for byte and return the number of bytes copied */
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)

	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}

	defer in.Close()

	out, err := os.Create(dst)

	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}

	nbBytes, err := io.Copy(out, in)

	if err != nil {
		out.Close()
		return nbBytes, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	return nbBytes, out.Close()
}

/*CompressedExt return the compression extension of fname (.gz, .bz2, .zst, .lz4) or "" */
func CompressedExt(fname string) string {
	switch ext := filepath.Ext(fname); ext {
	case ".gz", ".bz2", ".zst", ".lz4":
		return ext
	}

	return ""
}
