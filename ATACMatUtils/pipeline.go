package atacmatutils

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	utils "gitlab.com/Grouumf/ATACFragMatrix/ATACFragUtils"
)

/*BATCHLINES number of lines handed from the reader to the aggregator at once */
const BATCHLINES = 4096

/*CHANNELSIZE number of batches the reader may run ahead of the aggregator */
const CHANNELSIZE = 64

type lineBatch struct {
	data []byte
	ends []int
}

func (b *lineBatch) reset() {
	b.data = b.data[:0]
	b.ends = b.ends[:0]
}

func (b *lineBatch) add(line []byte) {
	b.data = append(b.data, line...)
	b.ends = append(b.ends, len(b.data))
}

var batchPool = sync.Pool{
	New: func() interface{} {
		return &lineBatch{
			data: make([]byte, 0, BATCHLINES*64),
			ends: make([]int, 0, BATCHLINES),
		}
	},
}

/*Run aggregate every line of reader. A reader goroutine decodes and splits lines while
the calling goroutine aggregates them. Only read errors and ctx cancellation are returned */
func (a *Aggregator) Run(ctx context.Context, reader io.Reader) error {
	tStart := time.Now()
	group, groupCtx := errgroup.WithContext(ctx)
	batches := make(chan *lineBatch, CHANNELSIZE)

	group.Go(func() error {
		defer close(batches)
		return produceBatches(groupCtx, reader, batches)
	})

	group.Go(func() error {
		for batch := range batches {
			begin := 0

			for _, end := range batch.ends {
				a.ProcessLine(batch.data[begin:end])
				begin = end
			}

			batch.reset()
			batchPool.Put(batch)
		}

		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	a.log.Info().
		Int64("lines", a.Stats.FragmentLines).
		Int64("counted", a.Stats.Counted).
		Int64("unknown_barcodes", a.Stats.UnknownBarcodes).
		Int64("malformed", a.Stats.Malformed+a.Stats.ShortLines).
		Int64("unsorted", a.Stats.Unsorted).
		Int("nonzero", a.matrix.NNZ()).
		Msgf("Scanning done in time: %f s", time.Since(tStart).Seconds())

	return nil
}

// produceBatches scan reader into batches. It stops without error when ctx is done
func produceBatches(ctx context.Context, reader io.Reader, batches chan<- *lineBatch) error {
	scanner := utils.NewScanner(reader)
	batch := batchPool.Get().(*lineBatch)

	send := func() bool {
		select {
		case batches <- batch:
			batch = batchPool.Get().(*lineBatch)
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		batch.add(scanner.Bytes())

		if len(batch.ends) >= BATCHLINES && !send() {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read fragments: %w", err)
	}

	if len(batch.ends) > 0 {
		send()
	}

	return nil
}
