package usecase

import (
	"context"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	mid "Epoch/internal/middleware"
)

// LiveCollector consumes minute bars from the market stream and feeds
// them through the pipeline into the bar processor.
type LiveCollector struct {
	stream  drepo.MarketStream
	proc    *BarProcessor
	metrics drepo.Metrics
	pipe    *mid.BarPipeline
}

func NewLiveCollector(stream drepo.MarketStream, proc *BarProcessor, metrics drepo.Metrics, pipe *mid.BarPipeline) *LiveCollector {
	return &LiveCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *LiveCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *LiveCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	barCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, barCh, errCh)
	return nil
}

func (c *LiveCollector) consume(ctx context.Context, barCh <-chan *models.Bar, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case b := <-barCh:
			if b == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, b)
			} else {
				_ = c.proc.Process(ctx, b)
			}
		}
	}
}

// Processor returns the underlying BarProcessor for lifecycle management.
func (c *LiveCollector) Processor() *BarProcessor { return c.proc }

// Shutdown stops the pipeline, flushes in-progress buckets and closes
// the stream.
func (c *LiveCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	if c.proc != nil {
		_ = c.proc.Flush(ctx)
	}
	return c.stream.Close()
}
