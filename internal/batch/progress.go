package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// ProgressCallback reports run progress. Implementations must be safe for
// concurrent use when more than one worker is configured.
type ProgressCallback interface {
	// OnStart is called once with the number of eligible images.
	OnStart(total int)
	// OnImage is called when an image is picked up for processing.
	OnImage(name string)
	// OnComplete is called after the report was written.
	OnComplete(outputFile string)
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)       {}
func (NoOpProgressCallback) OnImage(string)    {}
func (NoOpProgressCallback) OnComplete(string) {}

// ConsoleProgressCallback prints one human-readable line per image.
type ConsoleProgressCallback struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewConsoleProgressCallback writes to writer, or stdout when nil.
func NewConsoleProgressCallback(writer io.Writer) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stdout
	}
	return &ConsoleProgressCallback{writer: writer}
}

func (c *ConsoleProgressCallback) OnStart(int) {}

func (c *ConsoleProgressCallback) OnImage(name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, _ = fmt.Fprintf(c.writer, "Processing image: %s\n", name)
}

func (c *ConsoleProgressCallback) OnComplete(outputFile string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, _ = fmt.Fprintf(c.writer, "Results saved to %s\n", outputFile)
}

// LogProgressCallback reports progress through slog.
type LogProgressCallback struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogProgressCallback creates a log-based progress reporter.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.logger.Log(context.Background(), l.level, "starting batch", "images", total)
}

func (l *LogProgressCallback) OnImage(name string) {
	l.logger.Log(context.Background(), l.level, "processing image", "image", name)
}

func (l *LogProgressCallback) OnComplete(outputFile string) {
	l.logger.Log(context.Background(), l.level, "results saved", "output", outputFile)
}

// MultiProgressCallback fans out to several callbacks.
type MultiProgressCallback struct {
	callbacks []ProgressCallback
}

// NewMultiProgressCallback creates a progress callback that reports to multiple callbacks.
func NewMultiProgressCallback(callbacks ...ProgressCallback) *MultiProgressCallback {
	return &MultiProgressCallback{callbacks: callbacks}
}

func (m *MultiProgressCallback) OnStart(total int) {
	for _, cb := range m.callbacks {
		cb.OnStart(total)
	}
}

func (m *MultiProgressCallback) OnImage(name string) {
	for _, cb := range m.callbacks {
		cb.OnImage(name)
	}
}

func (m *MultiProgressCallback) OnComplete(outputFile string) {
	for _, cb := range m.callbacks {
		cb.OnComplete(outputFile)
	}
}
