package log

import (
	"errors"
	"io"
	"os"
)

// MultiWriter fans every log line out to all appenders. A failing appender
// does not stop the others.
type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{}
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

// Len returns the number of appenders.
func (m *MultiWriter) Len() int { return len(m.writers) }

func (m *MultiWriter) Write(p []byte) (int, error) {
	var errs []error
	for _, w := range m.writers {
		if _, err := w.Write(p); err != nil {
			errs = append(errs, err)
		}
	}
	return len(p), errors.Join(errs...)
}

// Close closes every appender that holds a resource, such as a rotating file.
func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if w == io.Writer(os.Stdout) || w == io.Writer(os.Stderr) {
			continue
		}
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
