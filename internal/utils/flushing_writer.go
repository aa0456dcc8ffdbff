package utils

import (
	"io"
	"sync"
)

// FlushingWriter forwards writes to an underlying writer and flushes it after
// each write when the writer exposes a Flush method. Fleet commands stream
// per-repository progress lines, so output must reach the terminal as it is
// produced rather than when a buffer fills.
type FlushingWriter struct {
	destination io.Writer
	writeMutex  sync.Mutex
}

// NewFlushingWriter wraps destination in a FlushingWriter. A nil destination
// yields nil, and an already wrapped writer is returned unchanged.
func NewFlushingWriter(destination io.Writer) io.Writer {
	if destination == nil {
		return nil
	}
	if _, alreadyWrapped := destination.(*FlushingWriter); alreadyWrapped {
		return destination
	}
	return &FlushingWriter{destination: destination}
}

// Write writes data to the destination and flushes it when supported.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.destination == nil {
		return 0, nil
	}

	flushingWriter.writeMutex.Lock()
	defer flushingWriter.writeMutex.Unlock()

	writtenByteCount, writeError := flushingWriter.destination.Write(data)
	if writeError != nil {
		return writtenByteCount, writeError
	}

	if flushable, supportsFlush := flushingWriter.destination.(interface{ Flush() error }); supportsFlush {
		if flushError := flushable.Flush(); flushError != nil {
			return writtenByteCount, flushError
		}
	}

	return writtenByteCount, nil
}
