package orclient

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/elee1766/gem/src/aisdk"
)

var (
	sseDataPrefix = []byte("data:")
	sseDone       = []byte("[DONE]")
)

// sseStream decodes an OpenAI-style server-sent event body into chunks.
type sseStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	logger *slog.Logger

	mu     sync.Mutex
	done   bool
	closed bool
}

func newSSEStream(body io.ReadCloser, logger *slog.Logger) *sseStream {
	return &sseStream{
		body:   body,
		reader: bufio.NewReader(body),
		logger: logger,
	}
}

// Read returns the next chunk carrying content, or io.EOF after [DONE].
func (s *sseStream) Read() (*aisdk.StreamChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.done {
		return nil, io.EOF
	}

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil && len(line) == 0 {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		line = bytes.TrimSpace(line)

		// blank separators and ": keep-alive" comments
		if len(line) == 0 || line[0] == ':' {
			continue
		}
		if !bytes.HasPrefix(line, sseDataPrefix) {
			continue
		}
		data := bytes.TrimSpace(line[len(sseDataPrefix):])
		if bytes.Equal(data, sseDone) {
			s.done = true
			return nil, io.EOF
		}

		var payload struct {
			aisdk.StreamChunk
			Error *APIError `json:"error,omitempty"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		if payload.Error != nil {
			return nil, payload.Error
		}
		chunk := payload.StreamChunk
		if chunk.Text() == "" && chunk.Usage == nil && !hasFinishReason(&chunk) {
			continue
		}
		return &chunk, nil
	}
}

func hasFinishReason(chunk *aisdk.StreamChunk) bool {
	return len(chunk.Choices) > 0 && chunk.Choices[0].FinishReason != ""
}

func (s *sseStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
