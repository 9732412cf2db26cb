package provider

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxSSELineSize caps one SSE line at 1 MB. The default bufio.Scanner limit
// of 64 KiB is too small for long completion chunks.
const maxSSELineSize = 1 * 1024 * 1024

// sseScanner reads server-sent events from a response body. It skips
// comments and blank lines and treats the [DONE] sentinel as end of stream.
type sseScanner struct {
	scanner *bufio.Scanner
}

func newSSEScanner(r io.Reader) *sseScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &sseScanner{scanner: scanner}
}

// Next returns the next data payload. It returns io.EOF when the stream is
// exhausted or the [DONE] sentinel arrives; any other error is a framing or
// transport failure.
func (s *sseScanner) Next() (string, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			// event:, id:, retry: fields carry nothing we consume
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return "", io.EOF
		}
		return data, nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("stream read failed: %w", err)
	}
	return "", io.EOF
}
