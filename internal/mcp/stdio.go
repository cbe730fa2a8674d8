// In file: internal/mcp/stdio.go
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// maxMessageSize bounds a single newline-delimited message on stdin.
const maxMessageSize = 1 << 20

// inbound is one line read from the stdio transport.
type inbound struct {
	data     []byte
	tooLarge bool
}

// ServeStdio reads newline-delimited JSON-RPC messages from r and writes each
// response as one line to w. Requests are handled concurrently; writes are
// serialized. A line longer than maxMessageSize is answered with a parse error.
// It returns when r is exhausted or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	s.log.WithFields(logrus.Fields{"server": s.info.Name, "version": s.info.Version}).Info("👂 Serving MCP over stdio")

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	enc := json.NewEncoder(w)
	write := func(resp *Response) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := enc.Encode(resp); err != nil {
			s.log.WithField("error", err).Error("mcp stdio: write failed")
		}
	}

	lines := make(chan inbound)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		br := bufio.NewReaderSize(r, 64*1024)
		for {
			line, tooLarge, err := readLine(br)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
			if !tooLarge {
				line = bytes.TrimSpace(line)
				if len(line) == 0 {
					continue
				}
			}
			select {
			case lines <- inbound{data: line, tooLarge: tooLarge}:
			case <-ctx.Done():
				return
			}
		}
	}()

	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("mcp stdio: read: %w", err)
				default:
				}
				return nil
			}
			if msg.tooLarge {
				s.log.WithField("limit_bytes", maxMessageSize).Warn("mcp stdio: message too large")
				write(errorResponse(nil, CodeParseError, fmt.Sprintf("Parse error: message exceeds %d bytes", maxMessageSize)))
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if resp := s.HandleMessage(ctx, msg.data); resp != nil {
					write(resp)
				}
			}()
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxMessageSize is consumed to its end and reported as tooLarge with no data.
// A final line without a trailing newline is still returned.
func readLine(br *bufio.Reader) (line []byte, tooLarge bool, err error) {
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return nil, false, err
		}
		if !tooLarge {
			if len(line)+len(chunk) > maxMessageSize {
				tooLarge, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLarge, nil
		}
	}
}
