package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"
)

// maxLineBytes bounds one stdio message. Sized for the worst-case JSON
// escaping of a maximum write_file payload (every byte expanding to \uXXXX)
// plus envelope overhead.
const maxLineBytes = 64 << 20

// ServeStdio reads one JSON-RPC message per line from r and writes one
// response per line to w. Malformed or oversized lines answer with a parse
// error and reading continues. Returns when r is exhausted or ctx is
// cancelled.
func ServeStdio(ctx context.Context, h *Handler, r io.Reader, w io.Writer, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("stdio")

	br := bufio.NewReaderSize(r, 64*1024)
	enc := json.NewEncoder(w)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line, tooLong, err := readLine(br)
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF

		switch {
		case tooLong:
			log.Warn("oversized message dropped", zap.Int("limit_bytes", maxLineBytes))
			if encErr := enc.Encode(errorResponse(nil, CodeParseError, "parse error: message too large")); encErr != nil {
				return encErr
			}
		case len(line) > 0:
			var req Request
			if jsonErr := json.Unmarshal(line, &req); jsonErr != nil {
				log.Warn("unparsable message", zap.Error(jsonErr))
				if encErr := enc.Encode(errorResponse(nil, CodeParseError, "parse error: invalid JSON")); encErr != nil {
					return encErr
				}
			} else if encErr := enc.Encode(h.Handle(ctx, req)); encErr != nil {
				return encErr
			}
		}

		if eof {
			return nil
		}
	}
}

// readLine accumulates one newline-terminated message from br. A line longer
// than maxLineBytes is drained to its newline and reported tooLong instead of
// buffered further.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, readErr := br.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineBytes {
				tooLong = true
				buf = nil
			}
		}
		switch readErr {
		case bufio.ErrBufferFull:
			continue
		case nil, io.EOF:
			return bytes.TrimRight(buf, "\r\n"), tooLong, readErr
		default:
			return nil, tooLong, readErr
		}
	}
}
