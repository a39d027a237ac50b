package transport

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/viant/dbgadapter"
)

// Decoder implements the length-prefixed frame decoder state machine:
// accumulate bytes, find the "Content-Length: <N>\r\n\r\n" header, then
// read exactly N bytes as one JSON frame.
type Decoder struct {
	reader        *bufio.Reader
	contentLength int
}

// NewDecoder wraps a buffered reader with the frame decoder.
func NewDecoder(reader *bufio.Reader) *Decoder {
	return &Decoder{reader: reader, contentLength: -1}
}

// ReadFrame blocks until one full frame has been read, returning its raw
// JSON body. Empty bodies (Content-Length: 0) are skipped, and the loop
// continues onto the next header.
func (d *Decoder) ReadFrame() ([]byte, error) {
	for {
		if d.contentLength < 0 {
			n, err := d.readContentLength()
			if err != nil {
				return nil, err
			}
			d.contentLength = n
		}
		if d.contentLength == 0 {
			d.contentLength = -1
			continue
		}
		body := make([]byte, d.contentLength)
		if _, err := readFull(d.reader, body); err != nil {
			return nil, err
		}
		d.contentLength = -1
		return body, nil
	}
}

func (d *Decoder) readContentLength() (int, error) {
	length := -1
	for {
		line, err := d.reader.ReadString('\n')
		if err != nil {
			return -1, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), dbgadapter.HeaderContentLength) {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return -1, dbgadapter.NewProtocolFramingError(err)
			}
			length = n
		}
	}
	if length < 0 {
		return -1, dbgadapter.NewProtocolFramingError(errMissingContentLength)
	}
	return length, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

var errMissingContentLength = missingContentLengthError{}

type missingContentLengthError struct{}

func (missingContentLengthError) Error() string {
	return "header present without a valid Content-Length"
}
