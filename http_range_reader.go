package rastergrid

import (
	"fmt"
	"io"
	"sync"

	"github.com/valyala/fasthttp"
)

// Default read-ahead window for sequential access.
const defaultReadAheadSize = 64 * 1024

// HTTPRangeReader is an io.ReadSeeker over a remote file fetched with HTTP
// range requests. A read-ahead buffer keeps tag directories and small strip
// reads from turning into one request per Read.
type HTTPRangeReader struct {
	url    string
	client *fasthttp.Client
	size   int64

	mu          sync.Mutex
	pos         int64
	buffer      []byte
	bufferStart int64 // file offset of buffer[0]
	bufferEnd   int64 // exclusive
	readAhead   int
}

// NewHTTPRangeReader creates a range reader for the given URL. The file size
// is probed with a HEAD request; -1 means unknown.
func NewHTTPRangeReader(url string, client *fasthttp.Client) *HTTPRangeReader {
	rr := &HTTPRangeReader{
		url:         url,
		client:      client,
		readAhead:   defaultReadAheadSize,
		bufferStart: -1,
		bufferEnd:   -1,
	}
	rr.size = rr.probeSize()
	return rr
}

// SetReadAheadSize adjusts the read-ahead window. Larger windows mean fewer
// requests for sequential scans at the cost of memory.
func (rr *HTTPRangeReader) SetReadAheadSize(size int) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if size > 0 {
		rr.readAhead = size
	}
}

// Size returns the remote file size, or -1 if unknown.
func (rr *HTTPRangeReader) Size() int64 { return rr.size }

func (rr *HTTPRangeReader) probeSize() int64 {
	if rr.client == nil {
		return -1
	}
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rr.url)
	req.Header.SetMethod(fasthttp.MethodHead)
	if err := rr.client.Do(req, resp); err != nil {
		return -1
	}
	if n := resp.Header.ContentLength(); n > 0 {
		return int64(n)
	}
	return -1
}

// Read reads from the current position, serving from the read-ahead buffer
// when it covers the request.
func (rr *HTTPRangeReader) Read(p []byte) (int, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if rr.size > 0 && rr.pos >= rr.size {
		return 0, io.EOF
	}
	toRead := len(p)
	if rr.size > 0 && rr.pos+int64(toRead) > rr.size {
		toRead = int(rr.size - rr.pos)
	}

	if rr.buffer != nil && rr.pos >= rr.bufferStart && rr.pos < rr.bufferEnd {
		off := int(rr.pos - rr.bufferStart)
		avail := int(rr.bufferEnd - rr.pos)
		if avail >= toRead {
			n := copy(p[:toRead], rr.buffer[off:off+toRead])
			rr.pos += int64(n)
			return n, nil
		}
		n := copy(p[:avail], rr.buffer[off:])
		rr.pos += int64(n)
		nn, err := rr.readDirect(p[n:toRead])
		return n + nn, err
	}

	return rr.readWithReadAhead(p, toRead)
}

func (rr *HTTPRangeReader) readWithReadAhead(p []byte, toRead int) (int, error) {
	readSize := rr.readAhead
	if readSize < toRead {
		readSize = toRead
	}
	if rr.size > 0 && rr.pos+int64(readSize) > rr.size {
		readSize = int(rr.size - rr.pos)
	}

	data, err := rr.fetchRange(rr.pos, rr.pos+int64(readSize)-1)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, io.EOF
	}

	if len(data) > toRead {
		if cap(rr.buffer) >= len(data) {
			rr.buffer = rr.buffer[:len(data)]
		} else {
			rr.buffer = make([]byte, len(data))
		}
		copy(rr.buffer, data)
		rr.bufferStart = rr.pos
		rr.bufferEnd = rr.pos + int64(len(data))
	}

	if len(data) < toRead {
		toRead = len(data)
	}
	n := copy(p[:toRead], data[:toRead])
	rr.pos += int64(n)
	return n, nil
}

func (rr *HTTPRangeReader) readDirect(p []byte) (int, error) {
	data, err := rr.fetchRange(rr.pos, rr.pos+int64(len(p))-1)
	if err != nil {
		return 0, err
	}
	n := copy(p, data)
	rr.pos += int64(n)
	return n, nil
}

func (rr *HTTPRangeReader) fetchRange(start, end int64) ([]byte, error) {
	if rr.size > 0 && end >= rr.size {
		end = rr.size - 1
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rr.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))

	if err := rr.client.Do(req, resp); err != nil {
		return nil, err
	}
	status := resp.StatusCode()
	if status != fasthttp.StatusPartialContent && status != fasthttp.StatusOK {
		return nil, fmt.Errorf("range request: unexpected status %d", status)
	}

	// The response body is pooled; copy it out.
	body := resp.Body()
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

// Seek sets the position for the next Read. Seeking outside the buffered
// range drops the read-ahead buffer.
func (rr *HTTPRangeReader) Seek(offset int64, whence int) (int64, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = rr.pos + offset
	case io.SeekEnd:
		if rr.size < 0 {
			return 0, fmt.Errorf("cannot seek from end: size unknown")
		}
		pos = rr.size + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative position: %d", pos)
	}

	if rr.buffer != nil && (pos < rr.bufferStart || pos >= rr.bufferEnd) {
		rr.bufferStart = -1
		rr.bufferEnd = -1
	}
	rr.pos = pos
	return pos, nil
}
