package core

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vexedit/vex/internal/log"
)

// maxMessageBytes bounds a single inbound message. Update payloads carry
// whole visible-line batches, so the limit is generous.
const maxMessageBytes = 16 << 20

// Handler receives notifications from the core. Notification is called
// synchronously from the peer's receive goroutine, in message arrival
// order; a slow handler delays everything behind it.
type Handler interface {
	Notification(method string, params json.RawMessage)
}

// ResponseFunc consumes the result of one request. The peer removes the
// request's pending entry before invoking it, outside the peer lock, so
// it is called at most once and may safely issue new requests.
type ResponseFunc func(result json.RawMessage)

// Peer correlates request/response traffic with the core process and
// dispatches its notifications. Any number of goroutines may send; one
// dedicated goroutine owns all receiving.
type Peer struct {
	// mu guards nextID, pending, and the outbound writer together: id
	// allocation, pending registration, and the write must be atomic so a
	// response can never race ahead of its own request's registration.
	mu      sync.Mutex
	w       io.Writer
	nextID  uint64
	pending map[uint64]ResponseFunc

	handler Handler
	logger  *log.Logger

	done chan struct{}
}

// request is the outbound wire shape. ID is a pointer so notifications
// omit it while request id 0 is still encoded.
type request struct {
	Method string  `json:"method"`
	Params any     `json:"params"`
	ID     *uint64 `json:"id,omitempty"`
}

// NewPeer starts a peer over the given streams and begins receiving.
// Inbound notifications go to handler; a nil logger discards diagnostics.
func NewPeer(r io.Reader, w io.Writer, handler Handler, logger *log.Logger) *Peer {
	if logger == nil {
		logger = log.Discard()
	}
	p := &Peer{
		w:       w,
		pending: make(map[uint64]ResponseFunc),
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go p.receiveLoop(r)
	return p
}

// SendNotification frames {method, params} and writes it to the core.
// Fire and forget: there is no completion signal.
func (p *Peer) SendNotification(method string, params any) error {
	if p.Disconnected() {
		return ErrDisconnected
	}
	data, err := json.Marshal(&request{Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal notification %q: %w", method, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write(data)
}

// SendRequest allocates the next request id, registers fn against it, and
// frames {method, params, id} to the core. Concurrent callers always
// receive distinct, strictly increasing ids. fn runs later on the receive
// goroutine when the matching response arrives; if it never does, fn is
// never called.
func (p *Peer) SendRequest(method string, params any, fn ResponseFunc) error {
	if p.Disconnected() {
		return ErrDisconnected
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	data, err := json.Marshal(&request{Method: method, Params: params, ID: &id})
	if err != nil {
		return fmt.Errorf("marshal request %q: %w", method, err)
	}
	if err := p.write(data); err != nil {
		return err
	}
	p.pending[id] = fn
	p.nextID++
	return nil
}

// write sends one newline-terminated message. Callers hold p.mu.
func (p *Peer) write(data []byte) error {
	data = append(data, '\n')
	if _, err := p.w.Write(data); err != nil {
		return fmt.Errorf("write to core: %w", err)
	}
	return nil
}

// Done is closed when the core's inbound stream has closed. Disconnection
// is observed here, never raised as an error to senders mid-flight.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// Disconnected reports whether the core has gone away.
func (p *Peer) Disconnected() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// receiveLoop demultiplexes inbound messages until the stream closes. No
// single message, however malformed or oversized, terminates the loop.
func (p *Peer) receiveLoop(r io.Reader) {
	defer close(p.done)

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := readMessage(br)
		if err == errMessageTooLong {
			p.logger.Warnf("discarding oversized core message")
			continue
		}
		if len(line) > 0 {
			p.dispatch(line)
		}
		if err != nil {
			if err == io.EOF {
				p.logger.Infof("core stream closed")
			} else {
				p.logger.Warnf("core stream closed: %v", err)
			}
			return
		}
	}
}

var errMessageTooLong = errors.New("message exceeds size limit")

// readMessage reads one newline-terminated message. A line longer than
// maxMessageBytes is consumed to its newline and reported as
// errMessageTooLong, so an oversized message is dropped rather than
// promoted to a disconnect.
func readMessage(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		line = append(line, chunk...)
		switch err {
		case nil:
			return line[:len(line)-1], nil
		case bufio.ErrBufferFull:
			if len(line) > maxMessageBytes {
				if err := discardLine(br); err != nil {
					return nil, err
				}
				return nil, errMessageTooLong
			}
		default:
			return line, err
		}
	}
}

// discardLine consumes input up to and including the next newline.
func discardLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		switch err {
		case nil:
			return nil
		case bufio.ErrBufferFull:
		default:
			return err
		}
	}
}

// dispatch routes one inbound message: a string method marks a
// notification, a numeric id marks a response, anything else is logged
// and dropped.
func (p *Peer) dispatch(data []byte) {
	var probe struct {
		Method *string         `json:"method"`
		Params json.RawMessage `json:"params"`
		ID     *uint64         `json:"id"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		p.logger.Warnf("discarding malformed core message: %v", err)
		return
	}

	switch {
	case probe.Method != nil:
		p.handler.Notification(*probe.Method, probe.Params)
	case probe.ID != nil:
		p.completeRequest(*probe.ID, probe.Result)
	default:
		p.logger.Warnf("discarding core message with neither method nor id: %s", data)
	}
}

// completeRequest pops the pending entry for id and fires its callback.
// The callback runs after the lock is released, so it may issue new
// requests without deadlocking.
func (p *Peer) completeRequest(id uint64, result json.RawMessage) {
	p.mu.Lock()
	fn, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	p.mu.Unlock()

	if !ok {
		p.logger.Warnf("response for unknown request id %d", id)
		return
	}
	fn(result)
}

// pendingCount reports the number of in-flight requests.
func (p *Peer) pendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
