package pi30

import (
	"errors"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ReplyFunc builds the reply of a TestDevice to a received frame.
// A nil reply keeps the device silent.
type ReplyFunc func(frame Frame) []byte

func ReplyACK(Frame) []byte {
	return []byte("(ACK9 \r")
}

func ReplyNAK(Frame) []byte {
	return []byte("(NAKss\r")
}

func ReplySilent(Frame) []byte {
	return nil
}

func ReplyWith(reply []byte) ReplyFunc {
	return func(Frame) []byte {
		return reply
	}
}

// ReplyChecked rejects frames with a bad checksum and delegates the rest.
func ReplyChecked(next ReplyFunc) ReplyFunc {
	return func(frame Frame) []byte {
		if frame.Validate() != nil {
			return ReplyNAK(frame)
		}
		return next(frame)
	}
}

// TestDevice is a loopback inverter stand-in. It records every frame it
// receives and counts the connections closed by the peer, so tests can check
// that clients never leak sockets.
type TestDevice struct {
	listener net.Listener
	reply    ReplyFunc
	logger   *zap.Logger

	mu     sync.Mutex
	frames []Frame
	conns  map[net.Conn]struct{}

	accepted atomic.Int32
	released atomic.Int32
	wg       sync.WaitGroup
}

func NewTestDevice(reply ReplyFunc) (*TestDevice, error) {
	return NewTestDeviceOn("127.0.0.1:0", reply, nil)
}

func NewTestDeviceOn(addr string, reply ReplyFunc, logger *zap.Logger) (*TestDevice, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dev := &TestDevice{
		listener: listener,
		reply:    reply,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
	}
	dev.wg.Add(1)
	go dev.serve()
	return dev, nil
}

func (d *TestDevice) Addr() string {
	return d.listener.Addr().String()
}

func (d *TestDevice) Host() string {
	host, _, _ := net.SplitHostPort(d.Addr())
	return host
}

func (d *TestDevice) Port() int {
	_, port, _ := net.SplitHostPort(d.Addr())
	p, _ := strconv.Atoi(port)
	return p
}

// Frames returns the frames received so far.
func (d *TestDevice) Frames() []Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Frame, len(d.frames))
	copy(out, d.frames)
	return out
}

func (d *TestDevice) Accepted() int {
	return int(d.accepted.Load())
}

// OpenConnections is the number of accepted connections not yet closed by the client.
func (d *TestDevice) OpenConnections() int {
	return int(d.accepted.Load() - d.released.Load())
}

func (d *TestDevice) Close() error {
	err := d.listener.Close()
	d.mu.Lock()
	for conn := range d.conns {
		conn.Close()
	}
	d.mu.Unlock()
	d.wg.Wait()
	return err
}

func (d *TestDevice) serve() {
	defer d.wg.Done()
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return
		}
		d.accepted.Add(1)
		d.mu.Lock()
		d.conns[conn] = struct{}{}
		d.mu.Unlock()
		d.wg.Add(1)
		go d.handle(conn)
	}
}

func (d *TestDevice) handle(conn net.Conn) {
	defer d.wg.Done()
	defer func() {
		d.mu.Lock()
		delete(d.conns, conn)
		d.mu.Unlock()
		conn.Close()
	}()

	frame, err := readFrame(conn)
	if len(frame) > 0 {
		d.mu.Lock()
		d.frames = append(d.frames, frame)
		d.mu.Unlock()
		d.logger.Info("device: frame received", zap.Stringer("frame", frame), zap.NamedError("validation", frame.Validate()))

		if d.reply != nil {
			if reply := d.reply(frame); len(reply) > 0 {
				if _, err := conn.Write(reply); err != nil {
					d.logger.Warn("device: reply failed", zap.Error(err))
				}
			}
		}
	}
	if err != nil {
		d.released.Add(1)
		return
	}

	// wait for the client to hang up
	buf := make([]byte, 64)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(30 * time.Second)); err != nil {
			return
		}
		if _, err := conn.Read(buf); err != nil {
			if !errors.Is(err, os.ErrDeadlineExceeded) {
				d.released.Add(1)
			}
			return
		}
	}
}

// readFrame reads until a checksum-valid terminated frame is buffered. A
// terminated but corrupt frame is returned once the line goes idle. A non nil
// error means the peer closed the connection.
func readFrame(conn net.Conn) (Frame, error) {
	var frame Frame
	buf := make([]byte, 256)
	idle := 30 * time.Second
	for {
		if err := conn.SetReadDeadline(time.Now().Add(idle)); err != nil {
			return frame, err
		}
		n, err := conn.Read(buf)
		frame = append(frame, buf[:n]...)
		if len(frame) > 0 && frame[len(frame)-1] == Terminator {
			if frame.Validate() == nil {
				return frame, nil
			}
			idle = 100 * time.Millisecond
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) && len(frame) > 0 {
				return frame, nil
			}
			return frame, err
		}
	}
}
