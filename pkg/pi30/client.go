package pi30

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout        = 2 * time.Second
	DefaultReadBufferSize = 1024
)

var ErrEmptyResponse = errors.New("pi30: no response before timeout")

// TransportError wraps a connect, write or read failure.
type TransportError struct {
	Stage string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pi30 %s: %v", e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Instrument struct {
	RecordTime    func(fnName string, elapsed time.Duration)
	RecordOutcome func(outcome Outcome)
}

type ClientOptions struct {
	// bounds the connect and write steps and the whole read phase
	Timeout time.Duration
	// bounds each single read, capped by the read phase deadline. 0 means Timeout.
	ReadTimeout    time.Duration
	ReadBufferSize int
}

// Result describes a finished transaction.
type Result struct {
	Outcome  Outcome
	Response []byte
	Err      error
	Elapsed  time.Duration
}

// Client runs one connect-send-receive-classify cycle per call. It keeps no
// connection between calls and is safe for concurrent use.
type Client struct {
	timeout     time.Duration
	readTimeout time.Duration
	bufferSize  int
	logger      *zap.Logger
	instrument  []Instrument
}

func NewClient(opts ClientOptions, logger *zap.Logger, instrumentation *Instrument) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ReadTimeout <= 0 || opts.ReadTimeout > opts.Timeout {
		opts.ReadTimeout = opts.Timeout
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = DefaultReadBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var inst []Instrument
	logInst := traceLoggerInstrumentation(logger)
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	return &Client{
		timeout:     opts.Timeout,
		readTimeout: opts.ReadTimeout,
		bufferSize:  opts.ReadBufferSize,
		logger:      logger,
		instrument:  inst,
	}
}

// Timeout returns the per step bound used by the client.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// MaxDuration is the longest a transaction can block: connect, write and the
// read phase are each bounded by the timeout.
func (c *Client) MaxDuration() time.Duration {
	return 3 * c.timeout
}

// Transact sends frame to host:port and classifies the reply.
func (c *Client) Transact(frame Frame, host string, port int) Outcome {
	return c.Exchange(frame, host, port).Outcome
}

// Exchange is Transact, also returning the raw reply and the failure cause.
func (c *Client) Exchange(frame Frame, host string, port int) (result Result) {
	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start)
		c.recordOutcome(result.Outcome)
	}()

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := c.connect(addr)
	if err != nil {
		return Result{Outcome: CommunicationError, Err: &TransportError{Stage: "connect", Err: err}}
	}
	defer conn.Close()

	if err := c.send(conn, frame); err != nil {
		return Result{Outcome: CommunicationError, Err: &TransportError{Stage: "write", Err: err}}
	}

	response, readErr := c.receive(conn)
	outcome := Classify(response)
	result = Result{Outcome: outcome, Response: response}
	if outcome == CommunicationError {
		result.Err = ErrEmptyResponse
		if readErr != nil {
			result.Err = errors.Join(ErrEmptyResponse, &TransportError{Stage: "read", Err: readErr})
		}
	}
	c.logger.Debug("pi30 transaction",
		zap.String("addr", addr),
		zap.Stringer("frame", frame),
		zap.ByteString("response", response),
		zap.Stringer("outcome", outcome))
	return result
}

func (c *Client) connect(addr string) (net.Conn, error) {
	defer RecordTimer("Connect", c.instrument)()
	return net.DialTimeout("tcp", addr, c.timeout)
}

func (c *Client) send(conn net.Conn, frame Frame) error {
	defer RecordTimer("Write", c.instrument)()
	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	_, err := conn.Write(frame)
	return err
}

// receive accumulates the reply until a terminator shows up or the read phase
// deadline passes. A failed read (timeout, EOF, reset) only ends the loop.
func (c *Client) receive(conn net.Conn) ([]byte, error) {
	defer RecordTimer("Read", c.instrument)()

	deadline := time.Now().Add(c.timeout)
	buf := make([]byte, c.bufferSize)
	var response []byte

	for time.Now().Before(deadline) {
		readDeadline := time.Now().Add(c.readTimeout)
		if readDeadline.After(deadline) {
			readDeadline = deadline
		}
		if err := conn.SetReadDeadline(readDeadline); err != nil {
			return response, err
		}
		n, err := conn.Read(buf)
		response = append(response, buf[:n]...)
		if bytes.IndexByte(response, Terminator) >= 0 {
			return response, nil
		}
		if err != nil {
			return response, err
		}
	}
	return response, nil
}

func (c *Client) recordOutcome(outcome Outcome) {
	for i := range c.instrument {
		if c.instrument[i].RecordOutcome != nil {
			c.instrument[i].RecordOutcome(outcome)
		}
	}
}

func RecordTimer(name string, instrument []Instrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			if instrument[i].RecordTime != nil {
				instrument[i].RecordTime(name, duration)
			}
		}
	}
}

func traceLoggerInstrumentation(logger *zap.Logger) *Instrument {
	return &Instrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug(fmt.Sprintf("pi30 [%s]: %d millis", fnName, readTime.Milliseconds()))
		},
	}
}
