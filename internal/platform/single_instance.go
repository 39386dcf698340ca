package platform

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyRunning indicates another instance already holds the lock.
	ErrAlreadyRunning = errors.New("instance already running")

	// ErrNotRunning indicates no instance is listening for control messages.
	ErrNotRunning = errors.New("no running instance")
)

// maxMessageSize bounds a single control message line.
const maxMessageSize = 64 * 1024

// Handler answers a control message.
type Handler func(ctx context.Context, message Message) Reply

// InstanceGuard holds the single-instance lock. The bound port doubles as
// the control channel other processes use to reach the running instance.
type InstanceGuard struct {
	listener net.Listener
	address  string
	logger   zerolog.Logger

	mu     sync.Mutex
	closed bool
	conns  map[net.Conn]struct{}
	wg     sync.WaitGroup
}

// Listen acquires the single-instance lock by binding address, normally
// AddressFor(appName). Tests may pass port 0.
func Listen(address string, logger zerolog.Logger) (*InstanceGuard, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAlreadyRunning, err)
	}
	return &InstanceGuard{
		listener: listener,
		address:  listener.Addr().String(),
		conns:    make(map[net.Conn]struct{}),
		logger:   logger.With().Str("component", "control").Logger(),
	}, nil
}

// AddressFor returns the deterministic localhost control address for appName.
func AddressFor(appName string) string {
	return fmt.Sprintf("127.0.0.1:%d", portFromName(appName))
}

// Serve answers control messages until ctx is done or the guard is
// released. Each connection carries newline-delimited JSON messages and
// receives one reply line per message.
func (guard *InstanceGuard) Serve(ctx context.Context, handler Handler) error {
	stop := context.AfterFunc(ctx, func() { _ = guard.Release() })
	defer stop()

	for {
		conn, err := guard.listener.Accept()
		if err != nil {
			if guard.isClosed() {
				guard.closeConns()
				guard.wg.Wait()
				return ctx.Err()
			}
			return fmt.Errorf("accept control connection: %w", err)
		}
		guard.track(conn, true)
		guard.wg.Add(1)
		go func() {
			defer guard.wg.Done()
			defer guard.track(conn, false)
			guard.serveConn(ctx, conn, handler)
		}()
	}
}

func (guard *InstanceGuard) serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer func() { _ = conn.Close() }()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxMessageSize)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		var reply Reply
		var message Message
		if err := json.Unmarshal(scanner.Bytes(), &message); err != nil {
			guard.logger.Warn().Err(err).Msg("malformed control message")
			reply = Failure(fmt.Errorf("decode message: %w", err))
		} else {
			guard.logger.Debug().Str("type", message.Type).Msg("control message received")
			reply = handler(ctx, message)
		}
		if err := encoder.Encode(reply); err != nil {
			guard.logger.Debug().Err(err).Msg("write control reply failed")
			return
		}
	}
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	guard.mu.Lock()
	defer guard.mu.Unlock()
	if guard.closed {
		return nil
	}
	guard.closed = true
	return guard.listener.Close()
}

func (guard *InstanceGuard) track(conn net.Conn, active bool) {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	if active {
		guard.conns[conn] = struct{}{}
	} else {
		delete(guard.conns, conn)
	}
}

func (guard *InstanceGuard) closeConns() {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	for conn := range guard.conns {
		_ = conn.Close()
	}
}

func (guard *InstanceGuard) isClosed() bool {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	return guard.closed
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

// Send delivers message to the instance listening on address and waits for
// its reply. A refused connection yields ErrNotRunning.
func Send(ctx context.Context, address string, message Message) (Reply, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %w", ErrNotRunning, err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(message); err != nil {
		return Reply{}, fmt.Errorf("send control message: %w", err)
	}
	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("read control reply: %w", err)
	}
	return reply, nil
}

func portFromName(appName string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
