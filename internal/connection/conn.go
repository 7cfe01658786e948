package connection

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Viet-ph/redis-ae/config"
	custom_err "github.com/Viet-ph/redis-ae/internal/error"
	"golang.org/x/sys/unix"
)

// Conn is a non-blocking client socket with its pending query bytes and the
// replies not yet written.
type Conn struct {
	Fd         int
	queryBuf   []byte
	writeQueue [][]byte
	remoteIP   net.IP
	remotePort int

	CreatedAt       time.Time
	LastInteraction time.Time

	// CloseAfterReply asks the server to close the connection once the
	// write queue is drained.
	CloseAfterReply bool
	IsClosed        bool
}

func NewConn(connFd int, sa unix.Sockaddr) (*Conn, error) {
	var (
		ip   net.IP
		port int
	)
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		ip = net.IPv4(addr.Addr[0], addr.Addr[1], addr.Addr[2], addr.Addr[3])
		port = addr.Port
	case *unix.SockaddrInet6:
		ip = net.IP(addr.Addr[:])
		port = addr.Port
	case *unix.SockaddrUnix:
	default:
		return nil, fmt.Errorf("unknown address type %T", sa)
	}

	now := time.Now()
	return &Conn{
		Fd:              connFd,
		remoteIP:        ip,
		remotePort:      port,
		CreatedAt:       now,
		LastInteraction: now,
	}, nil
}

// Read drains the socket into the query buffer and returns the number of
// bytes read. Zero bytes and no error means the socket had nothing to give.
func (conn *Conn) Read() (int, error) {
	temp := make([]byte, config.DefaultMessageSize)
	totalLength := 0
	//For loop to drain all the unknown size incomming message
	for {
		bytesRead, err := unix.Read(conn.Fd, temp)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				// Nothing left in the kernel buffer for now
				break
			}
			if errors.Is(err, unix.ECONNRESET) || errors.Is(err, unix.EPIPE) {
				return totalLength, custom_err.ErrorClientDisconnected
			}
			return totalLength, fmt.Errorf("%w: %w", custom_err.ErrorReadingSocket, err)
		}
		if bytesRead == 0 {
			// Peer closed the connection gracefully
			return totalLength, custom_err.ErrorClientDisconnected
		}

		conn.queryBuf = append(conn.queryBuf, temp[:bytesRead]...)
		totalLength += bytesRead

		if len(conn.queryBuf) > config.MaximumQueryBuffer {
			return totalLength, custom_err.ErrorQueryTooBig
		}

		//If number of bytes read smaller than temp buffer size,
		//we got all data in one go. Break here.
		if bytesRead < len(temp) {
			break
		}
	}

	if totalLength > 0 {
		conn.LastInteraction = time.Now()
	}
	return totalLength, nil
}

// Query returns the buffered bytes not consumed yet.
func (conn *Conn) Query() []byte {
	return conn.queryBuf
}

// Consume drops the first n bytes of the query buffer.
func (conn *Conn) Consume(n int) {
	if n <= 0 {
		return
	}
	if n >= len(conn.queryBuf) {
		conn.queryBuf = conn.queryBuf[:0]
		return
	}
	conn.queryBuf = append(conn.queryBuf[:0], conn.queryBuf[n:]...)
}

// DrainQueue writes queued replies until the queue is empty or the socket
// would block, in which case it returns custom_err.ErrorNotFullyWritten.
func (conn *Conn) DrainQueue() error {
	for len(conn.writeQueue) > 0 {
		data := conn.writeQueue[0]
		n, err := unix.Write(conn.Fd, data)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				// Socket is not ready for writing, return and wait for write event
				return custom_err.ErrorNotFullyWritten
			}
			if errors.Is(err, unix.EPIPE) || errors.Is(err, unix.ECONNRESET) {
				return custom_err.ErrorClientDisconnected
			}
			return err
		}
		if n < len(data) {
			// Partial write, keep the remaining data in the queue
			conn.writeQueue[0] = data[n:]
			return custom_err.ErrorNotFullyWritten
		}

		// Full write, remove the data from the queue
		conn.writeQueue[0] = nil
		conn.writeQueue = conn.writeQueue[1:]
	}

	conn.LastInteraction = time.Now()
	return nil
}

// QueueDatas appends replies and tries to write them right away.
func (conn *Conn) QueueDatas(data ...[]byte) error {
	conn.writeQueue = append(conn.writeQueue, data...)
	// Try to write immediately
	return conn.DrainQueue()
}

// HasPendingWrites reports whether replies are still waiting for the socket.
func (conn *Conn) HasPendingWrites() bool {
	return len(conn.writeQueue) > 0
}

func (conn *Conn) Close() error {
	if conn.IsClosed {
		return nil
	}
	conn.IsClosed = true
	return unix.Close(conn.Fd)
}

func (conn *Conn) GetRemoteAddress() (net.IP, int) {
	return conn.remoteIP, conn.remotePort
}

func (conn *Conn) String() string {
	if conn.remoteIP == nil {
		return fmt.Sprintf("fd=%d", conn.Fd)
	}
	return fmt.Sprintf("fd=%d addr=%s", conn.Fd, net.JoinHostPort(conn.remoteIP.String(), fmt.Sprint(conn.remotePort)))
}
