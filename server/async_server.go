package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/Viet-ph/redis-ae/ae"
	"github.com/Viet-ph/redis-ae/config"
	"github.com/Viet-ph/redis-ae/internal/command"
	"github.com/Viet-ph/redis-ae/internal/connection"
	"github.com/Viet-ph/redis-ae/internal/datastore"
	"github.com/Viet-ph/redis-ae/internal/info"
	"github.com/Viet-ph/redis-ae/internal/queue"
	"github.com/joeycumines/logiface"
	"golang.org/x/sys/unix"
)

// AsyncServer serves the Redis protocol from a single ae.EventLoop. Every
// method except Stop must be called from the goroutine running Start.
type AsyncServer struct {
	el         *ae.EventLoop
	fd         int
	store      *datastore.Datastore
	clients    map[int]*connection.Conn
	taskQueue  *queue.TaskQueue
	cmdHandler *command.Handler
	logger     *logiface.Logger[logiface.Event]

	shutdownAsap bool
}

func NewAsyncServer(logger *logiface.Logger[logiface.Event]) (*AsyncServer, error) {
	serverFD, err := listen(config.Host, config.Port)
	if err != nil {
		return nil, err
	}

	el, err := ae.New(config.SetSize, ae.WithLogger(logger))
	if err != nil {
		unix.Close(serverFD)
		return nil, err
	}

	server := &AsyncServer{
		el:        el,
		fd:        serverFD,
		store:     datastore.NewDatastore(nil, nil),
		clients:   make(map[int]*connection.Conn),
		taskQueue: queue.NewTaskQueue(logger),
		logger:    logger,
	}
	server.cmdHandler = command.NewCmdHandler(server.requestShutdown)
	command.SetupCommands(server.cmdHandler)
	info.Reset(el.ApiName())

	return server, nil
}

func listen(host string, port int) (int, error) {
	ip4 := net.ParseIP(host).To4()
	if ip4 == nil {
		return -1, fmt.Errorf("invalid IPv4 host %q", host)
	}

	serverFD, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}

	if err := unix.SetsockoptInt(serverFD, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(serverFD)
		return -1, err
	}

	// Set the Socket operate in a non-blocking mode
	if err := unix.SetNonblock(serverFD, true); err != nil {
		unix.Close(serverFD)
		return -1, err
	}

	// Bind the IP and the port
	if err := unix.Bind(serverFD, &unix.SockaddrInet4{
		Port: port,
		Addr: [4]byte{ip4[0], ip4[1], ip4[2], ip4[3]},
	}); err != nil {
		unix.Close(serverFD)
		return -1, fmt.Errorf("bind %s:%d: %w", host, port, err)
	}

	if err := unix.Listen(serverFD, config.MaximumClients); err != nil {
		unix.Close(serverFD)
		return -1, err
	}

	return serverFD, nil
}

// Addr returns the address the listener is bound to, with the real port
// when the configured one was 0.
func (server *AsyncServer) Addr() (string, error) {
	sa, err := unix.Getsockname(server.fd)
	if err != nil {
		return "", err
	}

	addr, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return "", errors.New("listener is not an IPv4 socket")
	}
	return net.JoinHostPort(net.IP(addr.Addr[:]).String(), strconv.Itoa(addr.Port)), nil
}

// Start runs the event loop until the server is shut down, by SHUTDOWN or
// Stop, then releases every socket.
func (server *AsyncServer) Start() error {
	defer server.close()

	// Add listener socket to the event loop
	err := server.el.CreateFileEvent(server.fd, ae.Readable, server.acceptTcpHandler, nil)
	if err != nil {
		return fmt.Errorf("registering listener: %w", err)
	}

	server.el.CreateTimeEvent(1, server.serverCron, nil, nil)
	server.el.SetBeforeSleepProc(server.beforeSleep)

	server.logReady()
	server.el.Main()

	server.logger.Info().Log("server stopped")
	return nil
}

func (server *AsyncServer) logReady() {
	ready := server.logger.Info().
		Str("api", server.el.ApiName()).
		Str("run_id", info.RunId.String())
	if addr, err := server.Addr(); err != nil {
		ready = ready.Err(err)
	} else {
		ready = ready.Str("addr", addr)
	}
	ready.Log("ready to accept connections")
}

// Stop asks a running server to shut down. It is safe to call from any
// goroutine.
func (server *AsyncServer) Stop() {
	server.taskQueue.Add(queue.NewTask("shutdown", server.requestShutdown))
}

func (server *AsyncServer) requestShutdown() {
	server.shutdownAsap = true
}

func (server *AsyncServer) close() {
	for _, conn := range server.clients {
		server.closeConnection(conn)
	}

	server.el.DeleteFileEvent(server.fd, ae.Readable)
	unix.Close(server.fd)
	server.el.Close()
}
