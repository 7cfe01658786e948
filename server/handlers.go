package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Viet-ph/redis-ae/ae"
	"github.com/Viet-ph/redis-ae/config"
	"github.com/Viet-ph/redis-ae/internal/command"
	"github.com/Viet-ph/redis-ae/internal/connection"
	custom_err "github.com/Viet-ph/redis-ae/internal/error"
	"github.com/Viet-ph/redis-ae/internal/info"
	"github.com/Viet-ph/redis-ae/internal/proto"
	"golang.org/x/sys/unix"
)

// maxAcceptsPerCall bounds how many pending connections one readable event
// on the listener accepts.
const maxAcceptsPerCall = 1000

func (server *AsyncServer) acceptTcpHandler(el *ae.EventLoop, fd int, _ any, _ ae.Mask) {
	for range maxAcceptsPerCall {
		connFD, sa, err := unix.Accept(fd)
		if err != nil {
			if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
				server.logger.Warning().Err(err).Log("accepting client connection")
			}
			return
		}

		if err := server.acceptCommonHandler(el, connFD, sa); err != nil {
			server.logger.Warning().
				Int("fd", connFD).
				Err(err).
				Log("rejected client connection")
		}
	}
}

func (server *AsyncServer) acceptCommonHandler(el *ae.EventLoop, connFD int, sa unix.Sockaddr) error {
	//Set new client socket fd as non-block so it wont block
	//the current thread while waiting for NIC doing its job
	if err := unix.SetNonblock(connFD, true); err != nil {
		unix.Close(connFD)
		return err
	}
	unix.SetsockoptInt(connFD, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	if len(server.clients) >= config.MaximumClients {
		info.RejectedConnections++
		// Best effort, the socket is closed right after.
		unix.Write(connFD, []byte("-ERR max number of clients reached\r\n"))
		unix.Close(connFD)
		return errors.New("max number of clients reached")
	}

	conn, err := connection.NewConn(connFD, sa)
	if err != nil {
		unix.Close(connFD)
		return err
	}

	//Add new client socket fd to the event loop
	err = el.CreateFileEvent(connFD, ae.Readable, server.readQueryFromClient, conn)
	if err != nil {
		info.RejectedConnections++
		unix.Write(connFD, []byte("-ERR too many open files for the event loop\r\n"))
		conn.Close()
		return err
	}

	server.clients[connFD] = conn
	info.ConnectedClients = len(server.clients)
	info.TotalConnections++

	server.logger.Debug().
		Str("client", conn.String()).
		Log("client connected")
	return nil
}

func (server *AsyncServer) readQueryFromClient(el *ae.EventLoop, fd int, clientData any, _ ae.Mask) {
	conn := clientData.(*connection.Conn)

	if _, err := conn.Read(); err != nil {
		if errors.Is(err, custom_err.ErrorQueryTooBig) {
			server.logger.Warning().
				Str("client", conn.String()).
				Int("limit", config.MaximumQueryBuffer).
				Log("closing client that reached the max query buffer length")
		} else if !errors.Is(err, custom_err.ErrorClientDisconnected) {
			server.logger.Warning().
				Str("client", conn.String()).
				Err(err).
				Log("reading from client")
		}
		server.closeConnection(conn)
		return
	}

	server.processInputBuffer(conn)
}

// processInputBuffer runs every complete request in the query buffer and
// queues the replies. Incomplete trailing input stays buffered.
func (server *AsyncServer) processInputBuffer(conn *connection.Conn) {
	decoder := proto.NewDecoder(conn.Query())
	encoder := proto.NewEncoder()

	for !conn.CloseAfterReply {
		request, err := decoder.DecodeRequest()
		if err != nil {
			if errors.Is(err, custom_err.ErrorIncompleteRESP) {
				break
			}
			reason := strings.TrimPrefix(err.Error(), custom_err.ErrorProtocol.Error()+": ")
			encoder.Encode(fmt.Errorf("ERR Protocol error: %s", reason), false)
			server.logger.Debug().
				Str("client", conn.String()).
				Err(err).
				Log("protocol error from client")
			conn.CloseAfterReply = true
			break
		}
		if len(request) == 0 {
			continue
		}

		cmd, err := command.Parse(request)
		if err != nil {
			encoder.Encode(err, false)
			continue
		}

		result := command.ExecuteCmd(cmd, server.store)
		info.TotalCommands++
		if err := encoder.Encode(result, false); err != nil {
			encoder.Encode(errors.New("ERR error encoding reply"), false)
		}
	}
	conn.Consume(decoder.Offset())

	if len(encoder.GetBufValue()) > 0 {
		reply := make([]byte, len(encoder.GetBufValue()))
		copy(reply, encoder.GetBufValue())
		server.respond(conn, reply)
	} else if conn.CloseAfterReply {
		server.closeConnection(conn)
	}
}

func (server *AsyncServer) respond(conn *connection.Conn, reply []byte) {
	err := conn.QueueDatas(reply)
	if err != nil {
		server.handleWritingError(err, conn)
		return
	}

	if conn.CloseAfterReply {
		server.closeConnection(conn)
	}
}

func (server *AsyncServer) sendReplyToClient(el *ae.EventLoop, fd int, clientData any, _ ae.Mask) {
	conn := clientData.(*connection.Conn)

	err := conn.DrainQueue()
	if err != nil {
		server.handleWritingError(err, conn)
		return
	}

	//Successfully drained and wrote all datas in queue,
	//stop polling for write readiness
	el.DeleteFileEvent(fd, ae.Writable)
	if conn.CloseAfterReply {
		server.closeConnection(conn)
	}
}

func (server *AsyncServer) handleWritingError(err error, conn *connection.Conn) {
	if errors.Is(err, custom_err.ErrorNotFullyWritten) {
		//Data not fully written, wait for the socket to become writable
		if server.el.GetFileEvents(conn.Fd)&ae.Writable != 0 {
			return
		}
		err = server.el.CreateFileEvent(conn.Fd, ae.Writable, server.sendReplyToClient, conn)
		if err == nil {
			return
		}
	}

	if !errors.Is(err, custom_err.ErrorClientDisconnected) {
		server.logger.Warning().
			Str("client", conn.String()).
			Err(err).
			Log("writing to client")
	}
	server.closeConnection(conn)
}

// closeConnection unregisters conn from the loop and closes its socket.
func (server *AsyncServer) closeConnection(conn *connection.Conn) {
	if conn.IsClosed {
		return
	}

	server.el.DeleteFileEvent(conn.Fd, ae.Readable|ae.Writable)
	delete(server.clients, conn.Fd)
	info.ConnectedClients = len(server.clients)
	conn.Close()

	server.logger.Debug().
		Str("client", conn.String()).
		Log("client disconnected")
}
