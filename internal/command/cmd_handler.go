package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Viet-ph/redis-ae/config"
	"github.com/Viet-ph/redis-ae/internal/datastore"
	custom_err "github.com/Viet-ph/redis-ae/internal/error"
	"github.com/Viet-ph/redis-ae/internal/info"
	"github.com/Viet-ph/redis-ae/internal/proto"
)

const Version = "0.1.0"

type Handler struct {
	// shutdown is called by SHUTDOWN. The server stops once the current
	// loop iteration is over.
	shutdown func()
}

func NewCmdHandler(shutdown func()) *Handler {
	return &Handler{
		shutdown: shutdown,
	}
}

func (handler *Handler) Ping(args []string, store *datastore.Datastore) any {
	if len(args) > 1 {
		return errors.New("ERR wrong number of arguments for 'ping' command")
	}

	if len(args) == 0 {
		return proto.SimpleString("PONG")
	} else {
		return args[0]
	}
}

func (handler *Handler) Echo(args []string, store *datastore.Datastore) any {
	return args[0]
}

// SET GET Handlers
func (handler *Handler) Set(args []string, store *datastore.Datastore) any {
	key := args[0]
	value := args[1]
	options := args[2:]

	err := store.Set(key, value, options)
	if err != nil {
		return err
	}

	return proto.SimpleString("OK")
}

func (handler *Handler) Get(args []string, store *datastore.Datastore) any {
	data, exists := store.Get(args[0])
	if !exists {
		return custom_err.ErrorKeyNotExists
	}

	stringData, ok := data.(string)
	if !ok {
		return errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	}

	return stringData
}

func (handler *Handler) Del(args []string, store *datastore.Datastore) any {
	return store.Del(args...)
}

func (handler *Handler) Exists(args []string, store *datastore.Datastore) any {
	return store.Exists(args...)
}

func (handler *Handler) DbSize(args []string, store *datastore.Datastore) any {
	keys, _ := store.GetStoreSize()
	return keys
}

func (handler *Handler) Info(args []string, store *datastore.Datastore) any {
	sections := []string{"server", "clients", "stats", "keyspace"}
	if len(args) > 0 {
		wanted := strings.ToLower(args[0])
		if wanted != "all" && wanted != "default" {
			if !slices.Contains(sections, wanted) {
				return ""
			}
			sections = []string{wanted}
		}
	}

	var sb strings.Builder
	for i, section := range sections {
		if i > 0 {
			sb.WriteString("\r\n")
		}
		switch section {
		case "server":
			sb.WriteString("# Server\r\n")
			fmt.Fprintf(&sb, "redis_version:%s\r\n", Version)
			fmt.Fprintf(&sb, "multiplexing_api:%s\r\n", info.Multiplexer)
			fmt.Fprintf(&sb, "run_id:%s\r\n", strings.ReplaceAll(info.RunId.String(), "-", ""))
			fmt.Fprintf(&sb, "tcp_port:%d\r\n", config.Port)
			fmt.Fprintf(&sb, "uptime_in_seconds:%d\r\n", int64(time.Since(info.StartTime).Seconds()))
			fmt.Fprintf(&sb, "hz:%d\r\n", config.Hz)
		case "clients":
			sb.WriteString("# Clients\r\n")
			fmt.Fprintf(&sb, "connected_clients:%d\r\n", info.ConnectedClients)
			fmt.Fprintf(&sb, "maxclients:%d\r\n", config.MaximumClients)
		case "stats":
			sb.WriteString("# Stats\r\n")
			fmt.Fprintf(&sb, "total_connections_received:%d\r\n", info.TotalConnections)
			fmt.Fprintf(&sb, "total_commands_processed:%d\r\n", info.TotalCommands)
			fmt.Fprintf(&sb, "rejected_connections:%d\r\n", info.RejectedConnections)
			fmt.Fprintf(&sb, "expired_keys:%d\r\n", info.ExpiredKeys)
			fmt.Fprintf(&sb, "cron_loops:%d\r\n", info.CronLoops)
		case "keyspace":
			sb.WriteString("# Keyspace\r\n")
			keys, expires := store.GetStoreSize()
			if keys > 0 {
				fmt.Fprintf(&sb, "db0:keys=%d,expires=%d\r\n", keys, expires)
			}
		}
	}

	return sb.String()
}

func (handler *Handler) Shutdown(args []string, store *datastore.Datastore) any {
	for _, arg := range args {
		switch strings.ToUpper(arg) {
		case "NOSAVE", "SAVE", "NOW", "FORCE":
		default:
			return errors.New("ERR syntax error")
		}
	}

	if handler.shutdown != nil {
		handler.shutdown()
	}
	return proto.SimpleString("OK")
}

func (handler *Handler) Command(args []string, store *datastore.Datastore) any {
	if len(args) == 0 {
		args = []string{"list"}
	}

	subcmd := args[0]
	switch strings.ToLower(subcmd) {
	case "count":
		return len(commands)
	case "list":
		cmdNames := make([]string, 0, len(commands))
		for k := range commands {
			cmdNames = append(cmdNames, strings.ToLower(k))
		}
		slices.Sort(cmdNames)
		return cmdNames
	case "docs":
		if len(args) < 2 {
			return errors.New("ERR wrong number of arguments for 'command' command")
		}

		cmdName := strings.ToUpper(args[1])
		metaData, ok := commands[cmdName]
		if !ok {
			return []string{}
		}

		cmdDescription := strings.Split(metaData.description, ".")
		docs := make([]string, 0, len(cmdDescription))
		for _, description := range cmdDescription {
			description = strings.ReplaceAll(description, "\n", "")
			description = strings.ReplaceAll(description, "\t", "")
			description = strings.TrimSpace(description)
			if description != "" {
				docs = append(docs, description)
			}
		}

		return docs
	default:
		return fmt.Errorf("ERR unknown subcommand '%s'", subcmd)
	}
}
