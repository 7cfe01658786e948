package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Viet-ph/redis-ae/internal/datastore"
)

type Command struct {
	Cmd  string
	Args []string
}

type CmdMetaData struct {
	name        string
	description string

	// arity counts the command name. A negative arity means at least
	// -arity arguments.
	arity int

	handler func([]string, *datastore.Datastore) any
}

var commands map[string]CmdMetaData

func SetupCommands(handler *Handler) {
	commands = map[string]CmdMetaData{
		"PING": {
			name: "PING",
			description: `PING returns with an encoded "PONG". If any message is
						added with the ping command, the message will be returned.`,
			arity:   -1,
			handler: handler.Ping,
		},
		"ECHO": {
			name:        "ECHO",
			description: `Returns message.`,
			arity:       2,
			handler:     handler.Echo,
		},
		"SET": {
			name: "SET",
			description: `Set key to hold the string value. If key already holds a value,
						it is overwritten, regardless of its type. Any previous time to
						live associated with the key is discarded on successful SET operation.`,
			arity:   -3,
			handler: handler.Set,
		},
		"GET": {
			name: "GET",
			description: `Get the value of key. If the key does not exist the special value nil is returned.
						An error is returned if the value stored at key is not a string, because GET only handles string values.`,
			arity:   2,
			handler: handler.Get,
		},
		"DEL": {
			name: "DEL",
			description: `Removes the specified keys. A key is ignored if it does not exist.
						Returns the number of keys that were removed.`,
			arity:   -2,
			handler: handler.Del,
		},
		"EXISTS": {
			name: "EXISTS",
			description: `Returns if key exists. The same key mentioned multiple times
						in the arguments will be counted multiple times.`,
			arity:   -2,
			handler: handler.Exists,
		},
		"DBSIZE": {
			name:        "DBSIZE",
			description: `Return the number of keys in the currently-selected database.`,
			arity:       1,
			handler:     handler.DbSize,
		},
		"INFO": {
			name: "INFO",
			description: `The INFO command returns information and statistics about the server
						in a format that is simple to parse by computers and easy to read by humans.`,
			arity:   -1,
			handler: handler.Info,
		},
		"SHUTDOWN": {
			name: "SHUTDOWN",
			description: `Stops the server. Clients are disconnected once the
						current event loop iteration is done.`,
			arity:   -1,
			handler: handler.Shutdown,
		},
		"COMMAND": {
			name:        "COMMAND",
			description: `Return details about all commands.`,
			arity:       -1,
			handler:     handler.Command,
		},
	}
}

func GetCmdMetadata(cmdName string) (CmdMetaData, bool) {
	metaData, exist := commands[cmdName]
	return metaData, exist
}

// Parse turns a decoded request into a Command.
func Parse(request []string) (Command, error) {
	if len(request) == 0 {
		return Command{}, errors.New("ERR empty command")
	}

	return Command{
		Cmd:  strings.ToUpper(request[0]),
		Args: request[1:],
	}, nil
}

func ExecuteCmd(cmd Command, store *datastore.Datastore) any {
	cmdMetaData, ok := GetCmdMetadata(cmd.Cmd)
	if !ok {
		return fmt.Errorf("ERR unknown command '%s'", cmd.Cmd)
	}

	argc := len(cmd.Args) + 1
	if (cmdMetaData.arity > 0 && argc != cmdMetaData.arity) ||
		(cmdMetaData.arity < 0 && argc < -cmdMetaData.arity) {
		return fmt.Errorf("ERR wrong number of arguments for '%s' command", strings.ToLower(cmd.Cmd))
	}

	return cmdMetaData.handler(cmd.Args, store)
}
