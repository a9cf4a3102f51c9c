package models

import "strings"

// CommandType enumerates supported site worker commands.
type CommandType string

const (
	CommandStock   CommandType = "stock"
	CommandUse     CommandType = "use"
	CommandLow     CommandType = "low"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed worker instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.TrimSpace(message))
	cmd := Command{Raw: message, Type: CommandUnknown}
	if len(tokens) == 0 {
		return cmd
	}

	switch head := strings.ToLower(strings.TrimPrefix(tokens[0], "/")); head {
	case string(CommandStock):
		cmd.Type = CommandStock
	case string(CommandUse), "consume":
		cmd.Type = CommandUse
	case string(CommandLow):
		cmd.Type = CommandLow
	case string(CommandHelp):
		cmd.Type = CommandHelp
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
