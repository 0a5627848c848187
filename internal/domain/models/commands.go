package models

import "strings"

// CommandType enumerates supported chat command categories.
type CommandType string

const (
	CommandSale    CommandType = "sale"
	CommandReport  CommandType = "report"
	CommandTop     CommandType = "top"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. The command word is
// matched case-insensitively; arguments keep their original casing so product
// names survive.
func ParseCommand(message string) Command {
	tokens := strings.Fields(message)
	cmd := Command{Raw: message, Type: CommandUnknown}
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandSale, "sales":
		cmd.Type = CommandSale
	case CommandReport:
		cmd.Type = CommandReport
	case CommandTop:
		cmd.Type = CommandTop
	case CommandHelp, "start":
		cmd.Type = CommandHelp
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
