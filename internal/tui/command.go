package tui

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a parsed ':' command line.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Index splits "N rest" arguments, where N is a message number as shown in
// the conversation.
func (c Command) Index() (int, string, error) {
	head, rest, _ := strings.Cut(c.Args, " ")
	n, err := strconv.Atoi(head)
	if err != nil || n < 1 {
		return 0, "", fmt.Errorf("usage: :%s <message number> ...", c.Name)
	}
	return n, strings.TrimSpace(rest), nil
}

// Arg returns the single argument or an error naming what is missing.
func (c Command) Arg(what string) (string, error) {
	if c.Args == "" || strings.ContainsRune(c.Args, ' ') {
		return "", fmt.Errorf("usage: :%s <%s>", c.Name, what)
	}
	return c.Args, nil
}
