package logic

import (
	"errors"
	"slices"
)

// ErrUnknownCommand is returned by Execute for codes with no handler.
var ErrUnknownCommand = errors.New("unknown command")

// Command describes a host command and its handler.
type Command struct {
	Code        string
	Response    string
	Description string
	Execute     func(svc KeyService, input []byte) ([]byte, error)
}

// Registry dispatches command payloads to their handlers.
type Registry struct {
	svc      KeyService
	commands map[string]Command
}

// DefaultCommands lists the commands served by the host.
func DefaultCommands() []Command {
	return []Command{
		{Code: "NC", Response: "ND", Description: "Perform Diagnostics", Execute: ExecuteNC},
		{Code: "ID", Response: "IE", Description: "Derive DUKPT IPEK", Execute: ExecuteID},
		{Code: "KD", Response: "KE", Description: "Derive DUKPT Transaction Key", Execute: ExecuteKD},
		{Code: "CI", Response: "CJ", Description: "Translate PIN from DUKPT to ZPK", Execute: ExecuteCI},
		{Code: "M0", Response: "M1", Description: "Encrypt Data under DUKPT", Execute: ExecuteM0},
		{Code: "M2", Response: "M3", Description: "Decrypt Data under DUKPT", Execute: ExecuteM2},
		{Code: "M6", Response: "M7", Description: "Generate MAC under DUKPT", Execute: ExecuteM6},
		{Code: "M8", Response: "M9", Description: "Verify MAC under DUKPT", Execute: ExecuteM8},
	}
}

// NewRegistry returns a registry serving the given commands against svc.
// With no commands it serves DefaultCommands.
func NewRegistry(svc KeyService, cmds ...Command) *Registry {
	if len(cmds) == 0 {
		cmds = DefaultCommands()
	}
	r := &Registry{svc: svc, commands: make(map[string]Command, len(cmds))}
	for _, c := range cmds {
		r.commands[c.Code] = c
	}

	return r
}

// Lookup returns the command registered under code.
func (r *Registry) Lookup(code string) (Command, bool) {
	c, ok := r.commands[code]

	return c, ok
}

// Execute runs the handler for code.
func (r *Registry) Execute(code string, payload []byte) ([]byte, error) {
	c, ok := r.commands[code]
	if !ok {
		return nil, ErrUnknownCommand
	}

	return c.Execute(r.svc, payload)
}

// Commands returns the registered commands ordered by code.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Command) int {
		if a.Code < b.Code {
			return -1
		}
		if a.Code > b.Code {
			return 1
		}

		return 0
	})

	return out
}
