package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userdesk/internal/client/router"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. The real App satisfies
// it; tests provide a stub.
type execIface interface {
	view() string
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Refresh(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

const (
	loginHelp = "Available commands: login, help, exit"
	usersHelp = "Available commands: (l)ist, refresh, show <id>, add, edit <id>, delete <id>, logout, help, exit"
)

// runREPL reads commands line by line and dispatches them to a. The set of
// accepted commands depends on the current view. The loop ends on EOF, on
// "exit"/"quit" or when ctx is done. Handler errors are reported by the
// handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("userdesk %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if a.view() == router.UsersRoute {
			dispatchUsers(ctx, a, cmd, args)
		} else {
			dispatchLogin(ctx, a, cmd)
		}
	}
}

func dispatchLogin(ctx context.Context, a execIface, cmd string) {
	switch cmd {
	case "help":
		printlnFn(loginHelp)
	case "login":
		_ = a.Login(ctx)
	default:
		printlnFn("Unknown command:", cmd, "(log in first)")
	}
}

func dispatchUsers(ctx context.Context, a execIface, cmd string, args []string) {
	withID := func(usage string, fn func(context.Context, string) error) {
		if len(args) == 0 {
			printlnFn("Usage:", usage)
			return
		}
		_ = fn(ctx, args[0])
	}

	switch cmd {
	case "help":
		printlnFn(usersHelp)
	case "l", "list":
		_ = a.List(ctx)
	case "refresh":
		_ = a.Refresh(ctx)
	case "show":
		withID("show <id>", a.Show)
	case "add":
		_ = a.Add(ctx)
	case "edit":
		withID("edit <id>", a.Edit)
	case "delete":
		withID("delete <id>", a.Delete)
	case "logout":
		_ = a.Logout(ctx)
	default:
		printlnFn("Unknown command:", cmd)
	}
}
