package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it
// with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Projects(ctx context.Context) error
	Use(ctx context.Context, arg string) error
	Elements(ctx context.Context) error
	Units(ctx context.Context) error
	NewReport(ctx context.Context) error
	SaveDraft(ctx context.Context) error
	Pending(ctx context.Context) error
	Upload(ctx context.Context, arg string) error
	UploadAll(ctx context.Context) error
	Edit(ctx context.Context, arg string) error
	Media(ctx context.Context, arg string) error
	Remove(ctx context.Context, arg string) error
}

// runREPL starts a simple read–eval–print loop for the CiviLog CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		prompt := "civilog"
		if s := statusFn(); s != "" {
			prompt += " " + s
		}
		printlnFn(prompt + ">")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		arg := ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn("Available commands: projects, use <n>, elements, units, new, draft, pending, upload <n>, uploadall, edit <n>, media <n>, rm <n>, logout, exit")
			} else {
				printlnFn("Available commands: login, pending, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "projects":
			_ = a.Projects(ctx)

		case "use":
			_ = a.Use(ctx, arg)

		case "elements":
			_ = a.Elements(ctx)

		case "units":
			_ = a.Units(ctx)

		case "new":
			_ = a.NewReport(ctx)

		case "draft":
			_ = a.SaveDraft(ctx)

		case "p", "pending":
			_ = a.Pending(ctx)

		case "upload":
			_ = a.Upload(ctx, arg)

		case "uploadall":
			_ = a.UploadAll(ctx)

		case "edit":
			_ = a.Edit(ctx, arg)

		case "media":
			_ = a.Media(ctx, arg)

		case "rm":
			_ = a.Remove(ctx, arg)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to CiviLog CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, scanner)
}
