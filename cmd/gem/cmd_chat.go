package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/elee1766/gem/src/app"
	"github.com/elee1766/gem/src/chat"
	"github.com/elee1766/gem/src/storage"
	"github.com/elee1766/gem/src/suggest"
)

// maxLineSize bounds a single line of REPL input
const maxLineSize = 1 << 20

// ChatCmd starts the interactive chat
type ChatCmd struct {
	Conversation string `short:"C" help:"Resume a conversation by ID or unique prefix"`
	New          bool   `short:"n" help:"Start a new conversation instead of resuming the latest"`
	Plain        bool   `help:"Stream replies as plain text instead of rendering markdown"`
}

// Run executes the chat command
func (c *ChatCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// chat needs a key; the error points at `gem setup key`
	if _, err := a.Chat(ctx); err != nil {
		return err
	}

	r, err := newREPL(a, os.Stdin, os.Stdout, c.Plain || a.Config.Chat.Plain)
	if err != nil {
		return err
	}

	switch {
	case c.Conversation != "":
		if err := r.switchTo(ctx, c.Conversation); err != nil {
			return err
		}
	case !c.New:
		if err := r.resumeLatest(ctx); err != nil {
			return err
		}
	}

	return r.run(ctx)
}

// repl is the line-oriented chat loop
type repl struct {
	app     *app.App
	in      *bufio.Scanner
	out     io.Writer
	console chat.ConsoleProcessorConfig

	conversationID string
	// starters are the prompts last shown; typing their number sends them
	starters []storage.Prompt
	// interrupt makes run trap Ctrl-C: it cancels a reply in flight and
	// leaves the chat at the prompt
	interrupt  bool
	interrupts chan os.Signal
}

func newREPL(a *app.App, in io.Reader, out io.Writer, plain bool) (*repl, error) {
	console, err := consoleConfig(a.Config, out, plain)
	if err != nil {
		return nil, err
	}
	console.HideErrors = true

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &repl{
		app:       a,
		in:        scanner,
		out:       out,
		console:   console,
		interrupt: true,
	}, nil
}

func (r *repl) run(ctx context.Context) error {
	if r.interrupt {
		r.interrupts = make(chan os.Signal, 1)
		signal.Notify(r.interrupts, os.Interrupt)
		defer signal.Stop(r.interrupts)
	}

	done := make(chan struct{})
	defer close(done)
	lines := r.readLines(done)

	model, _ := r.app.ModelName(ctx)
	fmt.Fprintln(r.out, mutedStyle().Render(fmt.Sprintf("gem · %s · /help for commands", model)))
	r.greet(ctx)

	for {
		fmt.Fprint(r.out, headingStyle().Render("› "))

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return ctx.Err()
		case <-r.interrupts:
			fmt.Fprintln(r.out)
			return nil
		case text, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				return r.in.Err()
			}
			line = strings.TrimSpace(text)
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				r.printError(err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := r.send(ctx, r.starterText(line)); err != nil {
			r.printError(err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// readLines scans input on its own goroutine so the loop can wait for
// signals at the prompt. The channel closes when input ends.
func (r *repl) readLines(done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for r.in.Scan() {
			select {
			case lines <- r.in.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// command runs a slash command and reports whether the loop should stop
func (r *repl) command(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help":
		fmt.Fprint(r.out, replHelp)

	case "/new":
		r.conversationID = ""
		r.greet(ctx)

	case "/switch":
		if arg == "" {
			return false, usagef("usage: /switch ID")
		}
		if err := r.switchTo(ctx, arg); err != nil {
			return false, err
		}
		r.greet(ctx)

	case "/list":
		convs, err := storage.ListConversations(ctx, r.app.Store.DB(), 20)
		if err != nil {
			return false, fmt.Errorf("failed to list conversations: %w", err)
		}
		if len(convs) == 0 {
			fmt.Fprintln(r.out, "No conversations yet.")
			return false, nil
		}
		return false, printConversations(r.out, convs, r.conversationID)

	case "/prompts":
		return false, r.showStarters(ctx)

	case "/title":
		if arg == "" || r.conversationID == "" {
			return false, usagef("usage: /title TEXT (in a started conversation)")
		}
		return false, storage.UpdateConversationTitle(ctx, r.app.Store.DB(), r.conversationID, arg)

	default:
		return false, usagef("unknown command %s, try /help", name)
	}
	return false, nil
}

const replHelp = `  /new          start a new conversation
  /switch ID    continue another conversation
  /list         list recent conversations
  /prompts      show starter prompts
  /title TEXT   rename this conversation
  /quit         leave
Type a number to send the matching starter prompt.
`

func (r *repl) send(ctx context.Context, text string) error {
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-r.interrupts:
			cancel()
		case <-sendCtx.Done():
		}
	}()

	sink := chat.NewChannelEventSink(100, r.app.Logger, chat.NewConsoleEventProcessor(r.console))
	id, err := r.app.Submit(sendCtx, r.conversationID, text, sink)
	sink.Close()

	r.conversationID = id
	r.starters = nil

	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() == nil {
		fmt.Fprintln(r.out, mutedStyle().Render("(cancelled)"))
		return nil
	}
	return err
}

// greet prints starter prompts for an empty conversation and the history
// of a resumed one
func (r *repl) greet(ctx context.Context) {
	if r.conversationID == "" {
		if err := r.showStarters(ctx); err != nil {
			r.app.Logger.Warn("failed to load starter prompts", "error", err)
		}
		return
	}

	conv, err := storage.GetConversationByID(ctx, r.app.Store.DB(), r.conversationID)
	if err != nil || conv == nil {
		return
	}
	msgs, err := storage.GetMessagesByConversationID(ctx, r.app.Store.DB(), conv.ID)
	if err != nil {
		r.app.Logger.Warn("failed to load history", "conversation_id", conv.ID, "error", err)
		return
	}
	fmt.Fprintf(r.out, "%s\n\n", headingStyle().Render(conv.DisplayTitle()))
	if len(msgs) == 0 {
		if err := r.showStarters(ctx); err != nil {
			r.app.Logger.Warn("failed to load starter prompts", "error", err)
		}
		return
	}
	printMessages(r.out, msgs, r.console.Renderer)
}

func (r *repl) showStarters(ctx context.Context) error {
	svc, err := r.app.Suggest(ctx)
	if err != nil {
		return err
	}
	prompts, err := svc.Prompts(ctx)
	if err != nil {
		return err
	}
	r.starters = prompts
	if len(prompts) == 0 {
		return nil
	}

	fmt.Fprintln(r.out, mutedStyle().Render("Try one of these:"))
	for i, p := range prompts {
		fmt.Fprintf(r.out, "  %d. %s %s\n", i+1, suggest.ParseIcon(p.Icon).Symbol(), p.Text)
	}
	fmt.Fprintln(r.out)
	return nil
}

// starterText maps a bare number to the starter prompt shown with it
func (r *repl) starterText(line string) string {
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(r.starters) {
		return line
	}
	text := r.starters[n-1].Text
	fmt.Fprintln(r.out, mutedStyle().Render(text))
	return text
}

func (r *repl) switchTo(ctx context.Context, id string) error {
	conv, err := findConversation(ctx, r.app.Store.DB(), id)
	if err != nil {
		return err
	}
	r.conversationID = conv.ID
	r.starters = nil
	return nil
}

func (r *repl) resumeLatest(ctx context.Context) error {
	convs, err := storage.ListConversations(ctx, r.app.Store.DB(), 1)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(convs) > 0 {
		r.conversationID = convs[0].ID
	}
	return nil
}

func (r *repl) printError(err error) {
	fmt.Fprintln(r.out, errorStyle().Render("❌ "+err.Error()))
}
