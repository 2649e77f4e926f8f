package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/elee1766/gem/src/chat"
	"github.com/elee1766/gem/src/storage"
	"github.com/georgysavva/scany/v2/sqlscan"
)

// ConversationsCmd browses saved conversations
type ConversationsCmd struct {
	List   ConversationsListCmd   `cmd:"" default:"1" help:"List conversations, most recent first"`
	Show   ConversationsShowCmd   `cmd:"" help:"Print a conversation"`
	Rename ConversationsRenameCmd `cmd:"" help:"Set a conversation title"`
	Delete ConversationsDeleteCmd `cmd:"" help:"Delete a conversation and its messages"`
}

// ConversationsListCmd lists conversations
type ConversationsListCmd struct {
	Limit  int    `short:"n" default:"20" help:"Maximum number of conversations (0 for all)"`
	Format string `default:"table" enum:"table,json" help:"Output format (table, json)"`
}

func (c *ConversationsListCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	convs, err := storage.ListConversations(ctx, a.Store.DB(), c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if c.Format == "json" {
		return printJSON(os.Stdout, convs)
	}
	if len(convs) == 0 {
		fmt.Println("No conversations yet. Start one with `gem chat`.")
		return nil
	}
	return printConversations(os.Stdout, convs, "")
}

// ConversationsShowCmd prints a conversation
type ConversationsShowCmd struct {
	ID     string `arg:"" help:"Conversation ID or unique prefix"`
	Format string `default:"text" enum:"text,json" help:"Output format (text, json)"`
	Plain  bool   `help:"Print replies without markdown rendering"`
}

func (c *ConversationsShowCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	conv, err := findConversation(ctx, a.Store.DB(), c.ID)
	if err != nil {
		return err
	}
	msgs, err := storage.GetMessagesByConversationID(ctx, a.Store.DB(), conv.ID)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	if c.Format == "json" {
		return printJSON(os.Stdout, struct {
			*storage.Conversation
			Messages []storage.Message `json:"messages"`
		}{conv, msgs})
	}

	console, err := consoleConfig(a.Config, os.Stdout, c.Plain || a.Config.Chat.Plain)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n\n", headingStyle().Render(conv.DisplayTitle()))
	printMessages(os.Stdout, msgs, console.Renderer)
	return nil
}

// ConversationsRenameCmd sets a conversation title
type ConversationsRenameCmd struct {
	ID    string   `arg:"" help:"Conversation ID or unique prefix"`
	Title []string `arg:"" help:"New title"`
}

func (c *ConversationsRenameCmd) Run(ctx context.Context, cli *CLI) error {
	title := strings.TrimSpace(strings.Join(c.Title, " "))
	if title == "" {
		return usagef("title cannot be empty")
	}

	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	conv, err := findConversation(ctx, a.Store.DB(), c.ID)
	if err != nil {
		return err
	}
	if err := storage.UpdateConversationTitle(ctx, a.Store.DB(), conv.ID, title); err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}
	fmt.Printf("Renamed %s to %q\n", shortID(conv.ID), title)
	return nil
}

// ConversationsDeleteCmd deletes a conversation
type ConversationsDeleteCmd struct {
	ID string `arg:"" help:"Conversation ID or unique prefix"`
}

func (c *ConversationsDeleteCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := openApp(ctx, cli, false)
	if err != nil {
		return err
	}
	defer a.Close()

	conv, err := findConversation(ctx, a.Store.DB(), c.ID)
	if err != nil {
		return err
	}
	if err := storage.DeleteConversation(ctx, a.Store.DB(), conv.ID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	fmt.Printf("Deleted %q\n", conv.DisplayTitle())
	return nil
}

// findConversation resolves a full id or a unique id prefix
func findConversation(ctx context.Context, db sqlscan.Querier, id string) (*storage.Conversation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, usagef("conversation id is required")
	}

	conv, err := storage.GetConversationByID(ctx, db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	convs, err := storage.ListConversations(ctx, db, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	var matches []storage.Conversation
	for _, c := range convs {
		if strings.HasPrefix(c.ID, id) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return nil, usagef("no conversation matches %q", id)
	case 1:
		return &matches[0], nil
	default:
		return nil, usagef("%q matches %d conversations", id, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printConversations(w io.Writer, convs []storage.Conversation, current string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tTitle\tLast message")
	for _, c := range convs {
		marker := ""
		if c.ID == current {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, shortID(c.ID), c.DisplayTitle(), formatTime(c.LastMessageAt))
	}
	return tw.Flush()
}

func printMessages(w io.Writer, msgs []storage.Message, renderer chat.Renderer) {
	for _, m := range msgs {
		label := "you"
		if m.Participant == storage.ParticipantModel {
			label = "gem"
		}
		if m.Status == storage.StatusFailed {
			label += " (failed)"
		}
		fmt.Fprintln(w, labelStyle(m.Participant).Render(label))

		content := m.Content
		if m.Participant == storage.ParticipantModel && renderer != nil {
			if rendered, err := renderer.Render(content); err == nil {
				content = rendered
			}
		}
		fmt.Fprintln(w, strings.TrimRight(content, "\n"))
		fmt.Fprintln(w)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	local := t.Local()
	if time.Since(local) < 24*time.Hour {
		return local.Format("15:04")
	}
	return local.Format("2006-01-02")
}
