package chat

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Renderer turns a completed markdown reply into terminal output.
type Renderer interface {
	Render(markdown string) (string, error)
}

// ConsoleProcessorConfig configures the console event processor
type ConsoleProcessorConfig struct {
	Out io.Writer

	// StreamMode prints chunks as they arrive. Otherwise the reply is
	// printed once complete, through Renderer when one is set.
	StreamMode bool
	Renderer   Renderer

	ShowTimings bool
	// RawMode prints only the reply text
	RawMode bool
	// HideErrors leaves error reporting to the caller
	HideErrors bool
}

// ConsoleEventProcessor processes events and outputs to console
type ConsoleEventProcessor struct {
	config ConsoleProcessorConfig
}

// NewConsoleEventProcessor creates a new console event processor
func NewConsoleEventProcessor(config ConsoleProcessorConfig) *ConsoleEventProcessor {
	return &ConsoleEventProcessor{
		config: config,
	}
}

// Process handles a single event
func (p *ConsoleEventProcessor) Process(event ConversationEvent) error {
	switch e := event.(type) {
	case *StreamChunkEvent:
		if p.config.StreamMode {
			_, err := io.WriteString(p.config.Out, e.Content)
			return err
		}

	case *StreamEndEvent:
		return p.processStreamEnd(e)

	case *ErrorEvent:
		if !p.config.RawMode && !p.config.HideErrors {
			_, err := fmt.Fprintf(p.config.Out, "\n❌ %v\n", e.Error)
			return err
		}
	}

	return nil
}

// Close cleans up resources
func (p *ConsoleEventProcessor) Close() error {
	return nil
}

func (p *ConsoleEventProcessor) processStreamEnd(e *StreamEndEvent) error {
	out := p.config.Out
	if p.config.StreamMode {
		if !strings.HasSuffix(e.Content, "\n") {
			fmt.Fprintln(out)
		}
	} else {
		text := e.Content
		if p.config.Renderer != nil && !p.config.RawMode {
			rendered, err := p.config.Renderer.Render(e.Content)
			if err == nil {
				text = rendered
			}
		}
		fmt.Fprint(out, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(out)
		}
	}

	if p.config.ShowTimings && !p.config.RawMode {
		fmt.Fprintf(out, "(%v)\n", e.Duration.Round(10*time.Millisecond))
	}
	return nil
}
