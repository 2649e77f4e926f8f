package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/elee1766/gem/src/storage"
	"github.com/elee1766/gem/src/theme"
)

func headingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.CurrentTheme.Primary)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.CurrentTheme.TextMuted)
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.CurrentTheme.Error)
}

func labelStyle(p storage.Participant) lipgloss.Style {
	if p == storage.ParticipantModel {
		return lipgloss.NewStyle().Bold(true).Foreground(theme.CurrentTheme.Accent)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(theme.CurrentTheme.Primary)
}
