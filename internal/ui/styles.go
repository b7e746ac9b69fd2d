package ui

import "github.com/charmbracelet/lipgloss"

var (
	menuTitleStyle      = lipgloss.NewStyle().MarginLeft(2)
	menuPaginationStyle = lipgloss.NewStyle().PaddingLeft(4)
	menuHelpStyle       = lipgloss.NewStyle().PaddingLeft(4).PaddingBottom(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	surfaceStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("240"))

	tipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			MarginLeft(2)

	bannerErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true).
				MarginLeft(2)

	promptStyle = lipgloss.NewStyle().MarginLeft(2)

	confirmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F4B400")).
			Bold(true).
			MarginLeft(2)

	helpBarStyle = lipgloss.NewStyle().MarginLeft(2)
)
