package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/emacsmirror/easky/internal/helpmenu"
)

// MenuItem is one subcommand listed by a help menu.
type MenuItem struct {
	Name, Desc string
}

func (i MenuItem) Title() string       { return i.Name }
func (i MenuItem) Description() string { return i.Desc }
func (i MenuItem) FilterValue() string { return i.Name }

// MenuItems converts parsed options, keeping their order.
func MenuItems(options []helpmenu.Option) []MenuItem {
	items := make([]MenuItem, len(options))
	for i, opt := range options {
		items[i] = MenuItem{Name: opt.ID, Desc: opt.Description}
	}
	return items
}

const (
	defaultMenuWidth  = 40
	defaultMenuHeight = 14
)

func newMenuList(title string, items []MenuItem) list.Model {
	lItems := make([]list.Item, len(items))
	for i, item := range items {
		lItems[i] = item
	}

	l := list.New(lItems, list.NewDefaultDelegate(), defaultMenuWidth, defaultMenuHeight)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = menuTitleStyle
	l.Styles.PaginationStyle = menuPaginationStyle
	l.Styles.HelpStyle = menuHelpStyle
	return l
}
