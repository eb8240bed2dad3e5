// Package commands describes slash commands kept in a telegram.Registry.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash command and how it shows up in the command menu.
type Command struct {
	Handler tele.HandlerFunc
	// Description is the menu text. Descriptions overrides it per language
	// code.
	Description  string
	Descriptions map[string]string
	// AdminOnly commands are listed only in the admins' menus.
	AdminOnly bool
	Hidden    bool
	// Aliases match with or without a leading slash, so reply keyboard
	// labels may be aliases.
	Aliases []string
}

// DescriptionFor returns the menu text in lang.
func (c Command) DescriptionFor(lang string) string {
	if d, ok := c.Descriptions[lang]; ok && d != "" {
		return d
	}
	return c.Description
}

// Matches reports whether text is one of the aliases of c.
func (c Command) Matches(text string) bool {
	for _, a := range c.Aliases {
		if a == text || "/"+a == text {
			return true
		}
	}
	return false
}
