// Package format escapes text for Telegram's legacy Markdown parse mode.
package format

import "strings"

var mdEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// MD escapes the characters legacy Markdown reads as markup.
func MD(text string) string {
	return mdEscaper.Replace(text)
}

// Bold escapes text and marks it bold.
func Bold(text string) string {
	return "*" + MD(text) + "*"
}
