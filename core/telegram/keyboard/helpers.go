// Package keyboard builds telebot reply and inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is an inline button. A button with a URL opens it; any other sends
// Data back as a callback.
type Button struct {
	Text string
	Data string
	URL  string
}

// Reply builds a resized reply keyboard from rows of labels.
func Reply(rows ...[]string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	for _, row := range rows {
		r := make([]tele.ReplyButton, 0, len(row))
		for _, label := range row {
			r = append(r, tele.ReplyButton{Text: label})
		}
		m.ReplyKeyboard = append(m.ReplyKeyboard, r)
	}
	return m
}

// Inline builds an inline keyboard. Empty rows are dropped; nil is returned
// when nothing is left, so the message is sent without a keyboard.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	var kb [][]tele.InlineButton
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for i, b := range row {
			if b.URL != "" {
				r[i] = tele.InlineButton{Text: b.Text, URL: b.URL}
			} else {
				r[i] = tele.InlineButton{Text: b.Text, Data: b.Data}
			}
		}
		kb = append(kb, r)
	}
	if kb == nil {
		return nil
	}
	return &tele.ReplyMarkup{InlineKeyboard: kb}
}
