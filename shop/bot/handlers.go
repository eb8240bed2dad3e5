package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/shoebot/core/logger"
	"github.com/m3rciful/shoebot/core/telegram/callbacks"
	"github.com/m3rciful/shoebot/core/telegram/state"
	"github.com/m3rciful/shoebot/shop/answers"
	"github.com/m3rciful/shoebot/shop/browse"
	"github.com/m3rciful/shoebot/shop/callback"
	"github.com/m3rciful/shoebot/shop/catalog"
	"github.com/m3rciful/shoebot/shop/session"

	tele "gopkg.in/telebot.v4"
)

// albumLimit is the most photos Telegram accepts in one media group.
const albumLimit = 10

func (a *App) registerCallbacks() error {
	handlers := map[string]tele.HandlerFunc{
		callback.NSFilter:    a.handleFilter,
		callback.NSControls:  a.handleControls,
		callback.NSAllPics:   a.handleAllPictures,
		callback.NSBookmark:  a.handleBookmark,
		callback.NSListSizes: a.handleListSizes,
		callback.NSBuy:       a.handleBuy,
	}
	for ns, h := range handlers {
		if err := a.registry.RegisterCallback(ns, h); err != nil {
			return fmt.Errorf("bot: register %s: %w", ns, err)
		}
	}
	return nil
}

// action decodes the callback of c. The session is left untouched on error.
func action(c tele.Context) (callback.Action, error) {
	return callback.ParseAction(callbacks.CallbackData(c))
}

func (a *App) handleFilter(c tele.Context) error {
	t := a.begin(c)
	act, err := action(c)
	if err != nil {
		return a.fail(c, t, err)
	}

	s := t.sess
	switch act := act.(type) {
	case callback.FilterChoice:
		s, err = a.machine.Choose(s, act.Filter, act.Value)
	case callback.FilterSkip:
		s, err = a.machine.Skip(s)
	case callback.FilterSkipAll:
		s, err = a.machine.SkipAll(s)
	default:
		err = fmt.Errorf("bot: unexpected %T in filter namespace", act)
	}
	if err != nil {
		return a.fail(c, t, err)
	}

	s, err = a.present(c, t, s, true)
	if err != nil {
		return a.fail(c, t, err)
	}
	state.Save(c, s)
	return nil
}

// present shows the step s is on: a choice prompt while in the wizard, the
// first slide once the results are reached. inPlace edits the message the
// callback came from instead of sending a new one.
func (a *App) present(c tele.Context, t turn, s session.Session, inPlace bool) (session.Session, error) {
	if a.machine.Done(s) {
		return a.results(c, t, s, inPlace)
	}

	p, err := a.machine.Enter(s)
	if err != nil {
		return s, err
	}
	choices, err := a.choices.Choices(t.ctx, p.Definition, p.Relation)
	if err != nil {
		return s, err
	}
	ans, err := answers.Prompt(t.l, p.Definition, choices)
	if err != nil {
		return s, err
	}
	if inPlace {
		return s, edit(c, ans)
	}
	return s, send(c, ans)
}

func (a *App) results(c tele.Context, t turn, s session.Session, inPlace bool) (session.Session, error) {
	slide, s, err := a.resolver.Slide(t.ctx, s, 0, s.Filters)
	if errors.Is(err, browse.ErrNoResults) {
		s = a.machine.Finish(s, true)
		ans := answers.Answer{Caption: t.l.T("error.no_results", nil)}
		if inPlace {
			return s, edit(c, ans)
		}
		return s, send(c, ans)
	}
	if err != nil {
		return s, err
	}
	s = a.machine.Finish(s, false)

	ans, err := answers.Slide(t.l, slide)
	if err != nil {
		return s, err
	}
	if inPlace {
		a.settlePrompt(c, t, s)
	}
	return s, send(c, ans)
}

// settlePrompt replaces the last wizard prompt with a summary of the chosen
// filters, or removes it when nothing was chosen.
func (a *App) settlePrompt(c tele.Context, t turn, s session.Session) {
	sel, err := a.choices.Describe(t.ctx, a.machine.Catalog(), s.Filters)
	if err != nil {
		logger.Warn(t.ctx, component, "prompt.describe",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	if summary := answers.Chosen(t.l, sel); summary != "" {
		err = edit(c, answers.Answer{Caption: summary})
	} else {
		err = c.Delete()
	}
	if err != nil {
		logger.Debug(t.ctx, component, "prompt.settle",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func (a *App) handleControls(c tele.Context) error {
	t := a.begin(c)
	act, err := action(c)
	if err != nil {
		return a.fail(c, t, err)
	}
	ctl, ok := act.(callback.Controls)
	if !ok {
		return a.fail(c, t, fmt.Errorf("bot: unexpected %T in controls namespace", act))
	}

	slide, s, err := a.resolver.Slide(t.ctx, t.sess, ctl.Index, ctl.Filters)
	if err != nil {
		return a.fail(c, t, err)
	}
	ans, err := answers.Slide(t.l, slide)
	if err != nil {
		return a.fail(c, t, err)
	}
	if err := edit(c, ans); err != nil {
		return a.fail(c, t, err)
	}
	state.Save(c, s)
	return nil
}

func (a *App) handleAllPictures(c tele.Context) error {
	t := a.begin(c)
	act, err := action(c)
	if err != nil {
		return a.fail(c, t, err)
	}
	pics, ok := act.(callback.AllPictures)
	if !ok {
		return a.fail(c, t, fmt.Errorf("bot: unexpected %T in all_pics namespace", act))
	}
	if err := a.throttle.Check(throttleKey(c), a.cfg.Shop.Throttle.AllPictures); err != nil {
		return a.fail(c, t, err)
	}

	p, s, err := a.resolver.Product(t.ctx, t.sess, pics.Index, pics.Filters)
	if err != nil {
		return a.fail(c, t, err)
	}
	for _, album := range albums(p) {
		if err := c.SendAlbum(album); err != nil {
			return a.fail(c, t, err)
		}
	}
	state.Save(c, s)
	return nil
}

// albums splits the pictures of p into media groups Telegram accepts.
func albums(p catalog.Product) []tele.Album {
	pics := p.Pictures()
	out := make([]tele.Album, 0, (len(pics)+albumLimit-1)/albumLimit)
	for i := 0; i < len(pics); i += albumLimit {
		group := pics[i:min(i+albumLimit, len(pics))]
		album := make(tele.Album, 0, len(group))
		for _, pic := range group {
			if pic.Pic == "" {
				continue
			}
			album = append(album, &tele.Photo{File: tele.FromURL(pic.Pic)})
		}
		if len(album) > 0 {
			out = append(out, album)
		}
	}
	return out
}

func (a *App) handleBookmark(c tele.Context) error {
	t := a.begin(c)
	act, err := action(c)
	if err != nil {
		return a.fail(c, t, err)
	}

	switch act := act.(type) {
	case callback.BookmarkDelete:
		if err := c.Delete(); err != nil {
			return a.fail(c, t, err)
		}
		return nil
	case callback.BookmarkAdd:
		if err := a.throttle.Check(throttleKey(c), a.cfg.Shop.Throttle.Bookmark); err != nil {
			return a.fail(c, t, err)
		}
		p, s, err := a.resolver.Product(t.ctx, t.sess, act.Index, act.Filters)
		if err != nil {
			return a.fail(c, t, err)
		}
		ans, err := answers.Bookmark(t.l, p, act.Index, act.Filters)
		if err != nil {
			return a.fail(c, t, err)
		}
		if err := send(c, ans); err != nil {
			return a.fail(c, t, err)
		}
		state.Save(c, s)
		return nil
	}
	return a.fail(c, t, fmt.Errorf("bot: unexpected %T in bookmark namespace", act))
}

func (a *App) handleListSizes(c tele.Context) error {
	t := a.begin(c)
	act, err := action(c)
	if err != nil {
		return a.fail(c, t, err)
	}
	ls, ok := act.(callback.ListSizes)
	if !ok {
		return a.fail(c, t, fmt.Errorf("bot: unexpected %T in list_sizes namespace", act))
	}

	p, s, err := a.resolver.Product(t.ctx, t.sess, ls.Index, ls.Filters)
	if err != nil {
		return a.fail(c, t, err)
	}
	ans, err := answers.Sizes(t.l, p, ls.Index, ls.Filters)
	if err != nil {
		return a.fail(c, t, err)
	}
	if err := send(c, ans); err != nil {
		return a.fail(c, t, err)
	}
	state.Save(c, s)
	return nil
}

// throttleKey is the raw callback token. The window is shared by every chat
// showing the same button.
func throttleKey(c tele.Context) string {
	return callbacks.CallbackData(c)
}
