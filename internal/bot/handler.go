// Package bot is a Telegram front end over the same search, cache and
// bookmark core as the web dashboard.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"paperlab/internal/bookmarks"
	"paperlab/internal/card"
	"paperlab/internal/domain"
	"paperlab/internal/papers"
)

// maxCards caps how many result cards one /search sends.
const maxCards = 5

// Library is the search and single-paper resolution the bot depends on.
type Library interface {
	Search(ctx context.Context, q domain.Query) ([]domain.Paper, error)
	Find(ctx context.Context, id string) (domain.Paper, error)
}

// CategoryNamer maps a category code to a display name.
type CategoryNamer interface {
	Name(ctx context.Context, code string) (string, bool, error)
}

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot        *tgbot.Bot
	library    Library
	bookmarks  *bookmarks.Index
	categories CategoryNamer
	sortBy     domain.SortOrder
	now        func() time.Time
	log        logrus.FieldLogger
}

// NewHandler creates the bot and registers its handlers. Extra options are
// passed to the Telegram client.
func NewHandler(token string, library Library, index *bookmarks.Index, categories CategoryNamer, sortBy domain.SortOrder, logger logrus.FieldLogger, opts ...tgbot.Option) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	h := &Handler{
		library:    library,
		bookmarks:  index,
		categories: categories,
		sortBy:     sortBy,
		now:        time.Now,
		log:        log,
	}

	opts = append([]tgbot.Option{tgbot.WithDefaultHandler(h.defaultHandler)}, opts...)
	b, err := tgbot.New(token, opts...)
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b
	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

func (h *Handler) registerHandlers() {
	h.bot.RegisterHandlerMatchFunc(matchCommand("start"), h.startHandler)
	h.bot.RegisterHandlerMatchFunc(matchCommand("search"), h.searchHandler)
	h.bot.RegisterHandlerMatchFunc(matchCommand("bookmarks"), h.bookmarksHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, callbackPrefix, tgbot.MatchTypePrefix, h.callbackHandler)
	h.log.Info("Registered command and callback handlers")
}

// Start polls for updates until ctx is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.log.WithFields(logrus.Fields{"chat_id": update.Message.Chat.ID, "command": "/start"})
	log.Info("Received /start command")

	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "Welcome to paperlab! Send /search <terms> (or just the terms) to find recent papers, and /bookmarks to see what you saved.",
	})
	if err != nil {
		log.WithError(err).Error("Failed to send welcome message")
	}
}

func (h *Handler) searchHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	terms, _ := commandArgs(update.Message.Text, "search")
	h.search(ctx, b, update.Message.Chat.ID, terms)
}

// defaultHandler treats any other text message as search terms.
func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	if strings.HasPrefix(update.Message.Text, "/") {
		h.log.WithField("text", update.Message.Text).Debug("Received unknown command")
		return
	}
	h.search(ctx, b, update.Message.Chat.ID, strings.TrimSpace(update.Message.Text))
}

func (h *Handler) search(ctx context.Context, b *tgbot.Bot, chatID int64, terms string) {
	log := h.log.WithFields(logrus.Fields{"chat_id": chatID, "query": terms})
	if terms == "" {
		h.reply(ctx, b, chatID, "Usage: /search <terms>")
		return
	}

	results, err := h.library.Search(ctx, domain.Query{Text: terms, MaxResults: maxCards, SortBy: h.sortBy})
	if err != nil {
		log.WithError(err).Warn("Search failed")
		h.reply(ctx, b, chatID, "Search failed, the paper provider did not answer. Try again later.")
		return
	}
	if len(results) == 0 {
		h.reply(ctx, b, chatID, "No papers found.")
		return
	}

	now := h.now()
	for _, p := range results {
		v := card.Present(p, false, h.bookmarks.IsBookmarked(p), now)
		_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID:      chatID,
			Text:        renderMessage(v),
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: keyboard(v),
		})
		if err != nil {
			log.WithError(err).WithField("paper_id", p.ID).Error("Failed to send card")
			return
		}
	}
	log.WithField("results", len(results)).Info("Sent search results")
}

func (h *Handler) bookmarksHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	groups := h.bookmarks.ListByCategory()
	names := make(map[string]string, len(groups))
	if h.categories != nil {
		for _, g := range groups {
			if name, ok, err := h.categories.Name(ctx, g.Category); err == nil && ok {
				names[g.Category] = name
			}
		}
	}

	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      renderBookmarks(groups, names),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		h.log.WithError(err).Error("Failed to send bookmarks")
	}
}

// callbackHandler re-renders the card a button belongs to, in place.
func (h *Handler) callbackHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	query := update.CallbackQuery
	log := h.log.WithField("callback", query.Data)

	answer := &tgbot.AnswerCallbackQueryParams{CallbackQueryID: query.ID}
	defer func() {
		if _, err := b.AnswerCallbackQuery(ctx, answer); err != nil {
			log.WithError(err).Warn("Failed to answer callback query")
		}
	}()

	cb, err := parseCallback(query.Data)
	if err != nil {
		log.WithError(err).Warn("Ignoring malformed callback")
		answer.Text = "Unknown action"
		return
	}

	p, err := h.library.Find(ctx, cb.ID)
	if err != nil {
		var lookupErr *papers.LookupError
		if errors.As(err, &lookupErr) && lookupErr.NotFound() {
			answer.Text = "Paper not found"
		} else {
			answer.Text = "Could not load the paper, try again later"
		}
		log.WithError(err).Warn("Callback lookup failed")
		return
	}

	if cb.Bookmark() {
		if h.bookmarks.Add(p) {
			answer.Text = "Bookmarked under " + p.PrimaryCategory
		} else {
			answer.Text = "Already bookmarked"
		}
	}

	msg := query.Message.Message
	if msg == nil {
		log.Debug("Callback message is no longer accessible")
		return
	}

	v := card.Present(p, cb.Expanded(), h.bookmarks.IsBookmarked(p), h.now())
	_, err = b.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        renderMessage(v),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard(v),
	})
	if err != nil {
		log.WithError(err).Error("Failed to edit card message")
	}
}

// matchCommand matches text messages invoking /name.
func matchCommand(name string) tgbot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		_, ok := commandArgs(update.Message.Text, name)
		return ok
	}
}

// commandArgs reports whether text invokes /name, optionally addressed as
// /name@botname, and returns the trimmed text after the command word.
func commandArgs(text, name string) (string, bool) {
	word, rest, _ := strings.Cut(strings.TrimSpace(text), " ")
	word, _, _ = strings.Cut(word, "@")
	if word != "/"+name {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func (h *Handler) reply(ctx context.Context, b *tgbot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.log.WithError(err).Error("Failed to send reply")
	}
}
