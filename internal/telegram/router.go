package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
	"github.com/H3R0SHI/reminder-bot/internal/policy"
	"github.com/H3R0SHI/reminder-bot/internal/service"
)

// pendingKind enumerates the conversational states awaiting free-form input.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingWhen             // awaiting a time expression for a new reminder
	pendingText             // awaiting the reminder text
	pendingTZ               // awaiting a timezone name
	pendingCode             // awaiting a redeem code
)

// pending carries a conversational state plus the fields that state needs.
type pending struct {
	kind     pendingKind
	whenText string // set when kind == pendingText
}

// Router wires Telegram updates to handlers and holds per-chat pending state.
type Router struct {
	bot    *tgbotapi.BotAPI
	log    *zap.Logger
	svc    *service.Reminders
	admins map[int64]bool

	mu    sync.RWMutex
	state map[int64]pending
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, svc *service.Reminders, adminIDs []int64) *Router {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Router{
		bot:    bot,
		log:    log,
		svc:    svc,
		admins: admins,
		state:  make(map[int64]pending),
	}
}

func (r *Router) setPending(chatID int64, p pending) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = p
}

func (r *Router) getPending(chatID int64) pending {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		if msg.From == nil {
			return
		}
		profile, err := r.svc.EnsureUser(ctx, msg.From.ID, msg.From.FirstName, msg.From.UserName)
		if err != nil {
			r.log.Error("ensure user failed", zap.Int64("userID", msg.From.ID), zap.Error(err))
			return
		}
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.clearPending(msg.Chat.ID)
			r.sendText(msg.Chat.ID, startText)
		case strings.HasPrefix(text, "/help"):
			r.sendText(msg.Chat.ID, helpText)
		case strings.HasPrefix(text, "/remind"):
			r.handleRemind(ctx, profile, msg)
		case strings.HasPrefix(text, "/repeat"):
			r.handleRepeat(ctx, profile, msg)
		case strings.HasPrefix(text, "/list"):
			r.handleList(ctx, profile, msg.Chat.ID)
		case strings.HasPrefix(text, "/delete"):
			r.handleDelete(ctx, profile, msg)
		case strings.HasPrefix(text, "/timezone"):
			r.handleTimezone(ctx, profile, msg)
		case strings.HasPrefix(text, "/profile"):
			r.handleProfile(ctx, profile, msg.Chat.ID)
		case strings.HasPrefix(text, "/redeem"):
			r.handleRedeem(ctx, profile, msg)
		case strings.HasPrefix(text, "/gen"):
			r.handleGen(ctx, profile, msg)
		case strings.HasPrefix(text, "/grant"):
			r.handleGrant(ctx, profile, msg)
		case strings.HasPrefix(text, "/broadcast"):
			r.handleBroadcast(ctx, profile, msg)
		default:
			r.handleFreeForm(ctx, profile, msg.Chat.ID, text)
		}
		return
	}

	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

// handleFreeForm dispatches non-command text based on the chat's pending state.
func (r *Router) handleFreeForm(ctx context.Context, profile *domain.UserProfile, chatID int64, text string) {
	p := r.getPending(chatID)
	switch p.kind {
	case pendingWhen:
		r.setPending(chatID, pending{kind: pendingText, whenText: text})
		r.sendText(chatID, askTextPrompt)
	case pendingText:
		r.clearPending(chatID)
		r.finishCreate(ctx, profile, chatID, p.whenText, text)
	case pendingTZ:
		r.clearPending(chatID)
		r.finishTimezone(ctx, profile, chatID, text)
	case pendingCode:
		r.clearPending(chatID)
		r.finishRedeem(ctx, profile, chatID, text)
	default:
		r.sendText(chatID, helpText)
	}
}

func (r *Router) isAdmin(userID int64) bool {
	return r.admins[userID]
}

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

// Notify delivers a due reminder with a tier-dependent snooze keyboard.
// This makes Router satisfy scheduler.Notifier.
func (r *Router) Notify(rem *domain.Reminder, profile *domain.UserProfile) error {
	msg := tgbotapi.NewMessage(rem.ChatID, reminderText(rem))
	msg.ReplyMarkup = reminderKeyboard(rem, policy.Limits(profile).SnoozeOptions)
	_, err := r.bot.Send(msg)
	return err
}
