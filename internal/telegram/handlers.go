package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
	"github.com/H3R0SHI/reminder-bot/internal/policy"
)

// --- user commands ---

// handleRemind starts the two-step create flow, or creates directly when the
// command carries "when | text" arguments.
func (r *Router) handleRemind(ctx context.Context, profile *domain.UserProfile, msg *tgbotapi.Message) {
	args := strings.TrimSpace(strings.TrimPrefix(msg.Text, "/remind"))
	if args == "" {
		r.setPending(msg.Chat.ID, pending{kind: pendingWhen})
		r.sendText(msg.Chat.ID, askWhenPrompt)
		return
	}
	parts := strings.SplitN(args, "|", 2)
	if len(parts) != 2 {
		r.sendText(msg.Chat.ID, "Usage: /remind <when> | <text>\nExample: /remind tomorrow 9am | take medicine")
		return
	}
	r.finishCreate(ctx, profile, msg.Chat.ID, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
}

func (r *Router) finishCreate(ctx context.Context, profile *domain.UserProfile, chatID int64, whenText, text string) {
	rem, err := r.svc.CreateReminder(ctx, profile, chatID, whenText, text)
	if err != nil {
		r.sendText(chatID, userError(err))
		return
	}
	r.sendText(chatID, fmt.Sprintf("Reminder %s created.\nWhat: %s\nWhen: %s",
		rem.ID, rem.Text, domain.Humanize(rem.DueAt, rem.Timezone)))
}

// handleRepeat creates a recurring reminder:
// /repeat daily <interval> <HH:MM> <text>
// /repeat weekly <interval> <mon..sun> <HH:MM> <text>
func (r *Router) handleRepeat(ctx context.Context, profile *domain.UserProfile, msg *tgbotapi.Message) {
	fields := strings.Fields(msg.Text)[1:]
	usage := "Usage:\n/repeat daily <interval> <HH:MM> <text>\n/repeat weekly <interval> <mon..sun> <HH:MM> <text>"

	if len(fields) < 3 {
		r.sendText(msg.Chat.ID, usage)
		return
	}
	kind := domain.RecurKind(strings.ToLower(fields[0]))
	interval, err := strconv.Atoi(fields[1])
	if err != nil || interval < 1 {
		r.sendText(msg.Chat.ID, usage)
		return
	}

	rec := &domain.Recurrence{Kind: kind, Interval: interval}
	var hhmm, text string
	switch kind {
	case domain.RecurDaily:
		hhmm = fields[2]
		text = strings.Join(fields[3:], " ")
	case domain.RecurWeekly:
		if len(fields) < 4 {
			r.sendText(msg.Chat.ID, usage)
			return
		}
		dow, ok := parseWeekday(fields[2])
		if !ok {
			r.sendText(msg.Chat.ID, "Unknown weekday. Use mon, tue, wed, thu, fri, sat or sun.")
			return
		}
		rec.DayOfWeek = &dow
		hhmm = fields[3]
		text = strings.Join(fields[4:], " ")
	default:
		r.sendText(msg.Chat.ID, usage)
		return
	}
	if text == "" {
		r.sendText(msg.Chat.ID, usage)
		return
	}

	rem, err := r.svc.CreateRecurring(ctx, profile, msg.Chat.ID, text, rec, hhmm)
	if err != nil {
		r.sendText(msg.Chat.ID, userError(err))
		return
	}
	r.sendText(msg.Chat.ID, fmt.Sprintf("Repeating reminder %s set: %s\nFirst: %s",
		rem.ID, rem.Text, domain.Humanize(rem.DueAt, rem.Timezone)))
}

func (r *Router) handleList(ctx context.Context, profile *domain.UserProfile, chatID int64) {
	rems, err := r.svc.List(ctx, profile.UserID)
	if err != nil {
		r.log.Error("list failed", zap.Int64("userID", profile.UserID), zap.Error(err))
		r.sendText(chatID, somethingWrong)
		return
	}
	r.sendText(chatID, listText(rems))
}

func (r *Router) handleDelete(ctx context.Context, profile *domain.UserProfile, msg *tgbotapi.Message) {
	fields := strings.Fields(msg.Text)
	if len(fields) < 2 {
		r.sendText(msg.Chat.ID, "Usage: /delete <reminder id> (see /list)")
		return
	}
	if err := r.svc.Delete(ctx, profile, fields[1]); err != nil {
		r.sendText(msg.Chat.ID, userError(err))
		return
	}
	r.sendText(msg.Chat.ID, "Deleted.")
}

func (r *Router) handleTimezone(ctx context.Context, profile *domain.UserProfile, msg *tgbotapi.Message) {
	fields := strings.Fields(msg.Text)
	if len(fields) < 2 {
		r.setPending(msg.Chat.ID, pending{kind: pendingTZ})
		r.sendText(msg.Chat.ID, "Send your timezone, e.g. Europe/Berlin")
		return
	}
	r.finishTimezone(ctx, profile, msg.Chat.ID, fields[1])
}

func (r *Router) finishTimezone(ctx context.Context, profile *domain.UserProfile, chatID int64, tz string) {
	if err := r.svc.SetTimezone(ctx, profile, tz); err != nil {
		r.sendText(chatID, userError(err))
		return
	}
	r.sendText(chatID, "Timezone updated to "+profile.Timezone+".")
}

func (r *Router) handleProfile(ctx context.Context, profile *domain.UserProfile, chatID int64) {
	rems, err := r.svc.List(ctx, profile.UserID)
	if err != nil {
		r.log.Error("list failed", zap.Int64("userID", profile.UserID), zap.Error(err))
		r.sendText(chatID, somethingWrong)
		return
	}
	active := 0
	for _, rem := range rems {
		if !rem.Done {
			active++
		}
	}
	limits := policy.Limits(profile)
	r.sendText(chatID, fmt.Sprintf(
		"Tier: %s\nCredits: %d\nTimezone: %s\nActive reminders: %d/%d\nSnoozes per reminder: %d",
		profile.Tier, profile.Credits, profile.Timezone, active, limits.MaxActive, limits.SnoozeLimit))
}

func (r *Router) handleRedeem(ctx context.Context, profile *domain.UserProfile, msg *tgbotapi.Message) {
	fields := strings.Fields(msg.Text)
	if len(fields) < 2 {
		r.setPending(msg.Chat.ID, pending{kind: pendingCode})
		r.sendText(msg.Chat.ID, "Send your redeem code.")
		return
	}
	r.finishRedeem(ctx, profile, msg.Chat.ID, fields[1])
}

func (r *Router) finishRedeem(ctx context.Context, profile *domain.UserProfile, chatID int64, codeStr string) {
	code, err := r.svc.Redeem(ctx, profile, codeStr)
	if err != nil {
		r.sendText(chatID, userError(err))
		return
	}
	switch code.Kind {
	case domain.CodeCredits:
		r.sendText(chatID, fmt.Sprintf("Added %d credits. New balance: %d", code.Amount, profile.Credits))
	default:
		r.sendText(chatID, fmt.Sprintf("%s plan activated. Enjoy your premium features!", profile.Tier))
	}
}

// --- reminder action callbacks (snooze/done/del) ---

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	profile, err := r.svc.EnsureUser(ctx, cb.From.ID, cb.From.FirstName, cb.From.UserName)
	if err != nil {
		r.log.Error("ensure user failed", zap.Int64("userID", cb.From.ID), zap.Error(err))
		return
	}

	parts := strings.Split(cb.Data, ":")
	if len(parts) < 2 {
		return
	}
	action, id := parts[0], parts[1]

	var reply string
	switch action {
	case "snooze":
		minutes := 5
		if len(parts) >= 3 {
			if m, err := strconv.Atoi(parts[2]); err == nil {
				minutes = m
			}
		}
		rem, err := r.svc.Snooze(ctx, profile, id, minutes)
		if err != nil {
			reply = userError(err)
		} else {
			reply = fmt.Sprintf("Snoozed to %s\n%s", domain.Humanize(rem.DueAt, rem.Timezone), rem.Text)
		}
	case "done":
		if err := r.svc.Complete(ctx, profile, id); err != nil {
			reply = userError(err)
		} else {
			reply = "Marked as done."
		}
	case "del":
		if err := r.svc.Delete(ctx, profile, id); err != nil {
			reply = userError(err)
		} else {
			reply = "Deleted."
		}
	default:
		return
	}

	if _, err := r.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.log.Debug("answer callback failed", zap.Error(err))
	}
	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, reply)
	if _, err := r.bot.Send(edit); err != nil {
		// The original message may be too old to edit; fall back to a new one.
		r.sendText(chatID, reply)
	}
}

// --- admin commands ---

func (r *Router) handleGen(ctx context.Context, profile *domain.UserProfile, msg *tgbotapi.Message) {
	if !r.isAdmin(profile.UserID) {
		r.sendText(msg.Chat.ID, adminsOnly)
		return
	}
	fields := strings.Fields(msg.Text)
	usage := "Usage:\n/gen credits <amount> <count> [days_valid]\n/gen plan <SILVER|GOLD|PLATINUM> <count> [days_valid]"
	if len(fields) < 4 {
		r.sendText(msg.Chat.ID, usage)
		return
	}

	count, err := strconv.Atoi(fields[3])
	if err != nil || count < 1 {
		r.sendText(msg.Chat.ID, usage)
		return
	}
	days := 30
	if len(fields) >= 5 {
		if d, err := strconv.Atoi(fields[4]); err == nil {
			days = d
		}
	}

	var codes []string
	switch fields[1] {
	case "credits":
		amount, err := strconv.Atoi(fields[2])
		if err != nil || amount < 1 {
			r.sendText(msg.Chat.ID, usage)
			return
		}
		codes, err = r.svc.GenerateCreditCodes(ctx, amount, count, days)
		if err != nil {
			r.log.Error("generate credit codes failed", zap.Error(err))
			r.sendText(msg.Chat.ID, somethingWrong)
			return
		}
	case "plan":
		plan := domain.ParseTier(strings.ToUpper(fields[2]))
		if plan == domain.TierFree {
			r.sendText(msg.Chat.ID, usage)
			return
		}
		codes, err = r.svc.GeneratePlanCodes(ctx, plan, count, days)
		if err != nil {
			r.log.Error("generate plan codes failed", zap.Error(err))
			r.sendText(msg.Chat.ID, somethingWrong)
			return
		}
	default:
		r.sendText(msg.Chat.ID, usage)
		return
	}
	r.sendText(msg.Chat.ID, "Generated codes:\n"+strings.Join(codes, "\n"))
}

func (r *Router) handleGrant(ctx context.Context, profile *domain.UserProfile, msg *tgbotapi.Message) {
	if !r.isAdmin(profile.UserID) {
		r.sendText(msg.Chat.ID, adminsOnly)
		return
	}
	fields := strings.Fields(msg.Text)
	usage := "Usage: /grant <user_id> credits <amount> | /grant <user_id> premium"
	if len(fields) < 3 {
		r.sendText(msg.Chat.ID, usage)
		return
	}
	target, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		r.sendText(msg.Chat.ID, usage)
		return
	}

	switch fields[2] {
	case "credits":
		if len(fields) < 4 {
			r.sendText(msg.Chat.ID, usage)
			return
		}
		amount, err := strconv.Atoi(fields[3])
		if err != nil {
			r.sendText(msg.Chat.ID, usage)
			return
		}
		granted, err := r.svc.GrantCredits(ctx, target, amount)
		if err != nil {
			r.sendText(msg.Chat.ID, userError(err))
			return
		}
		r.sendText(msg.Chat.ID, fmt.Sprintf("Granted %d credits to %d.", amount, target))
		r.sendText(target, fmt.Sprintf("You received %d credits! New balance: %d", amount, granted.Credits))
	case "premium":
		if _, err := r.svc.GrantPremium(ctx, target); err != nil {
			r.sendText(msg.Chat.ID, userError(err))
			return
		}
		r.sendText(msg.Chat.ID, fmt.Sprintf("Granted premium to %d.", target))
		r.sendText(target, "Your account was upgraded to premium. Enjoy!")
	default:
		r.sendText(msg.Chat.ID, usage)
	}
}

func (r *Router) handleBroadcast(ctx context.Context, profile *domain.UserProfile, msg *tgbotapi.Message) {
	if !r.isAdmin(profile.UserID) {
		r.sendText(msg.Chat.ID, adminsOnly)
		return
	}
	parts := strings.SplitN(msg.Text, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		r.sendText(msg.Chat.ID, "Usage: /broadcast <message>")
		return
	}
	payload := parts[1]

	ids, err := r.svc.ListUserIDs(ctx)
	if err != nil {
		r.log.Error("list users failed", zap.Error(err))
		r.sendText(msg.Chat.ID, somethingWrong)
		return
	}
	sent := 0
	for _, id := range ids {
		if _, err := r.bot.Send(tgbotapi.NewMessage(id, payload)); err != nil {
			r.log.Debug("broadcast send failed", zap.Int64("userID", id), zap.Error(err))
			continue
		}
		sent++
	}
	r.sendText(msg.Chat.ID, fmt.Sprintf("Broadcast sent to %d users.", sent))
}

// userError maps service errors to user-facing messages.
func userError(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTimezone):
		return "Invalid timezone. Example: Europe/Berlin"
	case errors.Is(err, domain.ErrUnparsableTime):
		return "I couldn't understand that time. Try formats like:\n" +
			"- in 2 hours\n- tomorrow at 9am\n- next Monday 10:00"
	case errors.Is(err, domain.ErrAdmissionDenied):
		return strings.TrimPrefix(err.Error(), domain.ErrAdmissionDenied.Error()+": ")
	case errors.Is(err, domain.ErrSnoozeLimitExceeded):
		return "Snooze limit reached for this reminder. Upgrade your plan for more snoozes."
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnauthorized):
		return "This reminder is no longer available."
	case errors.Is(err, domain.ErrCodeExpired):
		return "This code has expired."
	case errors.Is(err, domain.ErrCodeExhausted):
		return "This code has been fully redeemed."
	case errors.Is(err, domain.ErrCodeInvalid):
		return "Invalid code."
	default:
		return somethingWrong
	}
}

func parseWeekday(s string) (int, bool) {
	days := map[string]int{
		"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
	}
	d, ok := days[strings.ToLower(s)[:min(3, len(s))]]
	return d, ok
}
