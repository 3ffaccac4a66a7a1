package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/H3R0SHI/reminder-bot/internal/domain"
)

// UI texts in English
const (
	startText = "👋 I am a reminder bot.\n\n" +
		"Tell me when and what, and I will ping you — one-off or repeating, in your timezone.\n\n" +
		"Start with /remind, or see /help for everything I can do."

	helpText = "Commands:\n" +
		"/remind — create a reminder (or /remind <when> | <text>)\n" +
		"/repeat — create a daily or weekly reminder\n" +
		"/list — your reminders\n" +
		"/delete <id> — remove a reminder\n" +
		"/timezone <tz> — set your timezone\n" +
		"/profile — tier, credits and limits\n" +
		"/redeem <code> — redeem a credit or plan code"

	askWhenPrompt = "When should I remind you?\n" +
		"Examples: in 2 hours, tomorrow at 9am, next Monday 10:00"
	askTextPrompt = "Got the time. What should I remind you about?"

	somethingWrong = "Something went wrong, please try again."
	adminsOnly     = "Admins only."
)

// reminderText renders a due reminder for delivery.
func reminderText(rem *domain.Reminder) string {
	return fmt.Sprintf("⏰ Reminder\n\n%s\n\nTime: %s", rem.Text, domain.Humanize(rem.DueAt, rem.Timezone))
}

// listText renders the /list response.
func listText(rems []domain.Reminder) string {
	var b strings.Builder
	n := 0
	for _, rem := range rems {
		if rem.Done {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. [%s] %s\n   %s", n, rem.ID, rem.Text, domain.Humanize(rem.DueAt, rem.Timezone))
		if rem.Recurring != nil {
			fmt.Fprintf(&b, " (repeats %s)", rem.Recurring.Kind)
		}
		b.WriteString("\n")
	}
	if n == 0 {
		return "No active reminders. Create one with /remind."
	}
	return "Your reminders:\n" + b.String()
}

// reminderKeyboard builds snooze buttons for the tier's step options plus
// Done/Delete actions, max 3 buttons per row.
func reminderKeyboard(rem *domain.Reminder, snoozeMinutes []int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range snoozeMinutes {
		label := fmt.Sprintf("💤 %dm", m)
		if m >= 60 && m%60 == 0 {
			label = fmt.Sprintf("💤 %dh", m/60)
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("snooze:%s:%d", rem.ID, m)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("✅ Done", "done:"+rem.ID),
		tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", "del:"+rem.ID),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
