package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command is one entry of the bot's command menu.
type Command struct {
	Name        string // without the slash
	Description string
}

// botCommands lists the commands shown in Telegram's menu and in /help.
// /start and /admin are handled but not advertised.
var botCommands = []Command{
	{Name: "rounds", Description: "Analyze round history screenshots"},
	{Name: "signal", Description: "Analyze a Provably Fair screenshot"},
	{Name: "history", Description: "Show recorded multipliers"},
	{Name: "stats", Description: "Summary statistics of the history"},
	{Name: "clear", Description: "Clear the shared history (admin only)"},
	{Name: "cancel", Description: "Discard pending screenshots"},
}

// helpText renders botCommands as a Markdown list.
func helpText() string {
	var sb strings.Builder
	sb.WriteString("*Commands*\n")
	for _, cmd := range botCommands {
		fmt.Fprintf(&sb, "/%s - %s\n", cmd.Name, cmd.Description)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// RegisterCommands publishes botCommands with setMyCommands. Failure is
// logged only; the menu is cosmetic.
func RegisterCommands(tg BotAPI) {
	menu := make([]tgbotapi.BotCommand, 0, len(botCommands))
	for _, cmd := range botCommands {
		menu = append(menu, tgbotapi.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}

	if _, err := tg.Request(tgbotapi.NewSetMyCommands(menu...)); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
		return
	}
	log.Info().Int("count", len(menu)).Msg("registered bot commands")
}
