package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// handleAdminCommand runs `/admin users add|remove|list`. Only the configured
// admin may use it; anyone else is ignored without a reply.
func (b *Bot) handleAdminCommand(session *UserSession, args []string) {
	if session.userId != b.adminID {
		return
	}
	if len(args) < 2 || args[0] != "users" {
		session.reply(MsgAdminUsage)
		return
	}

	action, rest := args[1], args[2:]
	switch action {
	case "list":
		b.listAllowedUsers(session)
	case "add", "remove":
		if len(rest) == 0 {
			usage := MsgAdminUserAddUsage
			if action == "remove" {
				usage = MsgAdminUserRemoveUsage
			}
			session.reply(usage)
			return
		}
		target, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil || target <= 0 {
			session.reply(MsgAdminUserInvalidID)
			return
		}
		if action == "add" {
			err = b.users.AddAllowedUser(target, session.userId)
		} else {
			err = b.users.RemoveAllowedUser(target)
		}
		if err != nil {
			session.replyError(err)
			return
		}
		if action == "add" {
			session.reply(MsgAdminUserAdded, target)
		} else {
			session.reply(MsgAdminUserRemoved, target)
		}
	default:
		session.reply(MsgAdminUsage)
	}
}

func (b *Bot) listAllowedUsers(session *UserSession) {
	users, err := b.users.GetAllowedUsers()
	if err != nil {
		session.replyError(err)
		return
	}
	if len(users) == 0 {
		session.reply(MsgAdminNoUsers)
		return
	}

	var sb strings.Builder
	sb.WriteString(MsgAdminAllowedUsers)
	for _, u := range users {
		fmt.Fprintf(&sb, "• `%d` (added %s)\n", u.TelegramID, u.AddedAt.Format("2006-01-02"))
	}
	session.send(sb.String())
}
