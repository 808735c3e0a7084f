package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgOk            = `Ok!`
	MsgUnexpectedErr = `Unexpected error: %s`
	MsgStartPrompt   = `
		Send a screenshot of the round history, or type the multipliers you see.

		Current mode: *%s*. Switch with /rounds or /signal.`
	MsgModeRounds     = "Round analysis mode. Send a screenshot of the round history."
	MsgModeFairness   = "Fairness signal mode. Send a screenshot of the Provably Fair details."
	MsgAlbumDiscarded = "Pending screenshots discarded."
)

// =============================================================================
// Analysis messages
// =============================================================================

const (
	MsgAnalysisFailed = "An error occurred during analysis. Please try again."
	MsgNoInput        = "Please send an image or enter round data."
	MsgInvalidImage   = "Could not read the image: %s"
	MsgNotAnImage     = "That file is not an image. Send a screenshot instead."
)

// =============================================================================
// History messages
// =============================================================================

const (
	MsgHistoryEmpty   = "No multipliers recorded yet."
	MsgHistoryHeader  = "*%s* (%s)"
	MsgHistoryCleared = "History cleared."
	MsgClearFailed    = "Failed to clear history."
	MsgClearAdminOnly = "History is shared by all users. Only the admin can clear it."
	MsgStats          = `
		*History statistics*
		Rounds: %d (%d readable)
		Mean: %.2fx
		Median: %.2fx
		Min / max: %.2fx / %.2fx
		Std dev: %.2f
		At least 2x: %d
		At least 10x: %d`
)

// =============================================================================
// Admin command messages
// =============================================================================

const (
	MsgAdminUsage           = "Usage:\n`/admin users add <user_id>`\n`/admin users remove <user_id>`\n`/admin users list`"
	MsgAdminUserAddUsage    = "Usage: `/admin users add <user_id>`"
	MsgAdminUserRemoveUsage = "Usage: `/admin users remove <user_id>`"
	MsgAdminUserInvalidID   = "Invalid user ID. Enter a number."
	MsgAdminUserAdded       = "User `%d` added."
	MsgAdminUserRemoved     = "User `%d` removed."
	MsgAdminNoUsers         = "No allowed users."
	MsgAdminAllowedUsers    = "*Allowed users:*\n"
)
