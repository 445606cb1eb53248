package bot

import (
	"strconv"
	"strings"
)

const (
	COMMAND_SERVER_STATUS    = iota
	COMMAND_MARKET           = iota
	COMMAND_STATS            = iota
	COMMAND_SET_MANAGER_ROLE = iota
	COMMAND_LEAVE            = iota
	COMMAND_PREFIX           = iota
	COMMAND_STATUS_CHANNEL   = iota
	COMMAND_SERVER_COUNT     = iota
	COMMAND_HELP             = iota
	COMMAND_INVITE           = iota
)

const (
	PARSEID_OK              = iota
	PARSEID_NO_BOT_PREFIX   = iota
	PARSEID_UNKNOWN_COMMAND = iota
	PARSEID_SYNTAX_ERROR    = iota
)

// Aliases all map to the same command
var commands = map[string]int{
	"server":         COMMAND_SERVER_STATUS,
	"servers":        COMMAND_SERVER_STATUS,
	"down":           COMMAND_SERVER_STATUS,
	"market":         COMMAND_MARKET,
	"stats":          COMMAND_STATS,
	"setmanagerrole": COMMAND_SET_MANAGER_ROLE,
	"remove":         COMMAND_LEAVE,
	"leave":          COMMAND_LEAVE,
	"prefix":         COMMAND_PREFIX,
	"chanepre":       COMMAND_PREFIX,
	"changeprefix":   COMMAND_PREFIX,
	"serverchannel":  COMMAND_STATUS_CHANNEL,
	"downchannel":    COMMAND_STATUS_CHANNEL,
	"servercount":    COMMAND_SERVER_COUNT,
	"help":           COMMAND_HELP,
	"inv":            COMMAND_INVITE,
	"invite":         COMMAND_INVITE,
	"link":           COMMAND_INVITE,
}

// Rarity and type tokens the market command accepts, mapped to what
// the API expects
var rarities = map[string]string{
	"5": "5", "4": "4", "3": "3", "2": "2", "1": "1", "0": "all",
	"l": "5", "legend": "5", "legendary": "5",
	"a": "all", "all": "all",
	"m": "4", "mythic": "4",
	"e": "3", "epic": "3",
	"u": "2", "uncommon": "2",
	"c": "1", "common": "1",
}

var itemTypes = map[string]string{
	"a": "all", "all": "all",
	"outfit": "outfit", "skin": "outfit",
	"melee": "melee", "fists": "melee",
	"emote": "emote", "emoji": "emote",
	"heal": "heal_effect",
	"boost": "boost_effect", "adren": "boost_effect", "adrenaline": "boost_effect",
	"death": "deathEffect", "deatheffect": "deathEffect",
}

// Game mode tokens the stats command accepts, mapped to the index
// inside the per-mode stats array
var statModes = map[string]int{
	"solo": 0, "solos": 0,
	"duo": 1, "duos": 1,
	"squad": 2, "squads": 2,
}

type MarketArgs struct {
	Rarity string
	Type   string
	Page   int
}

type StatsArgs struct {
	Slug string
	Mode int // index into the per-mode stats, -1 for overall stats
}

type ParseResult struct {
	command   int
	parseid   int
	arguments interface{}
}

// Parse a guild message against the guild's configured prefix.
// A message without the prefix or with an unknown first token is
// rejected silently; a recognised command with malformed arguments
// yields a syntax error the caller reports to the user
func Parse(content string, prefix string) ParseResult {

	syntaxError := func(command int) ParseResult {
		return ParseResult{command: command, parseid: PARSEID_SYNTAX_ERROR}
	}

	// The message has to start with the guild's prefix
	if !strings.HasPrefix(content, prefix) {
		return ParseResult{parseid: PARSEID_NO_BOT_PREFIX}
	}

	words := strings.Fields(content[len(prefix):])
	if len(words) == 0 {
		return ParseResult{parseid: PARSEID_UNKNOWN_COMMAND}
	}
	commandString := strings.ToLower(words[0])
	words = words[1:]

	command, ok := commands[commandString]
	if !ok {
		return ParseResult{parseid: PARSEID_UNKNOWN_COMMAND}
	}

	switch command {
	case COMMAND_MARKET:
		// sv!market <rarity> <type> <page>
		if len(words) != 3 {
			return syntaxError(command)
		}
		rarity, ok := rarities[words[0]]
		if !ok {
			return syntaxError(command)
		}
		itemType, ok := itemTypes[words[1]]
		if !ok {
			return syntaxError(command)
		}
		page, err := strconv.Atoi(words[2])
		if err != nil {
			return syntaxError(command)
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: MarketArgs{rarity, itemType, page}}
	case COMMAND_STATS:
		// sv!stats <slug> [mode]
		if len(words) != 1 && len(words) != 2 {
			return syntaxError(command)
		}
		args := StatsArgs{Slug: words[0], Mode: -1}
		if len(words) == 2 {
			mode, ok := statModes[words[1]]
			if !ok {
				return syntaxError(command)
			}
			args.Mode = mode
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: args}
	case COMMAND_SET_MANAGER_ROLE:
		// sv!setmanagerrole <role_id>
		if len(words) != 1 {
			return syntaxError(command)
		}
		roleid, err := strconv.ParseInt(words[0], 10, 64)
		if err != nil {
			return syntaxError(command)
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: roleid}
	case COMMAND_PREFIX:
		// sv!prefix <new_prefix>
		if len(words) != 1 {
			return syntaxError(command)
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: words[0]}
	case COMMAND_STATUS_CHANNEL:
		// sv!serverchannel <channel_id>, 0 to disable
		if len(words) != 1 {
			return syntaxError(command)
		}
		channelid, err := strconv.ParseInt(words[0], 10, 64)
		if err != nil {
			return syntaxError(command)
		}
		return ParseResult{command: command, parseid: PARSEID_OK, arguments: channelid}
	default:
		// The remaining commands take no arguments
		return ParseResult{command: command, parseid: PARSEID_OK}
	}
}
