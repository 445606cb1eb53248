package bot

import (
	"testing"
)

func TestParseRejectsWrongPrefix(t *testing.T) {
	result := Parse("!!help", "sv!")
	if result.parseid != PARSEID_NO_BOT_PREFIX {
		t.Errorf("parseid = %d, want PARSEID_NO_BOT_PREFIX", result.parseid)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	for _, content := range []string{"sv!", "sv!frobnicate"} {
		result := Parse(content, "sv!")
		if result.parseid != PARSEID_UNKNOWN_COMMAND {
			t.Errorf("Parse(%q) parseid = %d, want PARSEID_UNKNOWN_COMMAND", content, result.parseid)
		}
	}
}

func TestParseAliases(t *testing.T) {
	for _, tc := range []struct {
		content string
		command int
	}{
		{"sv!server", COMMAND_SERVER_STATUS},
		{"sv!servers", COMMAND_SERVER_STATUS},
		{"sv!down", COMMAND_SERVER_STATUS},
		{"sv!remove", COMMAND_LEAVE},
		{"sv!leave", COMMAND_LEAVE},
		{"sv!prefix !!", COMMAND_PREFIX},
		{"sv!chanepre !!", COMMAND_PREFIX},
		{"sv!changeprefix !!", COMMAND_PREFIX},
		{"sv!serverchannel 5", COMMAND_STATUS_CHANNEL},
		{"sv!downchannel 5", COMMAND_STATUS_CHANNEL},
		{"sv!servercount", COMMAND_SERVER_COUNT},
		{"sv!help", COMMAND_HELP},
		{"sv!HELP", COMMAND_HELP},
		{"sv!inv", COMMAND_INVITE},
		{"sv!invite", COMMAND_INVITE},
		{"sv!link", COMMAND_INVITE},
	} {
		result := Parse(tc.content, "sv!")
		if result.parseid != PARSEID_OK {
			t.Errorf("Parse(%q) parseid = %d, want PARSEID_OK", tc.content, result.parseid)
			continue
		}
		if result.command != tc.command {
			t.Errorf("Parse(%q) command = %d, want %d", tc.content, result.command, tc.command)
		}
	}
}

func TestParseCustomPrefix(t *testing.T) {
	if result := Parse("!!help", "!!"); result.parseid != PARSEID_OK || result.command != COMMAND_HELP {
		t.Errorf("unexpected result for custom prefix: %+v", result)
	}
	if result := Parse("sv!help", "!!"); result.parseid != PARSEID_NO_BOT_PREFIX {
		t.Errorf("old prefix still dispatches: %+v", result)
	}
}

func TestParseMarket(t *testing.T) {
	result := Parse("sv!market legendary skin 2", "sv!")
	if result.parseid != PARSEID_OK {
		t.Fatalf("parseid = %d, want PARSEID_OK", result.parseid)
	}
	args := result.arguments.(MarketArgs)
	want := MarketArgs{Rarity: "5", Type: "outfit", Page: 2}
	if args != want {
		t.Errorf("arguments = %+v, want %+v", args, want)
	}
}

func TestParseMarketSyntaxErrors(t *testing.T) {
	for _, content := range []string{
		"sv!market",
		"sv!market legendary skin",
		"sv!market shiny skin 1",
		"sv!market legendary hat 1",
		"sv!market legendary skin one",
	} {
		result := Parse(content, "sv!")
		if result.parseid != PARSEID_SYNTAX_ERROR {
			t.Errorf("Parse(%q) parseid = %d, want PARSEID_SYNTAX_ERROR", content, result.parseid)
		}
	}
}

func TestParseStats(t *testing.T) {
	result := Parse("sv!stats someplayer", "sv!")
	if result.parseid != PARSEID_OK {
		t.Fatalf("parseid = %d, want PARSEID_OK", result.parseid)
	}
	if args := result.arguments.(StatsArgs); args.Slug != "someplayer" || args.Mode != -1 {
		t.Errorf("arguments = %+v", args)
	}

	result = Parse("sv!stats someplayer squads", "sv!")
	if args := result.arguments.(StatsArgs); args.Mode != 2 {
		t.Errorf("mode = %d, want 2", args.Mode)
	}

	if result := Parse("sv!stats someplayer ranked", "sv!"); result.parseid != PARSEID_SYNTAX_ERROR {
		t.Errorf("unknown mode parseid = %d, want PARSEID_SYNTAX_ERROR", result.parseid)
	}
}

func TestParseSetManagerRole(t *testing.T) {
	result := Parse("sv!setmanagerrole 123456", "sv!")
	if result.parseid != PARSEID_OK {
		t.Fatalf("parseid = %d, want PARSEID_OK", result.parseid)
	}
	if roleid := result.arguments.(int64); roleid != 123456 {
		t.Errorf("roleid = %d, want 123456", roleid)
	}

	// Non integer argument is a recoverable syntax error
	if result := Parse("sv!setmanagerrole moderators", "sv!"); result.parseid != PARSEID_SYNTAX_ERROR {
		t.Errorf("parseid = %d, want PARSEID_SYNTAX_ERROR", result.parseid)
	}
}

func TestParseStatusChannel(t *testing.T) {
	result := Parse("sv!serverchannel 0", "sv!")
	if result.parseid != PARSEID_OK {
		t.Fatalf("parseid = %d, want PARSEID_OK", result.parseid)
	}
	if channelid := result.arguments.(int64); channelid != 0 {
		t.Errorf("channelid = %d, want 0", channelid)
	}
	if result := Parse("sv!serverchannel general", "sv!"); result.parseid != PARSEID_SYNTAX_ERROR {
		t.Errorf("parseid = %d, want PARSEID_SYNTAX_ERROR", result.parseid)
	}
}

func TestParsePrefixCommand(t *testing.T) {
	result := Parse("sv!prefix !!", "sv!")
	if result.parseid != PARSEID_OK {
		t.Fatalf("parseid = %d, want PARSEID_OK", result.parseid)
	}
	if prefix := result.arguments.(string); prefix != "!!" {
		t.Errorf("prefix = %q, want %q", prefix, "!!")
	}
	if result := Parse("sv!prefix", "sv!"); result.parseid != PARSEID_SYNTAX_ERROR {
		t.Errorf("missing argument parseid = %d, want PARSEID_SYNTAX_ERROR", result.parseid)
	}
}
