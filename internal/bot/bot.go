// Package bot dispatches Discord messages to command handlers and runs
// the surviv.io status monitoring on the side.
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"survbot/internal/botconfig"
	"survbot/internal/store"
	"survbot/internal/survivio"
)

// Minimum time between two surviv.io probe cycles
const DefaultUpdateInterval = 60 * time.Second

var modeNames = [...]string{"solo", "duo", "squad"}

type Bot struct {
	token     string
	store     store.Store
	guard     *botconfig.Guard
	survivapi *survivio.Client
	monitor   *statusMonitor
	quit      chan struct{}
	stopOnce  sync.Once
}

// Everything a handler needs to know about the invocation, extracted
// from the platform message once so handlers stay free of session state
type commandContext struct {
	guildID   int64
	channelID string
	authorID  int64
	ownerID   int64
	roleIDs   []int64
	canKick   bool
	cfg       store.GuildConfig
}

func CreateBot(token string, st store.Store, guard *botconfig.Guard, survivapi *survivio.Client, updateInterval time.Duration) *Bot {

	var bot Bot
	bot.token = token
	bot.store = st
	bot.guard = guard
	bot.survivapi = survivapi
	bot.monitor = newStatusMonitor(survivapi.ServerStatus, st, updateInterval)
	bot.quit = make(chan struct{})
	return &bot
}

func (bot *Bot) Run() error {

	// Create session
	discord, err := discordgo.New("Bot " + bot.token)
	if err != nil {
		return fmt.Errorf("could not create discord session: %w", err)
	}
	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	// Event handlers
	discord.AddHandler(bot.Receive)
	discord.AddHandler(bot.GuildCreate)
	discord.AddHandler(bot.GuildDelete)
	discord.AddHandler(bot.ChannelDelete)

	// Open session
	if err := discord.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer discord.Close()

	// Keep the bot running until an os interruption (ctrl + C)
	// or an operator shutdown
	log.Info().Msg("Bot is running")
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	select {
	case <-c:
		log.Info().Msg("Interrupted, shutting down")
	case <-bot.quit:
		log.Info().Msg("Shutdown requested by the operator")
	}
	return nil
}

// Stop terminates the run loop gracefully. Safe to call more than once
func (bot *Bot) Stop() {
	bot.stopOnce.Do(func() { close(bot.quit) })
}

func (bot *Bot) Receive(discord *discordgo.Session, message *discordgo.MessageCreate) {

	// Reject my own messages and those of other bots
	if message.Author == nil || message.Author.ID == discord.State.User.ID || message.Author.Bot {
		return
	}

	// The timer gated status check rides on every inbound message
	bot.monitor.MaybeRefresh(time.Now(), discordSender(discord))

	authorid, err := parseID(message.Author.ID)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not parse author id %s", message.Author.ID))
		return
	}
	if bot.guard.Snapshot().IsBlocked(authorid) {
		return
	}

	// Private messages route to the operator flow
	if message.GuildID == "" {
		bot.receiveDM(discord, message, authorid)
		return
	}

	guildid, err := parseID(message.GuildID)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not parse guild id %s", message.GuildID))
		return
	}

	// Register the guild if it's the first time I see it
	cfg, err := bot.store.EnsureExists(context.Background(), guildid)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not load config of guild %d: %s", guildid, err))
		return
	}

	parseResult := Parse(message.Content, cfg.Prefix)
	switch parseResult.parseid {
	case PARSEID_NO_BOT_PREFIX, PARSEID_UNKNOWN_COMMAND:
		return
	case PARSEID_SYNTAX_ERROR:
		bot.sendResponses(discord, message.ChannelID, SyntaxErrorMessage())
		return
	}

	cmdctx, err := bot.commandContext(discord, message, authorid, guildid, cfg)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not build command context for guild %d: %s", guildid, err))
		return
	}
	log.Debug().Msg(fmt.Sprintf("Command understood: %s", message.Content))
	bot.sendResponses(discord, message.ChannelID, bot.dispatch(discord, cmdctx, parseResult))
}

func (bot *Bot) commandContext(discord *discordgo.Session, message *discordgo.MessageCreate, authorid int64, guildid int64, cfg store.GuildConfig) (commandContext, error) {

	guild, err := discord.State.Guild(message.GuildID)
	if err != nil {
		if guild, err = discord.Guild(message.GuildID); err != nil {
			return commandContext{}, fmt.Errorf("could not fetch guild %s: %w", message.GuildID, err)
		}
	}
	ownerid, err := parseID(guild.OwnerID)
	if err != nil {
		return commandContext{}, fmt.Errorf("could not parse owner id %s: %w", guild.OwnerID, err)
	}

	var roleids []int64
	if message.Member != nil {
		for _, role := range message.Member.Roles {
			roleid, err := parseID(role)
			if err != nil {
				continue
			}
			roleids = append(roleids, roleid)
		}
	}

	canKick := false
	if perms, err := discord.UserChannelPermissions(message.Author.ID, message.ChannelID); err == nil {
		canKick = perms&discordgo.PermissionKickMembers != 0
	}

	return commandContext{
		guildID:   guildid,
		channelID: message.ChannelID,
		authorID:  authorid,
		ownerID:   ownerid,
		roleIDs:   roleids,
		canKick:   canKick,
		cfg:       cfg,
	}, nil
}

func (bot *Bot) dispatch(discord *discordgo.Session, ctx commandContext, result ParseResult) []Response {

	switch result.command {
	case COMMAND_SERVER_STATUS:
		return bot.serverStatus()
	case COMMAND_MARKET:
		switch args := result.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of market arguments %T", args))
		case MarketArgs:
			return bot.market(args)
		}
	case COMMAND_STATS:
		switch args := result.arguments.(type) {
		default:
			panic(fmt.Sprintf("unexpected type of stats arguments %T", args))
		case StatsArgs:
			return bot.stats(args)
		}
	case COMMAND_SET_MANAGER_ROLE:
		return bot.setManagerRole(discord, ctx, result.arguments.(int64))
	case COMMAND_LEAVE:
		return bot.leave(discord, ctx)
	case COMMAND_PREFIX:
		return bot.changePrefix(ctx, result.arguments.(string))
	case COMMAND_STATUS_CHANNEL:
		return bot.setStatusChannel(discord, ctx, result.arguments.(int64))
	case COMMAND_SERVER_COUNT:
		return bot.serverCount()
	case COMMAND_HELP:
		return []Response{ResponseEmbed{*HelpEmbed(ctx.cfg.Prefix)}}
	case COMMAND_INVITE:
		return []Response{ResponseString{bot.guard.Snapshot().JoinLink}}
	default:
		panic(fmt.Sprintf("Command %d is not one of the possible ones", result.command))
	}
}

// Authorization for the non destructive settings: the owner always may,
// a delegated manager role may when one is configured
func canManage(cfg store.GuildConfig, authorID int64, ownerID int64, roleIDs []int64) bool {
	if authorID == ownerID {
		return true
	}
	if cfg.ManagerRoleID == 0 {
		return false
	}
	return slices.Contains(roleIDs, cfg.ManagerRoleID)
}

func (bot *Bot) serverStatus() []Response {
	// The refresh already ran through the interval gate on this
	// message; reply with the cached snapshot
	return []Response{ResponseEmbed{*StatusEmbed(bot.monitor.Status())}}
}

func (bot *Bot) market(args MarketArgs) []Response {

	snap := bot.guard.Snapshot()
	if !snap.MarketEnabled {
		return []Response{ResponseString{"The hoster of this bot instance has disabled this feature"}}
	}

	items, rotated, err := bot.survivapi.MarketItems(args.Rarity, args.Type, snap.SurvivID, snap.SurvivAppSID)
	// The server may rotate the session cookie even on failed replies
	if rotated != "" && rotated != snap.SurvivAppSID {
		if err := bot.guard.SetAppSID(rotated); err != nil {
			log.Error().Msg(fmt.Sprintf("Could not persist rotated app-sid: %s", err))
		}
	}
	if err != nil {
		log.Warn().Msg(fmt.Sprintf("Market request failed: %s", err))
		return WebErrorMessage()
	}
	return []Response{ResponseEmbed{*MarketEmbed(items, args.Page)}}
}

func (bot *Bot) stats(args StatsArgs) []Response {

	stats, found, err := bot.survivapi.PlayerStats(args.Slug)
	if err != nil {
		log.Warn().Msg(fmt.Sprintf("Stats request failed for slug %s: %s", args.Slug, err))
		return WebErrorMessage()
	}
	if !found {
		return []Response{ResponseString{"Could not find player"}}
	}
	if args.Mode < 0 {
		return []Response{ResponseEmbed{*StatsEmbed(stats)}}
	}
	if args.Mode >= len(stats.Modes) {
		log.Warn().Msg(fmt.Sprintf("Stats of player %s carry no mode %d", args.Slug, args.Mode))
		return WebErrorMessage()
	}
	return []Response{ResponseEmbed{*ModeStatsEmbed(stats, args.Mode, modeNames[args.Mode])}}
}

func (bot *Bot) setManagerRole(discord *discordgo.Session, ctx commandContext, roleid int64) []Response {

	// Owner only
	if ctx.authorID != ctx.ownerID {
		return PermissionErrorMessage()
	}

	// The role has to exist in the guild; 0 disables the delegation
	var roleName string
	if roleid != 0 {
		role, err := discord.State.Role(strconv.FormatInt(ctx.guildID, 10), strconv.FormatInt(roleid, 10))
		if err != nil {
			return SyntaxErrorMessage()
		}
		roleName = role.Name
	}

	cfg := ctx.cfg
	cfg.ManagerRoleID = roleid
	if err := bot.store.Update(context.Background(), cfg); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not store manager role of guild %d: %s", ctx.guildID, err))
		return WebErrorMessage()
	}
	if roleid == 0 {
		return []Response{ResponseString{"Bot management role disabled"}}
	}
	return []Response{ResponseString{"Bot management role set to: " + roleName}}
}

func (bot *Bot) leave(discord *discordgo.Session, ctx commandContext) []Response {

	if !ctx.canKick {
		return PermissionErrorMessage()
	}

	// Reply before leaving, there is no channel to reply to afterwards
	bot.sendResponses(discord, ctx.channelID, []Response{ResponseString{"Leaving server"}})
	if err := bot.store.Delete(context.Background(), ctx.guildID); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not delete config of guild %d: %s", ctx.guildID, err))
	}
	if err := discord.GuildLeave(strconv.FormatInt(ctx.guildID, 10)); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not leave guild %d: %s", ctx.guildID, err))
	}
	return nil
}

func (bot *Bot) changePrefix(ctx commandContext, newPrefix string) []Response {

	if !canManage(ctx.cfg, ctx.authorID, ctx.ownerID, ctx.roleIDs) {
		return PermissionErrorMessage()
	}

	oldPrefix := ctx.cfg.Prefix
	cfg := ctx.cfg
	cfg.Prefix = newPrefix
	if err := bot.store.Update(context.Background(), cfg); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not store prefix of guild %d: %s", ctx.guildID, err))
		return WebErrorMessage()
	}
	return []Response{ResponseString{fmt.Sprintf("Prefix changed from %s to %s", oldPrefix, newPrefix)}}
}

func (bot *Bot) setStatusChannel(discord *discordgo.Session, ctx commandContext, channelid int64) []Response {

	if !canManage(ctx.cfg, ctx.authorID, ctx.ownerID, ctx.roleIDs) {
		return PermissionErrorMessage()
	}

	// The channel has to exist in this guild; 0 disables notifications
	var channelName string
	if channelid != 0 {
		channel, err := discord.State.Channel(strconv.FormatInt(channelid, 10))
		if err != nil {
			channel, err = discord.Channel(strconv.FormatInt(channelid, 10))
		}
		if err != nil || channel.GuildID != strconv.FormatInt(ctx.guildID, 10) {
			return SyntaxErrorMessage()
		}
		channelName = channel.Name
	}

	cfg := ctx.cfg
	cfg.StatusChannelID = channelid
	if err := bot.store.Update(context.Background(), cfg); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not store status channel of guild %d: %s", ctx.guildID, err))
		return WebErrorMessage()
	}
	if channelid == 0 {
		return []Response{ResponseString{"Server status messages disabled"}}
	}
	return []Response{ResponseString{"Server status channel set to " + channelName}}
}

func (bot *Bot) serverCount() []Response {

	ids, err := bot.store.ListIDs(context.Background())
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not count guilds: %s", err))
		return WebErrorMessage()
	}
	return []Response{ResponseString{fmt.Sprintf("%d servers are using this bot", len(ids))}}
}

// Direct messages are a two state dispatch: the feedback operator may
// issue shutdown and block, everyone else's message is relayed to the
// operator verbatim
func (bot *Bot) receiveDM(discord *discordgo.Session, message *discordgo.MessageCreate, authorid int64) {

	snap := bot.guard.Snapshot()
	if authorid == snap.FeedbackUserID {
		content := strings.TrimSpace(message.Content)
		if content == "shutdown" {
			log.Info().Msg("Received shutdown command from the operator")
			bot.Stop()
			return
		}
		if strings.Contains(content, "block") {
			words := strings.Fields(content)
			if len(words) != 2 {
				bot.sendResponses(discord, message.ChannelID, SyntaxErrorMessage())
				return
			}
			userid, err := strconv.ParseInt(words[1], 10, 64)
			if err != nil {
				bot.sendResponses(discord, message.ChannelID, SyntaxErrorMessage())
				return
			}
			if err := bot.guard.BlockUser(userid); err != nil {
				log.Error().Msg(fmt.Sprintf("Could not block user %d: %s", userid, err))
			}
		}
		return
	}

	// Relay the feedback
	channel, err := discord.UserChannelCreate(strconv.FormatInt(snap.FeedbackUserID, 10))
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not open DM channel to the feedback user: %s", err))
		return
	}
	relay := fmt.Sprintf("Message from %s: %s", message.Author.String(), message.Content)
	if _, err := discord.ChannelMessageSend(channel.ID, relay); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not relay feedback: %s", err))
	}
}

// GuildCreate fires when joining a guild, and once per known guild on
// connect, so it has to tolerate existing records
func (bot *Bot) GuildCreate(discord *discordgo.Session, event *discordgo.GuildCreate) {

	guildid, err := parseID(event.ID)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not parse guild id %s", event.ID))
		return
	}
	if _, err := bot.store.EnsureExists(context.Background(), guildid); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not initialise guild %d: %s", guildid, err))
	}
}

func (bot *Bot) GuildDelete(discord *discordgo.Session, event *discordgo.GuildDelete) {

	// An unavailable guild is a platform outage, not a removal
	if event.Unavailable {
		return
	}
	guildid, err := parseID(event.ID)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("Could not parse guild id %s", event.ID))
		return
	}
	if err := bot.store.Delete(context.Background(), guildid); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not delete config of guild %d: %s", guildid, err))
	}
}

// ChannelDelete clears the notification target of a guild whose status
// channel was just removed
func (bot *Bot) ChannelDelete(discord *discordgo.Session, event *discordgo.ChannelDelete) {

	if event.GuildID == "" {
		return
	}
	guildid, err := parseID(event.GuildID)
	if err != nil {
		return
	}
	channelid, err := parseID(event.ID)
	if err != nil {
		return
	}

	ctx := context.Background()
	cfg, err := bot.store.Get(ctx, guildid)
	if err != nil {
		return
	}
	if cfg.StatusChannelID != channelid {
		return
	}
	cfg.StatusChannelID = 0
	if err := bot.store.Update(ctx, cfg); err != nil {
		log.Error().Msg(fmt.Sprintf("Could not clear status channel of guild %d: %s", guildid, err))
	}
}

func (bot *Bot) sendResponses(discord *discordgo.Session, channelid string, responses []Response) {
	for _, response := range responses {
		response.Send(channelid, discord)
	}
}

func discordSender(discord *discordgo.Session) sendEmbed {
	return func(channelid int64, embed *discordgo.MessageEmbed) error {
		_, err := discord.ChannelMessageSendEmbed(strconv.FormatInt(channelid, 10), embed)
		return err
	}
}

func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
