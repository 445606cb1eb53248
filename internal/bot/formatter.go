package bot

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"survbot/internal/survivio"
)

// Use "teal" color for the bot
const color int = 0x008080

const footerText = "DM the bot and your feedback will be passed on the maintainer"

const marketItemsPerPage = 10

// Fixed replies for the recoverable per-invocation failures
func SyntaxErrorMessage() []Response {
	return []Response{ResponseString{"Invalid arguments, try again"}}
}

func WebErrorMessage() []Response {
	return []Response{ResponseString{"Something went wrong internally, trying again later might help"}}
}

func PermissionErrorMessage() []Response {
	return []Response{ResponseString{"You do not have sufficient permissions to make this change"}}
}

func footer() *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{Text: footerText}
}

// StatusEmbed renders the last known surviv.io status. The API line is
// only shown when the frontend answered, matching what was probed
func StatusEmbed(status survivio.StatusMap) *discordgo.MessageEmbed {

	embed := discordgo.MessageEmbed{Title: "Server status", Color: color, Footer: footer()}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Website status",
		Value: status[survivio.ComponentFrontend].String(),
	})
	if status.FrontendUp() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "API status",
			Value: status[survivio.ComponentAPI].String(),
		})
	}
	return &embed
}

var rarityNames = map[int]string{
	5: "Legendary",
	4: "Mythic",
	3: "Epic",
	2: "Uncommon",
	1: "Common",
}

func MarketEmbed(items []survivio.MarketItem, page int) *discordgo.MessageEmbed {

	pages := len(items) / marketItemsPerPage
	embed := discordgo.MessageEmbed{
		Title:  fmt.Sprintf("Page %d of %d", page, pages),
		Color:  color,
		Footer: footer(),
	}
	first := (page - 1) * marketItemsPerPage
	last := min(page*marketItemsPerPage, len(items))
	for i := max(first, 0); i < last; i++ {
		item := items[i]
		value := "Item: " + item.Item
		value += "\nType: " + item.Type
		value += "\nPrice: " + strconv.Itoa(item.Price)
		value += "\nRarity: " + rarityNames[item.Rarity]
		value += "\nMakr: " + item.Makr
		value += "\nKills: " + strconv.Itoa(item.Kills)
		value += "\nLevels: " + strconv.Itoa(item.Levels)
		value += "\nWins: " + strconv.Itoa(item.Wins)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Item %d", i+1),
			Value: value,
		})
	}
	return &embed
}

func StatsEmbed(stats survivio.PlayerStats) *discordgo.MessageEmbed {

	banned := "No"
	if stats.Banned {
		banned = "Yes"
	}
	embed := discordgo.MessageEmbed{Title: stats.Username, Color: color, Footer: footer()}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Banned: ", Value: banned, Inline: true},
		&discordgo.MessageEmbedField{Name: "Games: ", Value: strconv.Itoa(stats.Games)},
		&discordgo.MessageEmbedField{Name: "Kills: ", Value: strconv.Itoa(stats.Kills)},
		&discordgo.MessageEmbedField{Name: "Wins: ", Value: strconv.Itoa(stats.Wins)},
		&discordgo.MessageEmbedField{Name: "KPG: ", Value: stats.Kpg},
	)
	return &embed
}

func ModeStatsEmbed(stats survivio.PlayerStats, mode int, modeName string) *discordgo.MessageEmbed {

	m := stats.Modes[mode]
	embed := discordgo.MessageEmbed{
		Title:  fmt.Sprintf("%s %s game stats", stats.Username, modeName),
		Color:  color,
		Footer: footer(),
	}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Games: ", Value: strconv.Itoa(m.Games)},
		&discordgo.MessageEmbedField{Name: "Kills: ", Value: strconv.Itoa(m.Kills)},
		&discordgo.MessageEmbedField{Name: "KPG: ", Value: m.Kpg},
		&discordgo.MessageEmbedField{Name: "Wins: ", Value: strconv.Itoa(m.Wins)},
		&discordgo.MessageEmbedField{Name: "Win percentage: ", Value: strconv.FormatFloat(m.WinPct, 'f', -1, 64)},
		&discordgo.MessageEmbedField{Name: "Average damage: ", Value: strconv.FormatFloat(m.AvgDamage, 'f', -1, 64)},
		&discordgo.MessageEmbedField{Name: "Average time alive: ", Value: strconv.FormatFloat(m.AvgTimeAlive, 'f', -1, 64)},
		&discordgo.MessageEmbedField{Name: "Highest damage: ", Value: strconv.Itoa(m.MostDamage)},
		&discordgo.MessageEmbedField{Name: "Highest kills: ", Value: strconv.Itoa(m.MostKills)},
	)
	return &embed
}

func HelpEmbed(prefix string) *discordgo.MessageEmbed {

	embed := discordgo.MessageEmbed{Title: "Commands", Color: color, Footer: footer()}
	add := func(name, value string) {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value})
	}
	add(prefix+"stats", "Get stats of a specific user, the name should be the same as in the stats link. You can also put solo, duos or squads at the end for more info")
	add(prefix+"setmanagerrole", "Set the role that can make changes to the bot, like the prefix. Arg must be a valid role ID or 0 to disable. Only the owner can perform this action")
	add(prefix+"remove, "+prefix+"leave", "Kicking/banning should have the same effect as these, only people with kick perms can use this.")
	add(prefix+"prefix", "Change the prefix which the bot responds to")
	add(prefix+"server", "Check the current status of the surviv.io servers")
	add(prefix+"market", "Get market items, arguments should be in the format [rarity] [type] [page]")
	add(prefix+"serverchannel, "+prefix+"downchannel", "The channel to send surviv server downtime messages to. Set to 0 to disable")
	add(prefix+"servercount", "Say the amount of servers this bot is in")
	add(prefix+"help", "This message")
	add(prefix+"inv, "+prefix+"invite", "The invite link for this bot")
	return &embed
}
