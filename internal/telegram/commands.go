package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/web3-frozen/fib-monitor/internal/fib"
	"github.com/web3-frozen/fib-monitor/internal/marketcap"
	"github.com/web3-frozen/fib-monitor/internal/store"
)

const helpText = "🤖 <b>Fibonacci Level Monitor</b>\n\n" +
	"Commands:\n" +
	"/add &lt;address&gt; &lt;name&gt; &lt;high&gt; [low] - watch a token (prices accept 1M, 100K...)\n" +
	"/delete &lt;name&gt; - stop watching a token\n" +
	"/list - show the watch list\n" +
	"/update &lt;name&gt; &lt;high&gt; &lt;low&gt; - replace a token's range\n" +
	"/levels &lt;name&gt; - show a token's Fibonacci levels\n" +
	"/help - show this message"

// handleCommand runs one chat command and returns the reply text.
func (b *Bot) handleCommand(ctx context.Context, chatID int64, cmd, args string) string {
	fields := strings.Fields(args)
	switch cmd {
	case "start":
		return fmt.Sprintf("%s\n\nThis chat's ID: <code>%d</code>", helpText, chatID)
	case "help":
		return helpText
	case "add":
		return b.cmdAdd(ctx, fields)
	case "delete":
		return b.cmdDelete(ctx, fields)
	case "list":
		return b.cmdList(ctx)
	case "update":
		return b.cmdUpdate(ctx, fields)
	case "levels":
		return b.cmdLevels(ctx, fields)
	default:
		return "Unknown command. Send /help for available commands."
	}
}

func (b *Bot) cmdAdd(ctx context.Context, args []string) string {
	if len(args) != 3 && len(args) != 4 {
		return "Usage: /add &lt;address&gt; &lt;name&gt; &lt;high&gt; [low]"
	}
	high, err := marketcap.Parse(args[2])
	if err != nil {
		return "❌ Invalid high: " + html.EscapeString(err.Error())
	}
	low := b.defaultLow
	if len(args) == 4 {
		if low, err = marketcap.Parse(args[3]); err != nil {
			return "❌ Invalid low: " + html.EscapeString(err.Error())
		}
	}

	a := store.Asset{Address: args[0], Label: args[1], HighPrice: high, LowPrice: low}
	ok, err := b.registry.Add(ctx, a)
	if err != nil {
		b.logger.Error("add asset", "label", a.Label, "error", err)
		return "❌ Could not add: " + html.EscapeString(err.Error())
	}
	if !ok {
		return fmt.Sprintf("❌ Name '%s' or its address is already watched.", html.EscapeString(a.Label))
	}
	return fmt.Sprintf("✅ Added\n"+
		"<b>Name:</b> %s\n"+
		"<b>Address:</b> <code>%s</code>\n"+
		"<b>High:</b> %s\n"+
		"<b>Low:</b> %s",
		html.EscapeString(a.Label), html.EscapeString(a.Address),
		marketcap.Format(high), marketcap.Format(low))
}

func (b *Bot) cmdDelete(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Usage: /delete &lt;name&gt;"
	}
	ok, err := b.registry.Delete(ctx, args[0])
	if err != nil {
		b.logger.Error("delete asset", "label", args[0], "error", err)
		return "❌ Could not delete, please try again."
	}
	if !ok {
		return fmt.Sprintf("❌ No token named '%s'.", html.EscapeString(args[0]))
	}
	return fmt.Sprintf("✅ Deleted '%s'.", html.EscapeString(args[0]))
}

func (b *Bot) cmdList(ctx context.Context) string {
	assets, err := b.registry.List(ctx)
	if err != nil {
		b.logger.Error("list assets", "error", err)
		return "❌ Could not read the watch list."
	}
	if len(assets) == 0 {
		return "No tokens are being watched."
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Watch list</b>\n")
	for _, a := range assets {
		fmt.Fprintf(&sb, "\n🔹 <b>%s</b>\n   Address: <code>%s</code>\n   High: %s\n   Low: %s\n",
			html.EscapeString(a.Label), html.EscapeString(a.Address),
			marketcap.Format(a.HighPrice), marketcap.Format(a.LowPrice))
	}
	return sb.String()
}

func (b *Bot) cmdUpdate(ctx context.Context, args []string) string {
	if len(args) != 3 {
		return "Usage: /update &lt;name&gt; &lt;high&gt; &lt;low&gt;"
	}
	high, err := marketcap.Parse(args[1])
	if err != nil {
		return "❌ Invalid high: " + html.EscapeString(err.Error())
	}
	low, err := marketcap.Parse(args[2])
	if err != nil {
		return "❌ Invalid low: " + html.EscapeString(err.Error())
	}
	if err := store.ValidateRange(high, low); err != nil {
		return "❌ " + html.EscapeString(err.Error())
	}

	ok, err := b.registry.UpdateRange(ctx, args[0], high, low)
	if err != nil {
		b.logger.Error("update range", "label", args[0], "error", err)
		return "❌ Could not update, please try again."
	}
	if !ok {
		return fmt.Sprintf("❌ No token named '%s'.", html.EscapeString(args[0]))
	}
	return fmt.Sprintf("✅ '%s' range is now %s - %s.",
		html.EscapeString(args[0]), marketcap.Format(low), marketcap.Format(high))
}

func (b *Bot) cmdLevels(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Usage: /levels &lt;name&gt;"
	}
	a, err := b.registry.Get(ctx, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("❌ No token named '%s'.", html.EscapeString(args[0]))
	}
	if err != nil {
		b.logger.Error("get asset", "label", args[0], "error", err)
		return "❌ Could not read the watch list."
	}

	levels := fib.Ordered(a.HighPrice, a.LowPrice)
	if len(levels) == 0 {
		return fmt.Sprintf("'%s' has no valid range (high %s, low %s).",
			html.EscapeString(a.Label), marketcap.Format(a.HighPrice), marketcap.Format(a.LowPrice))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📐 <b>%s</b> levels\n", html.EscapeString(a.Label))
	for _, l := range levels {
		fmt.Fprintf(&sb, "\n%.1f%% %s: %s", l.Percent, l.Category, marketcap.Format(l.Price))
	}
	return sb.String()
}
