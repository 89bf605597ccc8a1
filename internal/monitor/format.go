package monitor

import (
	"fmt"
	"html"

	"github.com/web3-frozen/fib-monitor/internal/fib"
	"github.com/web3-frozen/fib-monitor/internal/marketcap"
)

// Messages are sent with Telegram's HTML parse mode.

func newHighMessage(label string, value float64) string {
	return fmt.Sprintf("🚀 <b>NEW HIGH ALERT</b> 🚀\n\n"+
		"<b>Token:</b> %s\n"+
		"<b>New high market cap:</b> %s",
		html.EscapeString(label),
		marketcap.Format(value))
}

func retracementMessage(label string, value float64, level fib.LevelName) string {
	return fmt.Sprintf("🔔 <b>PRICE ALERT</b> 🔔\n\n"+
		"<b>Token:</b> %s\n"+
		"<b>Current market cap:</b> %s\n"+
		"<b>Reached:</b> Fibonacci %.1f%% retracement level",
		html.EscapeString(label),
		marketcap.Format(value),
		level.Percent())
}
