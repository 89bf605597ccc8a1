package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/web3-frozen/fib-monitor/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
