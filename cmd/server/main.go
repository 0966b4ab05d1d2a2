package main

import (
	"github.com/wayfind-ai/wayfind/internal/server"
	"github.com/wayfind-ai/wayfind/internal/util"
	"github.com/wayfind-ai/wayfind/pkg/logger"
	"github.com/wayfind-ai/wayfind/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
