package main

import (
	"hrdigest/cmd/cmd"
	"hrdigest/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
