package main

import (
	"resultscraper/cmd/resultscraper/commands"
	"resultscraper/internal/components/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
