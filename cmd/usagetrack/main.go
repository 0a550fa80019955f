package main

import "github.com/emiliopalmerini/usagetrack/internal/cli"

func main() {
	cli.Execute()
}
