package main

import "github.com/luminacoach/sessionsync/internal/cli"

func main() {
	cli.Execute()
}
