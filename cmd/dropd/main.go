package main

import "github.com/0xHustling/ERC721-Drops/internal/cli"

func main() {
	cli.Execute()
}
