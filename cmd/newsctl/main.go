package main

import "news-pulse/cmd/newsctl/cli"

func main() {
	cli.Execute()
}
