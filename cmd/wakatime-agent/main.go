package main

import "wakatime/internal/cli"

func main() {
	cli.Execute()
}
