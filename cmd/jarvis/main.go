package main

import "Jarvis/internal/cli"

func main() {
	cli.Execute()
}
