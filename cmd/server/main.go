package main

import "regie/internal/cli"

func main() {
	cli.Execute()
}
