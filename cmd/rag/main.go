package main

import "medcite/internal/cli"

func main() {
	cli.Execute()
}
