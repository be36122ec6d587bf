package main

import "invoicehub/internal/cli"

func main() {
	cli.Execute()
}
