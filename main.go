package main

import (
	"slot-advisor/internal/cli"
)

func main() {
	cli.Execute()
}
