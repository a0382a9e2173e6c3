package main

import (
	"github.com/playkit/gameroom/internal/cli"
)

func main() {
	cli.Execute()
}
