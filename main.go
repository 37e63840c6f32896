package main

import (
	"os"

	"github.com/gerunddev/nbimport/internal/commands"
)

const version = "0.1.0"

func main() {
	os.Exit(commands.Execute(version))
}
