package main

import (
	"os"

	"github.com/transferdesk/transferdesk/cmd/transferdesk/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
