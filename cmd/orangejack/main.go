// cmd/orangejack/main.go
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/orangejack/orangejack/cmd/orangejack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
