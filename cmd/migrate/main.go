package main

import (
	"log"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/rossyflor/pos-admin/internal/config"
	"github.com/rossyflor/pos-admin/internal/dbmigrate"
)

func main() {
	usage := strings.Join(dbmigrate.Commands, "|")
	if len(os.Args) < 2 {
		log.Fatalf("usage: go run ./cmd/migrate [%s]", usage)
	}

	command := os.Args[1]
	if !dbmigrate.IsCommand(command) {
		log.Fatalf("unsupported command %q (allowed: %s)", command, usage)
	}

	cfg := config.Load()
	dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		log.Fatal(err)
	}

	if warning != "" {
		log.Printf("WARN migrate: %s", warning)
	}
	log.Printf("INFO migrate: command=%s using=%s", command, source)

	if err := dbmigrate.Run(command, dbURL); err != nil {
		log.Fatal(err)
	}

	log.Printf("INFO migrate: %s completed successfully", command)
}
