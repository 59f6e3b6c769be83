package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/spf13/pflag"

	"gomarket/config"
	"gomarket/internal/pkg/database"
)

func main() {
	flags := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	migrationsDir := flags.StringP("dir", "d", "./sql", "diretório com os arquivos de migração")
	verbose := flags.BoolP("verbose", "v", false, "exibe o log detalhado do goose")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("goose: configuração inválida: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("goose: falha ao conectar ao DB: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("goose: falha ao fechar o DB: %v", err)
		}
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose: %v", err)
	}
	if !*verbose {
		goose.SetLogger(goose.NopLogger())
	}

	arguments := flags.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command, args := arguments[0], arguments[1:]

	if err := goose.Run(command, db, *migrationsDir, args...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}

	fmt.Printf("goose %s concluído\n", command)
}
