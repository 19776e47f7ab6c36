package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/artfuse/stylebot/bot/app"
	"github.com/artfuse/stylebot/core/bootstrap"
	"github.com/artfuse/stylebot/core/buildinfo"
	"github.com/artfuse/stylebot/core/cmd"
	coreconfig "github.com/artfuse/stylebot/core/config"

	"github.com/joho/godotenv"
)

type configCarrier struct {
	cfg *coreconfig.Config
}

func (c *configCarrier) CoreConfig() *coreconfig.Config {
	return c.cfg
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("stylebot %s (%s %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return
	}

	// Local development keeps secrets in .env; missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load skipped: %v", err)
	}

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return &configCarrier{cfg: cfg}, nil
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg := carrier.CoreConfig()
			res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
			if err != nil {
				return nil, err
			}
			return app.New(cfg, res.DB), nil
		},
	})
	if err != nil {
		log.Fatalf("stylebot: %v", err)
	}
}
