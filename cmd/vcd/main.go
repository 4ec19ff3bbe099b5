package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/vodworks/video-delivery/cmd"
)

var log = logging.Logger("vcd")

func main() {
	app := &cli.App{
		Name:  "vcd",
		Usage: "Manage a video content delivery deployment.",
		Commands: []*cli.Command{
			cmd.ServeCmd,
			cmd.CatalogCmd,
			cmd.SignCmd,
			cmd.VersionCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
