package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/vodworks/video-delivery/pkg/aws"
	"github.com/vodworks/video-delivery/pkg/store"
)

var CatalogCmd = &cli.Command{
	Name:  "catalog",
	Usage: "Inspect and rebuild the video catalog of an AWS deployment.",
	Subcommands: []*cli.Command{
		{
			Name:  "show",
			Usage: "Print the current catalog record.",
			Action: func(cCtx *cli.Context) error {
				service, err := aws.Construct(aws.FromEnv(cCtx.Context))
				if err != nil {
					return fmt.Errorf("constructing service: %w", err)
				}

				rec, err := service.Catalog().Get(cCtx.Context)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						fmt.Println("no catalog record, the bucket has not been indexed yet")
						return nil
					}
					return fmt.Errorf("reading catalog record: %w", err)
				}

				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			},
		},
		{
			Name:  "rebuild",
			Usage: "Re-list the bucket and overwrite the catalog record.",
			Action: func(cCtx *cli.Context) error {
				cfg := aws.FromEnv(cCtx.Context)
				service, err := aws.Construct(cfg)
				if err != nil {
					return fmt.Errorf("constructing service: %w", err)
				}

				summary, err := service.Rebuilder().Rebuild(cCtx.Context, cfg.BucketName, "manual-rebuild")
				if err != nil {
					return fmt.Errorf("rebuilding catalog: %w", err)
				}

				fmt.Printf("%s (%d videos)\n", summary.Message, summary.VideoCount)
				return nil
			},
		},
	},
}
