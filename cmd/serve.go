package cmd

import (
	"fmt"
	"net/url"
	"path/filepath"

	leveldb "github.com/ipfs/go-ds-leveldb"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/vodworks/video-delivery/pkg/config"
	"github.com/vodworks/video-delivery/pkg/presigner"
	"github.com/vodworks/video-delivery/pkg/server"
	"github.com/vodworks/video-delivery/pkg/store/catalogstore"
	"github.com/vodworks/video-delivery/pkg/store/videostore"
)

var log = logging.Logger("cmd")

var ServeCmd = &cli.Command{
	Name:  "serve",
	Usage: "Start the local delivery server daemon.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to configuration file.",
			EnvVars: []string{"VCD_CONFIG"},
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Value:   config.DefaultServicePort,
			Usage:   "Port to bind the server to.",
			EnvVars: []string{"VCD_PORT"},
		},
		&cli.StringFlag{
			Name:    "public-url",
			Aliases: []string{"u"},
			Usage:   "URL the server is publically accessible at.",
			EnvVars: []string{"VCD_PUBLIC_URL"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Root directory to store videos and the catalog in.",
			EnvVars: []string{"VCD_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "tmp-dir",
			Aliases: []string{"t"},
			Usage:   "Temporary directory data is uploaded to before being moved to data-dir.",
			EnvVars: []string{"VCD_TMP_DIR"},
		},
		&cli.StringFlag{
			Name:    "expected-token",
			Usage:   "Bearer token callers must present to the presign API.",
			EnvVars: []string{"VCD_EXPECTED_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "signing-secret",
			Usage:   "Secret key presigned URLs are signed with.",
			EnvVars: []string{"VCD_SIGNING_SECRET"},
		},
	},
	Action: func(cCtx *cli.Context) error {
		cfg, err := config.LoadConfig(cCtx)
		if err != nil {
			return err
		}

		publicURL, err := url.Parse(cfg.Core.PublicURL)
		if err != nil {
			return fmt.Errorf("parsing public URL: %w", err)
		}

		videos, err := videostore.NewFsVideoStore(
			filepath.Join(cfg.Directories.DataDir, "videos"),
			cfg.Directories.TempDir,
		)
		if err != nil {
			return fmt.Errorf("creating video store: %w", err)
		}

		ds, err := leveldb.NewDatastore(filepath.Join(cfg.Directories.DataDir, "catalog"), nil)
		if err != nil {
			return fmt.Errorf("creating catalog datastore: %w", err)
		}
		defer ds.Close()

		signer, err := presigner.NewS3RequestPresigner("local", cfg.Auth.SigningSecret, *publicURL, "videos")
		if err != nil {
			return fmt.Errorf("creating presigner: %w", err)
		}

		log.Infof("Data directory: %s", cfg.Directories.DataDir)
		log.Infof("Public URL: %s", publicURL)

		return server.ListenAndServe(
			fmt.Sprintf(":%d", cfg.Core.ServerPort),
			server.WithVideoStore(videos),
			server.WithCatalogStore(catalogstore.NewDsCatalogStore(ds)),
			server.WithPresigner(signer),
			server.WithExpectedToken(cfg.Auth.ExpectedToken),
		)
	},
}
