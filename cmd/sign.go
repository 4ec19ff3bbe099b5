package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vodworks/video-delivery/pkg/aws"
	"github.com/vodworks/video-delivery/pkg/service/presign"
)

var keyFlag = &cli.StringFlag{
	Name:     "key",
	Aliases:  []string{"k"},
	Usage:    "Object key to sign a URL for.",
	Required: true,
}

var SignCmd = &cli.Command{
	Name:  "sign",
	Usage: "Issue presigned URLs against an AWS deployment.",
	Subcommands: []*cli.Command{
		{
			Name:  "upload",
			Usage: "Sign an upload URL for the given key.",
			Flags: []cli.Flag{keyFlag},
			Action: func(cCtx *cli.Context) error {
				service, err := aws.Construct(aws.FromEnv(cCtx.Context))
				if err != nil {
					return fmt.Errorf("constructing service: %w", err)
				}

				url, headers, err := service.Presigner().SignUploadURL(cCtx.Context, cCtx.String("key"), presign.VideoContentType, presign.UploadURLTTL)
				if err != nil {
					return fmt.Errorf("signing upload URL: %w", err)
				}

				fmt.Println(url.String())
				for name, values := range headers {
					for _, v := range values {
						fmt.Printf("%s: %s\n", name, v)
					}
				}
				return nil
			},
		},
		{
			Name:  "download",
			Usage: "Sign a download URL for the given key.",
			Flags: []cli.Flag{keyFlag},
			Action: func(cCtx *cli.Context) error {
				service, err := aws.Construct(aws.FromEnv(cCtx.Context))
				if err != nil {
					return fmt.Errorf("constructing service: %w", err)
				}

				url, err := service.Presigner().SignDownloadURL(cCtx.Context, cCtx.String("key"), presign.DownloadURLTTL)
				if err != nil {
					return fmt.Errorf("signing download URL: %w", err)
				}

				fmt.Println(url.String())
				return nil
			},
		},
	},
}
