package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NetworkFlags covers network selection and the peer surface.
func NetworkFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "network",
			Usage: "Network to join (main|test|fake)",
			Value: "main",
		},
		cli.IntFlag{
			Name:  "fakenet",
			Usage: "Join a local fake network with the given number of pre-funded accounts",
		},
		cli.StringFlag{
			Name:  "listen",
			Usage: "TCP address to serve peers on",
			Value: "127.0.0.1:5050",
		},
		cli.StringFlag{
			Name:  "seeds",
			Usage: "Comma-separated seed node addresses to bootstrap from",
		},
		cli.IntFlag{
			Name:  "maxpeers",
			Usage: "Maximum number of tracked peers",
			Value: 50,
		},
	}
}
