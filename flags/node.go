package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NodeFlags holds knobs specific to the local node instance.
func NodeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "identity",
			Usage: "Custom node name surfaced in logs",
		},
		cli.StringFlag{
			Name:  "node.type",
			Usage: "Node role (seed|normal|shallow)",
			Value: "normal",
		},
		cli.BoolFlag{
			Name:  "db.memory",
			Usage: "Keep the chain in memory instead of the datadir",
		},
		cli.BoolFlag{
			Name:  "mine",
			Usage: "Enable the background miner",
		},
		cli.DurationFlag{
			Name:  "mine.period",
			Usage: "Pause between mining rounds (default: the network block period)",
		},
		cli.DurationFlag{
			Name:  "sync.period",
			Usage: "Pause between chain polls of the seeds",
		},
	}
}
