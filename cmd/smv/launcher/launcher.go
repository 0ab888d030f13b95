package launcher

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/smvblock/go-smv/flags"
	"github.com/smvblock/go-smv/integration"
	"github.com/smvblock/go-smv/ledger"
	"github.com/smvblock/go-smv/node"
	"github.com/smvblock/go-smv/smv"
	"github.com/smvblock/go-smv/smv/genesis"
	"github.com/smvblock/go-smv/store"
)

// Launch parses the command line and runs the selected command; the
// default action runs a single node until interrupted.
func Launch(args []string) error {
	app := flags.NewApp()
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.NetworkFlags()...)
	app.Flags = append(app.Flags, flags.NodeFlags()...)
	app.Action = startNode
	app.Commands = []cli.Command{
		{
			Name:   "devnet",
			Usage:  "Run a local multi-node fake network",
			Action: startDevnet,
			Flags:  flags.CommonFlags(),
		},
	}
	return app.Run(args)
}

func startNode(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	log, err := setupLogging(cfg.Node.Logging)
	if err != nil {
		return err
	}

	rules, g, err := networkFor(cfg.Smv)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"name":    cfg.Node.Name,
		"network": rules.Name,
	}).Info("starting smv node")

	l := ledger.New(rules, &g, log)

	db, err := openStore(cfg, rules, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := restoreChain(l, db, log); err != nil {
			return err
		}
	}

	n := node.New(cfg.P2P, l, db, log)
	if err := n.Start(); err != nil {
		return err
	}
	waitInterrupt()
	n.Stop()
	return nil
}

func startDevnet(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	log, err := setupLogging(cfg.Node.Logging)
	if err != nil {
		return err
	}

	devnet := integration.NewDevnet(log)
	if err := devnet.Start(); err != nil {
		return err
	}
	log.WithField("nodes", len(devnet.Nodes())).Info("devnet running")
	waitInterrupt()
	devnet.Stop()
	return nil
}

// networkFor resolves rules and genesis from the network selection.
func networkFor(cfg SmvConfig) (smv.Rules, genesis.Genesis, error) {
	rules, err := smv.RulesByName(cfg.NetworkName)
	if err != nil {
		return smv.Rules{}, genesis.Genesis{}, err
	}
	if rules.NetworkID == smv.FakeNetworkID {
		size := cfg.FakeNetSize
		if size <= 0 {
			size = DefaultConfig().Network.FakeNetSize
		}
		return rules, genesis.FakeGenesis(size), nil
	}
	return rules, genesis.ByNetwork(rules), nil
}

// openStore opens the chain database. Shallow nodes and --db.memory
// run over a throwaway in-memory database.
func openStore(cfg Config, rules smv.Rules, log *logrus.Logger) (*store.Store, error) {
	if cfg.P2P.Type == node.Shallow {
		return nil, nil
	}
	if cfg.DB.Memory {
		return store.NewMemStore(), nil
	}
	producer := integration.DBProducer(filepath.Join(cfg.Node.DataDir, rules.Name))
	db, err := producer.OpenDB("chain")
	if err != nil {
		return nil, fmt.Errorf("failed to open chain db: %w", err)
	}
	return store.NewStore(db, log), nil
}

// restoreChain replays the persisted chain into the fresh ledger. The
// stored blocks go through the same full validation as a peer-supplied
// chain; a corrupt database refuses to start the node.
func restoreChain(l *ledger.Ledger, db *store.Store, log *logrus.Logger) error {
	blocks, err := db.LoadChain()
	if err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}
	if len(blocks) == 0 {
		return nil
	}
	adopted, err := l.AdoptIfBetter(blocks)
	if err != nil {
		return fmt.Errorf("stored chain is corrupt: %w", err)
	}
	if adopted {
		log.WithField("height", l.ChainLength()-1).Info("chain restored")
	}
	return nil
}

func waitInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
