package launcher

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/smvblock/go-smv/node"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node NodeConfig
	Smv  SmvConfig
	P2P  node.Config
	DB   DBConfig
}

type NodeConfig struct {
	DataDir string
	Name    string
	Logging LoggingConfig
}

type LoggingConfig struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string
}

type SmvConfig struct {
	// NetworkName selects the rules and genesis: main, test or fake.
	NetworkName string

	// FakeNetSize is the number of pre-funded fakenet accounts; only
	// meaningful when NetworkName is fake.
	FakeNetSize int
}

type DBConfig struct {
	// Memory keeps the chain off disk; shallow nodes imply it.
	Memory bool
}

func defaultConfig() Config {
	d := DefaultConfig()
	return Config{
		Node: NodeConfig{
			DataDir: resolvePath(d.Node.DataDir),
			Name:    d.Node.Name,
			Logging: LoggingConfig{
				Verbosity: d.Logging.Verbosity,
				Format:    d.Logging.Format,
				Color:     d.Logging.Color,
			},
		},
		Smv: SmvConfig{
			NetworkName: d.Network.NetworkName,
			FakeNetSize: d.Network.FakeNetSize,
		},
		P2P: node.Config{
			Type:        node.Normal,
			ListenAddr:  d.Node.ListenAddr,
			MaxPeers:    d.Node.MaxPeers,
			SyncPeriod:  d.Node.SyncPeriod,
			PeerTimeout: d.Node.PeerTimeout,
		},
		DB: DBConfig{},
	}
}

// MakeAllConfigs merges defaults, the optional config file, then CLI
// flag overrides into a single config struct.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.String("config"); file != "" {
		if err := loadConfigFile(file, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}
	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if !cfg.DB.Memory && cfg.P2P.Type != node.Shallow {
		if err := ensureDir(cfg.Node.DataDir); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, cfg)
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if ctx.IsSet("datadir") {
		cfg.Node.DataDir = resolvePath(ctx.String("datadir"))
	}
	if ctx.IsSet("identity") {
		cfg.Node.Name = ctx.String("identity")
	}

	if ctx.IsSet("network") {
		cfg.Smv.NetworkName = ctx.String("network")
	}
	if ctx.IsSet("fakenet") {
		cfg.Smv.NetworkName = "fake"
		cfg.Smv.FakeNetSize = ctx.Int("fakenet")
	}

	if ctx.IsSet("node.type") {
		t, err := node.ParseType(ctx.String("node.type"))
		if err != nil {
			return err
		}
		cfg.P2P.Type = t
	}
	if ctx.IsSet("listen") {
		cfg.P2P.ListenAddr = ctx.String("listen")
	}
	if ctx.IsSet("seeds") {
		cfg.P2P.SeedAddrs = splitCSV(ctx.String("seeds"))
	}
	if ctx.IsSet("maxpeers") {
		cfg.P2P.MaxPeers = ctx.Int("maxpeers")
	}
	if ctx.IsSet("mine") {
		cfg.P2P.Mine = ctx.Bool("mine")
	}
	if ctx.IsSet("mine.period") {
		cfg.P2P.MinePeriod = ctx.Duration("mine.period")
	}
	if ctx.IsSet("sync.period") {
		cfg.P2P.SyncPeriod = ctx.Duration("sync.period")
	}

	if ctx.IsSet("db.memory") {
		cfg.DB.Memory = ctx.Bool("db.memory")
	}

	if ctx.IsSet("log.format") {
		cfg.Node.Logging.Format = ctx.String("log.format")
	}
	if ctx.IsSet("log.verbosity") {
		cfg.Node.Logging.Verbosity = ctx.Int("log.verbosity")
	}
	if ctx.IsSet("log.color") {
		cfg.Node.Logging.Color = ctx.Bool("log.color")
	}
	if ctx.IsSet("sentry.dsn") {
		cfg.Node.Logging.SentryDSN = ctx.String("sentry.dsn")
	}
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create datadir %s: %w", dir, err)
	}
	return nil
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
