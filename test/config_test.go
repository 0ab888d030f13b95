package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/urfave/cli.v1"

	"github.com/smvblock/go-smv/cmd/smv/launcher"
	"github.com/smvblock/go-smv/flags"
	"github.com/smvblock/go-smv/node"
)

// runConfigFromArgs runs MakeAllConfigs against a synthetic CLI context.
func runConfigFromArgs(t *testing.T, args []string) launcher.Config {
	t.Helper()

	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.NetworkFlags()...)
	app.Flags = append(app.Flags, flags.NodeFlags()...)

	var got launcher.Config
	app.Action = func(c *cli.Context) error {
		cfg, err := launcher.MakeAllConfigs(c)
		if err != nil {
			return err
		}
		got = cfg
		return nil
	}
	require.NoError(t, app.Run(append([]string{"smv"}, args...)))
	return got
}

// TestMakeAllConfigs_flagOverrides verifies that every declared flag
// overrides the corresponding field of the aggregated config.
func TestMakeAllConfigs_flagOverrides(t *testing.T) {
	tmp := t.TempDir()

	tests := []struct {
		name string
		args []string
		want func(t *testing.T, cfg launcher.Config)
	}{
		{
			name: "defaults",
			args: []string{"--db.memory"},
			want: func(t *testing.T, cfg launcher.Config) {
				require.Equal(t, "go-smv", cfg.Node.Name)
				require.Equal(t, "main", cfg.Smv.NetworkName)
				require.Equal(t, node.Normal, cfg.P2P.Type)
				require.False(t, cfg.P2P.Mine)
			},
		},
		{
			name: "datadir and identity",
			args: []string{"--datadir", tmp, "--identity", "miner-1", "--db.memory"},
			want: func(t *testing.T, cfg launcher.Config) {
				require.Equal(t, tmp, cfg.Node.DataDir)
				require.Equal(t, "miner-1", cfg.Node.Name)
			},
		},
		{
			name: "network selection",
			args: []string{"--network", "test", "--db.memory"},
			want: func(t *testing.T, cfg launcher.Config) {
				require.Equal(t, "test", cfg.Smv.NetworkName)
			},
		},
		{
			name: "fakenet wins over network",
			args: []string{"--network", "main", "--fakenet", "5", "--db.memory"},
			want: func(t *testing.T, cfg launcher.Config) {
				require.Equal(t, "fake", cfg.Smv.NetworkName)
				require.Equal(t, 5, cfg.Smv.FakeNetSize)
			},
		},
		{
			name: "node role and peers",
			args: []string{
				"--node.type", "seed",
				"--listen", "127.0.0.1:7000",
				"--seeds", "127.0.0.1:8000, 127.0.0.1:8001",
				"--maxpeers", "7",
				"--db.memory",
			},
			want: func(t *testing.T, cfg launcher.Config) {
				require.Equal(t, node.Seed, cfg.P2P.Type)
				require.Equal(t, "127.0.0.1:7000", cfg.P2P.ListenAddr)
				require.Equal(t, []string{"127.0.0.1:8000", "127.0.0.1:8001"}, cfg.P2P.SeedAddrs)
				require.Equal(t, 7, cfg.P2P.MaxPeers)
			},
		},
		{
			name: "miner",
			args: []string{"--mine", "--mine.period", "250ms", "--db.memory"},
			want: func(t *testing.T, cfg launcher.Config) {
				require.True(t, cfg.P2P.Mine)
				require.Equal(t, 250*time.Millisecond, cfg.P2P.MinePeriod)
			},
		},
		{
			name: "logging",
			args: []string{"--log.format", "json", "--log.verbosity", "5", "--db.memory"},
			want: func(t *testing.T, cfg launcher.Config) {
				require.Equal(t, "json", cfg.Node.Logging.Format)
				require.Equal(t, 5, cfg.Node.Logging.Verbosity)
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := runConfigFromArgs(t, tc.args)
			tc.want(t, cfg)
		})
	}
}

func TestMakeAllConfigs_rejectsBadNodeType(t *testing.T) {
	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.NetworkFlags()...)
	app.Flags = append(app.Flags, flags.NodeFlags()...)
	app.Action = func(c *cli.Context) error {
		_, err := launcher.MakeAllConfigs(c)
		return err
	}
	err := app.Run([]string{"smv", "--node.type", "validator", "--db.memory"})
	require.Error(t, err)
}
