package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/internal/doccache"
	"github.com/jmerrifield20/tcrview/internal/ethereum"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string
	verbose bool
	format  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tcr",
	Short: "Read-only client for curated registries",
	Long: `tcr reads items, meta evidence and deposits from a curated registry
deployed on an EVM chain.

Connection settings are read from flags, from ~/.tcr/config.yaml or from
TCR_* environment variables:

  tcr --rpc https://rpc.gnosischain.com --registry 0x... --view 0x... items`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.tcr")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("tcr")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.tcr/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log RPC activity to stderr")
	pf.StringVar(&format, "format", "text", "Output format: text or json")
	pf.String("rpc", "http://localhost:8545", "JSON-RPC endpoint of the chain")
	pf.String("registry", "", "registry contract address")
	pf.String("view", "", "view contract address")
	pf.String("ipfs", "https://ipfs.kleros.io", "gateway used to fetch meta evidence")
	pf.Uint64("deployment-block", 0, "block the registry was deployed at")
	pf.Duration("block-time", 15*time.Second, "average block time of the chain")
	pf.Uint64("blocks-per-request", 0, "log query window in blocks (overrides --block-time)")
	pf.Float64("rps", 0, "max RPC requests per second (0 = unlimited)")
	pf.String("redis", "", "redis URL used to cache meta evidence documents")
	pf.Duration("timeout", time.Minute, "overall timeout of the command")

	for _, name := range []string{"rpc", "registry", "view", "ipfs", "deployment-block", "block-time", "blocks-per-request", "rps", "redis", "timeout"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(metaEvidenceCmd)
	rootCmd.AddCommand(depositsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), viper.GetDuration("timeout"))
}

func addressFlag(name string) (common.Address, error) {
	s := viper.GetString(name)
	if s == "" {
		return common.Address{}, fmt.Errorf("--%s is required", name)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s: %q is not a hex address", name, s)
	}
	return common.HexToAddress(s), nil
}

func dial(ctx context.Context, logger *zap.Logger) (*ethereum.Conn, error) {
	return ethereum.Dial(ctx, viper.GetString("rpc"),
		ethereum.WithRateLimit(viper.GetFloat64("rps"), 1),
		ethereum.WithLogger(logger),
	)
}

func sdkOptions(logger *zap.Logger) []gtcr.Option {
	opts := []gtcr.Option{
		gtcr.WithLogger(logger),
		gtcr.WithDeploymentBlock(viper.GetUint64("deployment-block")),
		gtcr.WithBlockTime(viper.GetDuration("block-time")),
	}
	if n := viper.GetUint64("blocks-per-request"); n > 0 {
		opts = append(opts, gtcr.WithBlocksPerRequest(n))
	}
	return opts
}

// session bundles a connected client with the resources backing it.
type session struct {
	client *gtcr.Client
	conn   *ethereum.Conn
	rdb    *redis.Client
}

func (s *session) Close() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	s.conn.Close()
}

func openSession(ctx context.Context, logger *zap.Logger) (*session, error) {
	registryAddr, err := addressFlag("registry")
	if err != nil {
		return nil, err
	}
	viewAddr, err := addressFlag("view")
	if err != nil {
		return nil, err
	}

	conn, err := dial(ctx, logger)
	if err != nil {
		return nil, err
	}
	s := &session{conn: conn}

	var fetcher gtcr.DocumentFetcher = metaevidence.NewHTTPFetcher(viper.GetString("ipfs"), 30*time.Second)
	if u := viper.GetString("redis"); u != "" {
		opt, err := redis.ParseURL(u)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		s.rdb = redis.NewClient(opt)
		fetcher = doccache.New(s.rdb, fetcher, doccache.WithLogger(logger))
	}

	opts := append(sdkOptions(logger), gtcr.WithArbitratorDialer(conn.ArbitratorDialer()))
	client, err := gtcr.New(conn, conn.Registry(registryAddr), conn.View(viewAddr), fetcher, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = client
	return s, nil
}

// explain adds a hint to errors users can act on.
func explain(err error) error {
	if gtcr.IsProviderTimeout(err) {
		return fmt.Errorf("%w (the node timed out; retry with a smaller --blocks-per-request)", err)
	}
	if errors.Is(err, gtcr.ErrNoSchemaFound) {
		return fmt.Errorf("%w (check --registry and --deployment-block)", err)
	}
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tcr CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tcr %s\n", version)
	},
}
