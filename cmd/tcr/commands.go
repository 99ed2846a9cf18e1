package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ── items ────────────────────────────────────────────────────────────────────

var (
	itemsPage        uint64
	itemsPerPage     uint64
	itemsPerRequest  uint64
	itemsOldestFirst bool
	itemsFilter      string
	itemsAccount     string
	itemsLimit       uint64
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List one page of registry items",
	Long: `List one page of items, newest first by default.

Filter flags are comma separated:

  absent, registered, registration_requested, clearing_requested,
  disputed_registration, disputed_clearing, requested_by_account,
  challenged_by_account

  tcr items --page 2 --per-page 20 --filter registered`,
	Args: cobra.NoArgs,
	RunE: runItems,
}

func init() {
	f := itemsCmd.Flags()
	f.Uint64Var(&itemsPage, "page", 1, "1-based page number")
	f.Uint64Var(&itemsPerPage, "per-page", 100, "items per page")
	f.Uint64Var(&itemsPerRequest, "per-request", 1000, "items scanned per page-finding request")
	f.BoolVar(&itemsOldestFirst, "oldest-first", false, "list the oldest items first")
	f.StringVar(&itemsFilter, "filter", "", "comma-separated filter flags (default: everything but absent)")
	f.StringVar(&itemsAccount, "account", "", "account matched by requested_by_account and challenged_by_account")
	f.Uint64Var(&itemsLimit, "limit", 0, "max items scanned by the window query (0 = no cap)")
}

func runItems(cmd *cobra.Command, args []string) error {
	filter, err := gtcr.ParseFilter(itemsFilter)
	if err != nil {
		return err
	}
	opts := &gtcr.QueryOptions{
		OldestFirst:     itemsOldestFirst,
		Filter:          &filter,
		Page:            itemsPage,
		ItemsPerPage:    itemsPerPage,
		ItemsPerRequest: itemsPerRequest,
		Limit:           itemsLimit,
	}
	if itemsAccount != "" {
		if !common.IsHexAddress(itemsAccount) {
			return fmt.Errorf("--account: %q is not a hex address", itemsAccount)
		}
		opts.Account = common.HexToAddress(itemsAccount)
	}

	ctx, cancel := commandContext()
	defer cancel()
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	s, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	page, err := s.client.Page(ctx, opts)
	if err != nil {
		return explain(err)
	}
	if format == "json" {
		return printJSON(page)
	}
	return printItems(page.Items, page.HasMore)
}

// ── item ─────────────────────────────────────────────────────────────────────

// itemRow holds the outcome of a single item lookup.
type itemRow struct {
	id   common.Hash
	item *gtcr.Item
	err  error
}

var itemCmd = &cobra.Command{
	Use:   "item <id> [id...]",
	Short: "Show one or more items by ID",
	Long: `Show items by their 32-byte ID. Several IDs are fetched concurrently
and displayed as a table:

  tcr item 0x6d1f...e2 0x91aa...07`,
	Args: cobra.MinimumNArgs(1),
	RunE: runItem,
}

func runItem(cmd *cobra.Command, args []string) error {
	ids := make([]common.Hash, len(args))
	for i, a := range args {
		if !strings.HasPrefix(a, "0x") || len(a) != 66 {
			return fmt.Errorf("invalid item id %q: want 0x-prefixed 32-byte hex", a)
		}
		ids[i] = common.HexToHash(a)
	}

	ctx, cancel := commandContext()
	defer cancel()
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	s, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	rows := fetchItems(ctx, s.client, ids)
	if format == "json" {
		return printItemRowsJSON(rows)
	}
	return printItemRows(rows)
}

// fetchItems looks up every id concurrently and returns the results in
// input order.
func fetchItems(ctx context.Context, client *gtcr.Client, ids []common.Hash) []itemRow {
	rows := make([]itemRow, len(ids))
	done := make(chan struct{}, len(ids))
	for i, id := range ids {
		i, id := i, id
		go func() {
			item, err := client.Item(ctx, id)
			rows[i] = itemRow{id: id, item: item, err: explainIfSet(err)}
			done <- struct{}{}
		}()
	}
	for range ids {
		<-done
	}
	return rows
}

func explainIfSet(err error) error {
	if err == nil {
		return nil
	}
	return explain(err)
}

// ── meta-evidence ────────────────────────────────────────────────────────────

var metaEvidenceCmd = &cobra.Command{
	Use:   "meta-evidence",
	Short: "Show the registration and removal meta evidence in force",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		s, err := openSession(ctx, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		pair, err := s.client.LatestMetaEvidence(ctx)
		if err != nil {
			return explain(err)
		}
		if format == "json" {
			return printJSON(pair)
		}
		return printMetaEvidence(pair)
	},
}

// ── deposits ─────────────────────────────────────────────────────────────────

var depositsCmd = &cobra.Command{
	Use:   "deposits",
	Short: "Show the deposits required to submit, remove and challenge items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		s, err := openSession(ctx, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		d, err := s.client.AllDeposits(ctx)
		if err != nil {
			return explain(err)
		}
		if format == "json" {
			return printJSON(d)
		}
		return printDeposits(d)
	},
}

// ── events ───────────────────────────────────────────────────────────────────

var eventsCmd = &cobra.Command{
	Use:   "events <MetaEvidence|ItemStatusChange>",
	Short: "Dump the registry's event history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		s, err := openSession(ctx, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		evs, err := s.client.Events(ctx, args[0])
		if err != nil {
			return explain(err)
		}
		if format == "json" {
			return printJSON(evs)
		}
		return printEvents(evs)
	},
}

// ── lists ────────────────────────────────────────────────────────────────────

var listsFactory string

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "List the registries deployed by a factory contract",
	Long: `List every registry deployed by a factory, in deployment order.
--deployment-block applies to the factory:

  tcr lists --factory 0x... --deployment-block 15000000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listsFactory == "" {
			listsFactory = viper.GetString("factory")
		}
		if !common.IsHexAddress(listsFactory) {
			return fmt.Errorf("--factory: %q is not a hex address", listsFactory)
		}

		ctx, cancel := commandContext()
		defer cancel()
		logger := newLogger()
		defer logger.Sync() //nolint:errcheck

		conn, err := dial(ctx, logger)
		if err != nil {
			return err
		}
		defer conn.Close()

		factory, err := gtcr.NewFactory(conn, common.HexToAddress(listsFactory), sdkOptions(logger)...)
		if err != nil {
			return err
		}
		addrs, err := factory.Addresses(ctx)
		if err != nil {
			return explain(err)
		}
		if format == "json" {
			return printJSON(addrs)
		}
		for _, a := range addrs {
			fmt.Println(a.Hex())
		}
		return nil
	},
}

func init() {
	listsCmd.Flags().StringVar(&listsFactory, "factory", "", "factory contract address")
}
