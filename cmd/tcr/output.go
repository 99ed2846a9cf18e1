package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatValue renders a decoded column value for terminal output.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case fmt.Stringer:
		return x.String()
	case [32]byte:
		return common.Hash(x).Hex()
	case []byte:
		return hexutil.Encode(x)
	case string:
		if len(x) > 48 {
			return x[:45] + "..."
		}
		return x
	}
	return fmt.Sprint(v)
}

func formatItemData(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, " | ")
}

func printItems(items []gtcr.Item, hasMore bool) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDISPUTED\tDATA")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", it.ID.Hex(), it.Status, it.Disputed, formatItemData(it.DecodedData))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if hasMore {
		fmt.Println("(more items on the next page)")
	}
	return nil
}

func printItemRowsJSON(rows []itemRow) error {
	type jsonRow struct {
		ID    string     `json:"id"`
		Item  *gtcr.Item `json:"item,omitempty"`
		Error string     `json:"error,omitempty"`
	}
	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		out[i] = jsonRow{ID: r.id.Hex(), Item: r.item}
		if r.err != nil {
			out[i].Error = r.err.Error()
		}
	}
	// Single result: unwrap from array for convenience.
	var v any = out
	if len(out) == 1 {
		v = out[0]
	}
	return printJSON(v)
}

func printItemRows(rows []itemRow) error {
	if len(rows) == 1 {
		r := rows[0]
		if r.err != nil {
			return fmt.Errorf("item %s: %w", r.id.Hex(), r.err)
		}
		it := r.item
		fmt.Printf("ID:          %s\n", it.ID.Hex())
		fmt.Printf("Status:      %s\n", it.Status)
		fmt.Printf("Disputed:    %t\n", it.Disputed)
		fmt.Printf("Requester:   %s\n", it.Requester.Hex())
		fmt.Printf("Data:        %s\n", formatItemData(it.DecodedData))
		if it.Status.HasPendingRequest() {
			if it.ChallengeExpired() {
				fmt.Printf("Challenge:   period elapsed %ds ago\n", -it.ChallengeRemainingTime)
			} else {
				fmt.Printf("Challenge:   %ds remaining\n", it.ChallengeRemainingTime)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCHALLENGE\tDATA\tERROR")
	for _, r := range rows {
		if r.err != nil {
			fmt.Fprintf(w, "%s\t\t\t\t%s\n", r.id.Hex(), r.err.Error())
			continue
		}
		challenge := "-"
		if r.item.Status.HasPendingRequest() {
			challenge = fmt.Sprintf("%ds", r.item.ChallengeRemainingTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", r.id.Hex(), r.item.Status, challenge, formatItemData(r.item.DecodedData))
	}
	return w.Flush()
}

func printMetaEvidence(p *gtcr.MetaEvidencePair) error {
	md := p.Registration.Metadata
	fmt.Printf("Registry:      %s\n", md.TCRTitle)
	fmt.Printf("Item name:     %s / %s\n", md.ItemName, md.ItemNamePlural)
	fmt.Printf("Registration:  %s\n", p.RegistrationURI)
	fmt.Printf("Removal:       %s\n", p.RemovalURI)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tLABEL\tTYPE\tIDENTIFIER")
	for i, c := range md.Columns {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", i, c.Label, c.Type, c.IsIdentifier)
	}
	return w.Flush()
}

// formatEther renders wei as ether with up to 18 decimals.
func formatEther(wei *big.Int) string {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
	return f.Text('f', -1)
}

func printDeposits(d *gtcr.Deposits) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEPOSIT\tWEI\tETHER")
	rows := []struct {
		name string
		v    *big.Int
	}{
		{"submission", d.Submission},
		{"submission challenge", d.SubmissionChallenge},
		{"removal", d.Removal},
		{"removal challenge", d.RemovalChallenge},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.name, r.v, formatEther(r.v))
	}
	return w.Flush()
}

func printEvents(evs []gtcr.DecodedEvent) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tLOG\tTX\tARGS")
	for _, ev := range evs {
		keys := make([]string, 0, len(ev.Args))
		for k := range ev.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args := make([]string, len(keys))
		for i, k := range keys {
			args[i] = fmt.Sprintf("%s=%s", k, formatValue(ev.Args[k]))
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", ev.BlockNumber, ev.LogIndex, ev.TxHash.Hex(), strings.Join(args, " "))
	}
	return w.Flush()
}
