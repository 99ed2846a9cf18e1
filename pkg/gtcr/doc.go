// Package gtcr is a read-only Go client for curated on-chain registries.
//
// A registry's items, their request history and the schema used to encode
// item data live on an EVM chain. A Client reconstructs a paginated,
// decoded view of the registry without sending transactions.
//
// # Connecting
//
// The chain and contracts are reached through small interfaces so any
// transport can back them. The ethereum package in this module provides
// go-ethereum implementations:
//
//	c, err := gtcr.New(ledger, registry, view,
//	    metaevidence.NewHTTPFetcher("https://ipfs.kleros.io", 0),
//	    gtcr.WithDeploymentBlock(10_247_267),
//	    gtcr.WithBlockTime(13*time.Second),
//	    gtcr.WithLogger(logger),
//	)
//
// # Listing items
//
// Items are returned newest first, 100 per page, skipping absent items:
//
//	items, err := c.Items(ctx, nil)
//	for _, it := range items {
//	    fmt.Println(it.ID.Hex(), it.Status, it.DecodedData)
//	}
//
// Pages are located by the view contract in chunks of ItemsPerRequest
// items, so a large registry never forces a single long-running call:
//
//	items, err := c.Items(ctx, &gtcr.QueryOptions{
//	    Page:            3,
//	    ItemsPerPage:    20,
//	    ItemsPerRequest: 500,
//	    OldestFirst:     true,
//	})
//
// # Meta evidence
//
// LatestMetaEvidence sweeps the registry's MetaEvidence events in block
// windows and fetches the latest registration and removal documents. By
// default it is re-resolved on every call; WithSchemaTTL caches it and
// InvalidateSchemas drops the cached copy.
//
// # Errors
//
// Failed remote calls are returned as *ProviderError and never retried.
// A registry without meta evidence yields *NoSchemaFoundError (matching
// ErrNoSchemaFound) and undecodable item data yields *DecodeError.
package gtcr
