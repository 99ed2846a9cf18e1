package gtcr

import (
	"context"
	"fmt"

	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MetaEvidenceEvent is the registry event that publishes a meta-evidence URI.
const MetaEvidenceEvent = "MetaEvidence"

// MetaEvidencePair holds the meta evidence currently in force. Registration
// governs registration requests and carries the column schema used to decode
// item data; Removal governs removal requests.
type MetaEvidencePair struct {
	Registration    *metaevidence.MetaEvidence `json:"registration"`
	Removal         *metaevidence.MetaEvidence `json:"removal"`
	RegistrationURI string                     `json:"registration_uri"`
	RemovalURI      string                     `json:"removal_uri"`
}

// Columns returns the registration column schema.
func (p *MetaEvidencePair) Columns() []metaevidence.Column {
	return p.Registration.Metadata.Columns
}

// LatestMetaEvidence returns the most recent registration and removal meta
// evidence. A registry emits them as a pair, registration first, at
// deployment and again on every schema update, so the last two events are
// authoritative.
func (c *Client) LatestMetaEvidence(ctx context.Context) (*MetaEvidencePair, error) {
	if c.schemas != nil {
		if p, ok := c.schemas.get(); ok {
			return p, nil
		}
	}
	p, err := c.resolveMetaEvidence(ctx)
	if err != nil {
		return nil, err
	}
	if c.schemas != nil {
		c.schemas.set(p)
	}
	return p, nil
}

// InvalidateSchemas drops any cached meta evidence so the next call
// re-resolves it from the chain.
func (c *Client) InvalidateSchemas() {
	if c.schemas != nil {
		c.schemas.invalidate()
	}
}

func (c *Client) resolveMetaEvidence(ctx context.Context) (*MetaEvidencePair, error) {
	events, err := c.Events(ctx, MetaEvidenceEvent)
	if err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(events))
	for _, ev := range events {
		uri, ok := ev.Args["_evidence"].(string)
		if !ok {
			return nil, fmt.Errorf("meta evidence event at block %d has no _evidence argument", ev.BlockNumber)
		}
		uris = append(uris, uri)
	}

	if len(uris) == 0 {
		name := "unknown"
		if n, err := c.Network(ctx); err == nil {
			name = n.Name
		}
		return nil, &NoSchemaFoundError{
			Address:         c.registry.Address(),
			Network:         name,
			DeploymentBlock: c.cfg.deploymentBlock,
		}
	}

	// A lone event governs both request types.
	regURI := uris[len(uris)-1]
	if len(uris) >= 2 {
		regURI = uris[len(uris)-2]
	}
	remURI := uris[len(uris)-1]

	pair := &MetaEvidencePair{RegistrationURI: regURI, RemovalURI: remURI}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		me, err := c.fetchMetaEvidence(gctx, regURI)
		pair.Registration = me
		return err
	})
	g.Go(func() error {
		me, err := c.fetchMetaEvidence(gctx, remURI)
		pair.Removal = me
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.cfg.logger.Debug("meta evidence resolved",
		zap.String("registry", c.registry.Address().Hex()),
		zap.String("registration_uri", regURI),
		zap.String("removal_uri", remURI),
		zap.Int("columns", len(pair.Columns())),
	)
	return pair, nil
}

func (c *Client) fetchMetaEvidence(ctx context.Context, uri string) (*metaevidence.MetaEvidence, error) {
	body, err := c.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("fetch meta evidence %s: %w", uri, err)
	}
	me, err := metaevidence.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse meta evidence %s: %w", uri, err)
	}
	return me, nil
}
