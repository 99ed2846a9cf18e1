// Package gateway serves a read-only HTTP API over a curated registry.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/tcrview/pkg/gtcr"
	"github.com/jmerrifield20/tcrview/pkg/metaevidence"
	"go.uber.org/zap"
)

// Reader is the subset of gtcr.Client served by the gateway.
type Reader interface {
	Page(ctx context.Context, opts *gtcr.QueryOptions) (*gtcr.Page, error)
	Item(ctx context.Context, id common.Hash) (*gtcr.Item, error)
	LatestMetaEvidence(ctx context.Context) (*gtcr.MetaEvidencePair, error)
	AllDeposits(ctx context.Context) (*gtcr.Deposits, error)
	Network(ctx context.Context) (*gtcr.Network, error)
	Events(ctx context.Context, eventName string) ([]gtcr.DecodedEvent, error)
}

// Lister lists the registries deployed by a factory.
type Lister interface {
	Addresses(ctx context.Context) ([]common.Address, error)
}

// RegistryHandler exposes the registry read endpoints.
type RegistryHandler struct {
	reader  Reader
	lists   Lister // nil = no factory configured
	address common.Address
	logger  *zap.Logger
}

// NewRegistryHandler creates a RegistryHandler for the registry at address.
// lists may be nil.
func NewRegistryHandler(reader Reader, address common.Address, lists Lister, logger *zap.Logger) *RegistryHandler {
	return &RegistryHandler{reader: reader, lists: lists, address: address, logger: logger}
}

// Register mounts the registry routes on the given router group.
func (h *RegistryHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/registry", h.Overview)
	rg.GET("/items", h.ListItems)
	rg.GET("/items/:id", h.GetItem)
	rg.GET("/meta-evidence", h.MetaEvidence)
	rg.GET("/deposits", h.Deposits)
	rg.GET("/events/:name", h.Events)
	if h.lists != nil {
		rg.GET("/lists", h.Lists)
	}
}

type itemsQuery struct {
	Page        uint64 `form:"page"`
	PerPage     uint64 `form:"per_page"`
	PerRequest  uint64 `form:"per_request"`
	OldestFirst bool   `form:"oldest_first"`
	Filter      string `form:"filter"`
	Account     string `form:"account"`
	Limit       uint64 `form:"limit"`
}

const maxItemsPerPage = 500

func (q itemsQuery) options() (*gtcr.QueryOptions, error) {
	filter, err := gtcr.ParseFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	opts := &gtcr.QueryOptions{
		OldestFirst:     q.OldestFirst,
		Filter:          &filter,
		Page:            q.Page,
		ItemsPerPage:    q.PerPage,
		ItemsPerRequest: q.PerRequest,
		Limit:           q.Limit,
	}
	if q.PerPage > maxItemsPerPage {
		return nil, errors.New("per_page must not exceed 500")
	}
	if q.Account != "" {
		if !common.IsHexAddress(q.Account) {
			return nil, errors.New("account must be a hex address")
		}
		opts.Account = common.HexToAddress(q.Account)
	}
	return opts, nil
}

// Overview handles GET /registry and returns the registry address and network.
func (h *RegistryHandler) Overview(c *gin.Context) {
	n, err := h.reader.Network(c.Request.Context())
	if err != nil {
		h.writeError(c, "network", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": h.address,
		"network": n,
	})
}

// ListItems handles GET /items and returns one page of decoded items.
func (h *RegistryHandler) ListItems(c *gin.Context) {
	var q itemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts, err := q.options()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.reader.Page(c.Request.Context(), opts)
	if err != nil {
		h.writeError(c, "list items", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":    page.Items,
		"count":    len(page.Items),
		"has_more": page.HasMore,
		"page":     max(opts.Page, 1),
	})
}

// GetItem handles GET /items/:id and returns a single decoded item.
func (h *RegistryHandler) GetItem(c *gin.Context) {
	raw := c.Param("id")
	if !strings.HasPrefix(raw, "0x") || len(raw) != 66 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a 0x-prefixed 32-byte hex string"})
		return
	}

	item, err := h.reader.Item(c.Request.Context(), common.HexToHash(raw))
	if err != nil {
		h.writeError(c, "get item", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item":              item,
		"challenge_expired": item.ChallengeExpired(),
	})
}

// MetaEvidence handles GET /meta-evidence and returns the registration and
// removal meta evidence currently in force.
func (h *RegistryHandler) MetaEvidence(c *gin.Context) {
	pair, err := h.reader.LatestMetaEvidence(c.Request.Context())
	if err != nil {
		h.writeError(c, "meta evidence", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Deposits handles GET /deposits and returns every deposit amount in wei.
func (h *RegistryHandler) Deposits(c *gin.Context) {
	d, err := h.reader.AllDeposits(c.Request.Context())
	if err != nil {
		h.writeError(c, "deposits", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"submission":           d.Submission.String(),
		"submission_challenge": d.SubmissionChallenge.String(),
		"removal":              d.Removal.String(),
		"removal_challenge":    d.RemovalChallenge.String(),
	})
}

var servedEvents = map[string]bool{
	gtcr.MetaEvidenceEvent: true,
	"ItemStatusChange":     true,
}

// Events handles GET /events/:name and returns the registry's event history.
func (h *RegistryHandler) Events(c *gin.Context) {
	name := c.Param("name")
	if !servedEvents[name] {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown event"})
		return
	}
	evs, err := h.reader.Events(c.Request.Context(), name)
	if err != nil {
		h.writeError(c, "events", err)
		return
	}
	if evs == nil {
		evs = []gtcr.DecodedEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": evs, "count": len(evs)})
}

// Lists handles GET /lists and returns the registries deployed by the factory.
func (h *RegistryHandler) Lists(c *gin.Context) {
	addrs, err := h.lists.Addresses(c.Request.Context())
	if err != nil {
		h.writeError(c, "lists", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": addrs, "count": len(addrs)})
}

// writeError maps client errors onto HTTP statuses.
func (h *RegistryHandler) writeError(c *gin.Context, op string, err error) {
	var pe *gtcr.ProviderError
	switch {
	case errors.Is(err, gtcr.ErrNoSchemaFound), errors.Is(err, gtcr.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, gtcr.ErrDecode), errors.Is(err, metaevidence.ErrNotFound):
		h.logger.Warn(op, zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, gtcr.ErrNoArbitratorDialer):
		c.JSON(http.StatusNotImplemented, gin.H{"error": "deposits are not available"})
	case errors.As(err, &pe):
		h.logger.Error(op, zap.Error(err), zap.Bool("timeout", gtcr.IsProviderTimeout(err)))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chain provider unavailable"})
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		h.logger.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
