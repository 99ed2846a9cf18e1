// Package metaevidence defines the meta-evidence document published by a
// curated registry and the column schema carried in its metadata field.
//
// A registry emits two meta-evidence documents: one governing registration
// requests and one governing removal requests. The column list of the
// registration document describes how item data is encoded on-chain.
package metaevidence

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoColumns is returned by Validate when the metadata declares no columns.
var ErrNoColumns = errors.New("metadata declares no columns")

// ColumnType names the encoding of a single item field.
type ColumnType string

const (
	TypeText        ColumnType = "text"
	TypeLongText    ColumnType = "long text"
	TypeImage       ColumnType = "image"
	TypeFile        ColumnType = "file"
	TypeLink        ColumnType = "link"
	TypeAddress     ColumnType = "address"
	TypeGTCRAddress ColumnType = "GTCR address"
	TypeRichAddress ColumnType = "rich address"
	TypeNumber      ColumnType = "number"
	TypeBoolean     ColumnType = "boolean"
)

// Known reports whether t is a column type understood by the codec.
func (t ColumnType) Known() bool {
	switch t {
	case TypeText, TypeLongText, TypeImage, TypeFile, TypeLink,
		TypeAddress, TypeGTCRAddress, TypeRichAddress, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// Column defines one field of an item's encoded payload. Column order must
// match the order used when the item was encoded.
type Column struct {
	Label        string     `json:"label"`
	Description  string     `json:"description,omitempty"`
	Type         ColumnType `json:"type"`
	IsIdentifier bool       `json:"isIdentifier,omitempty"`
}

// Metadata is the registry-specific extension of a meta-evidence document.
type Metadata struct {
	TCRTitle               string   `json:"tcrTitle,omitempty"`
	TCRDescription         string   `json:"tcrDescription,omitempty"`
	Columns                []Column `json:"columns"`
	ItemName               string   `json:"itemName,omitempty"`
	ItemNamePlural         string   `json:"itemNamePlural,omitempty"`
	LogoURI                string   `json:"logoURI,omitempty"`
	RequireRemovalEvidence bool     `json:"requireRemovalEvidence,omitempty"`
	IsTCRofTCRs            bool     `json:"isTCRofTCRs,omitempty"`
	RelTCRDisabled         bool     `json:"relTcrDisabled,omitempty"`
}

// RulingOptions lists the labels an arbitrator may rule with.
type RulingOptions struct {
	Titles       []string `json:"titles,omitempty"`
	Descriptions []string `json:"descriptions,omitempty"`
}

// MetaEvidence is the full meta-evidence document.
type MetaEvidence struct {
	Title                       string        `json:"title,omitempty"`
	Description                 string        `json:"description,omitempty"`
	RulingOptions               RulingOptions `json:"rulingOptions"`
	Category                    string        `json:"category,omitempty"`
	Question                    string        `json:"question,omitempty"`
	FileURI                     string        `json:"fileURI,omitempty"`
	EvidenceDisplayInterfaceURI string        `json:"evidenceDisplayInterfaceURI,omitempty"`
	Metadata                    Metadata      `json:"metadata"`
}

// Parse decodes and validates a meta-evidence document.
func Parse(data []byte) (*MetaEvidence, error) {
	var me MetaEvidence
	if err := json.Unmarshal(data, &me); err != nil {
		return nil, fmt.Errorf("decode meta evidence: %w", err)
	}
	if err := me.Metadata.Validate(); err != nil {
		return nil, err
	}
	return &me, nil
}

// Validate checks that the column schema is usable for decoding.
func (m *Metadata) Validate() error {
	if len(m.Columns) == 0 {
		return ErrNoColumns
	}
	for i, col := range m.Columns {
		if col.Label == "" {
			return fmt.Errorf("column %d: label is required", i)
		}
		if col.Type == "" {
			// Older registries omit the type for plain text columns.
			m.Columns[i].Type = TypeText
			continue
		}
		if !col.Type.Known() {
			return fmt.Errorf("column %q: unknown type %q", col.Label, col.Type)
		}
	}
	return nil
}

// IdentifierColumns returns the columns flagged as item identifiers.
func (m *Metadata) IdentifierColumns() []Column {
	var ids []Column
	for _, col := range m.Columns {
		if col.IsIdentifier {
			ids = append(ids, col)
		}
	}
	return ids
}
