package model

import (
	"fmt"
	"time"
)

const (
	// SchemaLegacy is the flat identity->ledger object written by the first
	// releases, where keys could also be raw secret keys.
	SchemaLegacy = 1
	// SchemaCurrent keeps ledgers under a versioned envelope keyed only by
	// canonical addresses.
	SchemaCurrent = 2
)

// Ledgers maps a canonical wallet identity to its ledger.
type Ledgers map[string]*WalletLedger

// Document is the persisted form of the whole task store.
type Document struct {
	Version    int               `json:"version"`
	Migrations map[string]string `json:"migrations,omitempty"`
	Wallets    Ledgers           `json:"wallets"`
}

func NewDocument() *Document {
	return &Document{
		Version:    SchemaCurrent,
		Migrations: map[string]string{},
		Wallets:    Ledgers{},
	}
}

// MarkMigrated records that the named migration touched n records.
func (d *Document) MarkMigrated(name string, n int, at time.Time) {
	if d.Migrations == nil {
		d.Migrations = map[string]string{}
	}
	d.Migrations[name] = fmt.Sprintf("records=%d,ts=%d", n, at.UnixMilli())
}

func (d *Document) Migrated(name string) bool {
	_, ok := d.Migrations[name]
	return ok
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	c := &Document{
		Version:    d.Version,
		Migrations: make(map[string]string, len(d.Migrations)),
		Wallets:    d.Wallets.Clone(),
	}
	for k, v := range d.Migrations {
		c.Migrations[k] = v
	}
	return c
}

func (ls Ledgers) Clone() Ledgers {
	c := make(Ledgers, len(ls))
	for k, v := range ls {
		c[k] = v.Clone()
	}
	return c
}
