package taskstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Kazuha787/Pharos-Auto-Bot/model"
)

// JSONFile keeps the ledger in a single JSON file, replaced through a temp
// file and rename so readers never observe a half written store.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (f *JSONFile) Read(ctx context.Context) (*model.Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger %s: %w", f.path, err)
	}

	return decodeDocument(data)
}

// decodeDocument accepts both the versioned envelope and the flat schema v1
// object, which has no "version" member because every key is a wallet.
func decodeDocument(data []byte) (*model.Document, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, corrupt(err)
	}

	if raw, ok := probe["version"]; ok {
		var version int
		if err := json.Unmarshal(raw, &version); err == nil {
			doc := &model.Document{}
			if err := json.Unmarshal(data, doc); err != nil {
				return nil, corrupt(err)
			}
			return normalize(doc), nil
		}
	}

	wallets := make(model.Ledgers, len(probe))
	for key, raw := range probe {
		var ledger model.WalletLedger
		if err := json.Unmarshal(raw, &ledger); err != nil {
			return nil, corrupt(fmt.Errorf("entry %s: %w", key, err))
		}
		wallets[key] = &ledger
	}

	return normalize(&model.Document{Version: model.SchemaLegacy, Wallets: wallets}), nil
}

func (f *JSONFile) Write(ctx context.Context, doc *model.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	return f.replace(append(data, '\n'))
}

func (f *JSONFile) replace(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp ledger: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

// Backup streams the file as is; a missing file backs up as an empty store.
func (f *JSONFile) Backup(ctx context.Context, w io.Writer) error {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		data, err = json.MarshalIndent(model.NewDocument(), "", "  ")
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Restore replaces the ledger with a previous backup after checking it decodes.
func (f *JSONFile) Restore(ctx context.Context, r io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if _, err := decodeDocument(buf.Bytes()); err != nil {
		return fmt.Errorf("refusing to restore: %w", err)
	}
	return f.replace(buf.Bytes())
}

func (f *JSONFile) BackupFileName() string {
	return "ledger-backup.json"
}

func (f *JSONFile) Describe() string {
	return "json:" + f.path
}

func (f *JSONFile) Close() error {
	return nil
}
