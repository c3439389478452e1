package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Kazuha787/Pharos-Auto-Bot/model"
)

var validate = validator.New()

// LoadWalletFile reads the wallet source file. Any failure here is fatal for
// the caller: there is nothing to run without wallets.
func LoadWalletFile(path string) ([]model.Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet file %s: %w", path, err)
	}

	var file model.WalletFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse wallet file %s: %w", path, err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid wallet file %s: %w", path, err)
	}

	return file.Wallets, nil
}

// SaveTokens writes refreshed API tokens back into the wallet file. tokens is
// keyed by secret key; entries are matched after trimming and lowercasing.
// Fields this package does not know about are kept.
func SaveTokens(path string, tokens map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read wallet file %s: %w", path, err)
	}

	var file struct {
		Wallets []map[string]any `json:"wallets"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse wallet file %s: %w", path, err)
	}

	byKey := make(map[string]string, len(tokens))
	for key, token := range tokens {
		byKey[strings.ToLower(normalizeKey(key))] = token
	}
	for _, entry := range file.Wallets {
		key, _ := entry["privatekey"].(string)
		if token, ok := byKey[strings.ToLower(normalizeKey(key))]; ok {
			entry["token"] = token
		}
	}

	out, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
