package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"

	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/storage"
)

// Well known secp256k1 keys and the addresses they control.
const (
	Key1     = "0000000000000000000000000000000000000000000000000000000000000001"
	Address1 = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
	Key2     = "0000000000000000000000000000000000000000000000000000000000000002"
	Address2 = "0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF"
	Key3     = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	Address3 = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

// Shortcut to initialize a storage at a temp path, panic if we cannot create db
func TestMustDB() storage.Storage {
	dir, err := os.MkdirTemp("", "pharostest")
	if err != nil {
		panic(err)
	}

	db, err := storage.NewWithPath(dir)
	if err != nil {
		panic(err)
	}
	return db
}

func GetLogger() sdklogging.Logger {
	logger, err := sdklogging.NewZapLogger("development")
	if err != nil {
		panic(err)
	}
	return logger
}

func TestWallets() []model.Wallet {
	return []model.Wallet{
		{PrivateKey: Key1, Name: "alpha"},
		{PrivateKey: Key2, Name: "beta"},
		{PrivateKey: Key3, Name: "gamma", Token: "token-3"},
	}
}

// WriteJSON marshals v into dir/name and returns the path.
func WriteJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
