package model

// Wallet is one entry of the wallet source file.
type Wallet struct {
	PrivateKey string `json:"privatekey" validate:"required"`
	Name       string `json:"name,omitempty"`
	Token      string `json:"token,omitempty"`
}

// WalletFile is the on-disk shape of wallet.json.
type WalletFile struct {
	Wallets []Wallet `json:"wallets" validate:"dive"`
}

// Label returns the display name, falling back to the given identity prefix.
func (w Wallet) Label(identity string) string {
	if w.Name != "" {
		return w.Name
	}
	if len(identity) > 6 {
		return identity[:6]
	}
	return identity
}
