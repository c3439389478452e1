// Package stats gathers per wallet balances, transaction counts and testnet
// points for the statistics table.
package stats

import (
	"context"
	"errors"
	"math/big"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/wallet"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/logger"
)

// Chain is the read side of an RPC node. *ethclient.Client satisfies it.
type Chain interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

// Profiles is the points API.
type Profiles interface {
	Profile(ctx context.Context, address, token string) (*UserInfo, error)
	Login(ctx context.Context, address, signature string) (string, error)
}

type Resolver interface {
	Resolve(secretKey string) (common.Address, error)
}

// DialChain connects to the RPC node at url.
func DialChain(ctx context.Context, url string) (*ethclient.Client, error) {
	return ethclient.DialContext(ctx, url)
}

// Row is one wallet line of the statistics table.
type Row struct {
	Position int
	Address  string
	Balance  decimal.Decimal
	TxCount  uint64
	// Profile is nil when the points could not be fetched.
	Profile *UserInfo
}

// Report is the outcome of one Collect call.
type Report struct {
	Rows    []Row
	Wallets int
	// Refreshed maps secret keys to tokens obtained by logging in again.
	Refreshed map[string]string
}

func (r *Report) TotalBalance() decimal.Decimal {
	return lo.Reduce(r.Rows, func(acc decimal.Decimal, row Row, _ int) decimal.Decimal {
		return acc.Add(row.Balance)
	}, decimal.Zero)
}

func (r *Report) TotalTxs() uint64 {
	return lo.SumBy(r.Rows, func(row Row) uint64 { return row.TxCount })
}

// TotalPoints sums total, task and invite points over the rows that have a
// profile.
func (r *Report) TotalPoints() (total, task, invite decimal.Decimal) {
	for _, row := range r.Rows {
		if row.Profile == nil {
			continue
		}
		total = total.Add(row.Profile.TotalPoints)
		task = task.Add(row.Profile.TaskPoints)
		invite = invite.Add(row.Profile.InvitePoints)
	}
	return total, task, invite
}

type Collector struct {
	chain    Chain
	profiles Profiles
	resolver Resolver
	logger   sdklogging.Logger
	now      func() time.Time
}

func NewCollector(chain Chain, profiles Profiles, resolver Resolver, log sdklogging.Logger) *Collector {
	return &Collector{
		chain:    chain,
		profiles: profiles,
		resolver: resolver,
		logger:   logger.EnsureLogger(log),
		now:      time.Now,
	}
}

// Collect visits wallets in file order. Lookup failures leave zero values in
// the row; wallets with an unusable key are left out of the table but keep
// their position number.
func (c *Collector) Collect(ctx context.Context, wallets []model.Wallet) (*Report, error) {
	report := &Report{Wallets: len(wallets), Refreshed: map[string]string{}}
	if len(wallets) == 0 {
		c.logger.Info("No wallets loaded")
		return report, nil
	}

	for i, w := range wallets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		address, err := c.resolver.Resolve(w.PrivateKey)
		if err != nil {
			c.logger.Warn("Skipping wallet with invalid key", "position", i+1, "error", err)
			continue
		}
		row := Row{Position: i + 1, Address: address.Hex()}

		if wei, err := c.chain.BalanceAt(ctx, address, nil); err == nil {
			row.Balance = decimal.NewFromBigInt(wei, -18)
		} else {
			c.logger.Debug("Balance lookup failed", "address", row.Address, "error", err)
		}
		if nonce, err := c.chain.NonceAt(ctx, address, nil); err == nil {
			row.TxCount = nonce
		} else {
			c.logger.Debug("Transaction count lookup failed", "address", row.Address, "error", err)
		}

		row.Profile = c.profile(ctx, w, row.Address, report)
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// profile queries the points with the stored token, logging in again when the
// token is missing, expired or refused.
func (c *Collector) profile(ctx context.Context, w model.Wallet, address string, report *Report) *UserInfo {
	token := w.Token
	if token != "" && !TokenExpired(token, c.now()) {
		info, err := c.profiles.Profile(ctx, address, token)
		if err == nil {
			return info
		}
		if !errors.Is(err, ErrForbidden) {
			c.logger.Warn("Failed to fetch account stats", "address", address, "error", err)
			return nil
		}
	} else if token != "" {
		c.logger.Info("Wallet token expired, logging in again", "address", address)
	}

	signature, err := wallet.SignMessage(w.PrivateKey, LoginMessage)
	if err != nil {
		c.logger.Warn("Failed to sign login message", "address", address, "error", err)
		return nil
	}
	fresh, err := c.profiles.Login(ctx, address, signature)
	if err != nil {
		c.logger.Warn("Failed to login for stats", "address", address, "error", err)
		return nil
	}
	report.Refreshed[w.PrivateKey] = fresh

	info, err := c.profiles.Profile(ctx, address, fresh)
	if err != nil {
		c.logger.Warn("Failed to fetch account stats", "address", address, "error", err)
		return nil
	}
	return info
}
