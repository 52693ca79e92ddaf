package alphrpc

import (
	"errors"
	"math/big"

	"github.com/sony/gobreaker"
)

var (
	// ErrRequestRejected is returned when the node answers with a 4xx status.
	// Retrying the same request will not help.
	ErrRequestRejected = errors.New("request rejected by node")
	// ErrWalletUnavailable is returned when the faucet wallet could not be
	// unlocked. No transfer was submitted.
	ErrWalletUnavailable = errors.New("faucet wallet unavailable")
)

// IsCircuitOpen reports whether err came from a circuit breaker refusing the
// call, so the request never reached the node.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

type TxStatusType string

const (
	TxStatusConfirmed  TxStatusType = "Confirmed"
	TxStatusMemPooled  TxStatusType = "MemPooled"
	TxStatusTxNotFound TxStatusType = "TxNotFound"
)

type Token struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

type AddressBalance struct {
	Balance       string  `json:"balance"`
	LockedBalance string  `json:"lockedBalance"`
	TokenBalances []Token `json:"tokenBalances"`
}

// TokenAmount returns the unlocked balance of tokenID in base units.
func (b *AddressBalance) TokenAmount(tokenID string) *big.Int {
	total := new(big.Int)
	for _, t := range b.TokenBalances {
		if t.ID != tokenID {
			continue
		}
		if v, ok := new(big.Int).SetString(t.Amount, 10); ok {
			total.Add(total, v)
		}
	}
	return total
}

type TransactionStatus struct {
	Type                   TxStatusType `json:"type"`
	BlockHash              string       `json:"blockHash,omitempty"`
	TxIndex                int          `json:"txIndex,omitempty"`
	ChainConfirmations     int          `json:"chainConfirmations,omitempty"`
	FromGroupConfirmations int          `json:"fromGroupConfirmations,omitempty"`
	ToGroupConfirmations   int          `json:"toGroupConfirmations,omitempty"`
}

// Confirmations is the smallest of the chain, from-group and to-group counts,
// or zero while the transaction is not in a block.
func (s *TransactionStatus) Confirmations() int {
	if s == nil || s.Type != TxStatusConfirmed {
		return 0
	}
	c := s.ChainConfirmations
	if s.FromGroupConfirmations < c {
		c = s.FromGroupConfirmations
	}
	if s.ToGroupConfirmations < c {
		c = s.ToGroupConfirmations
	}
	return c
}

type FixedOutput struct {
	Hint           int     `json:"hint"`
	Key            string  `json:"key"`
	AttoAlphAmount string  `json:"attoAlphAmount"`
	Address        string  `json:"address"`
	Tokens         []Token `json:"tokens"`
}

type UnsignedTx struct {
	TxID         string        `json:"txId"`
	FixedOutputs []FixedOutput `json:"fixedOutputs"`
}

type TransactionDetails struct {
	Unsigned          UnsignedTx `json:"unsigned"`
	ScriptExecutionOk bool       `json:"scriptExecutionOk"`
}

// AttoAlphPaidTo sums the ALPH amount of every fixed output locked to address.
func (d *TransactionDetails) AttoAlphPaidTo(address string) *big.Int {
	total := new(big.Int)
	for _, o := range d.Unsigned.FixedOutputs {
		if o.Address != address {
			continue
		}
		if v, ok := new(big.Int).SetString(o.AttoAlphAmount, 10); ok {
			total.Add(total, v)
		}
	}
	return total
}

type Transfer struct {
	ToAddress      string
	TokenID        string
	TokenAmount    string
	AttoAlphAmount string
}

type SelfClique struct {
	CliqueID  string `json:"cliqueId"`
	SelfReady bool   `json:"selfReady"`
	Synced    bool   `json:"synced"`
}

type destination struct {
	Address        string  `json:"address"`
	AttoAlphAmount string  `json:"attoAlphAmount"`
	Tokens         []Token `json:"tokens,omitempty"`
}

type transferRequest struct {
	Destinations []destination `json:"destinations"`
}

type transferResponse struct {
	TxID      string `json:"txId"`
	FromGroup int    `json:"fromGroup"`
	ToGroup   int    `json:"toGroup"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
