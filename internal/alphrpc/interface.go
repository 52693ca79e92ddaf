package alphrpc

import "context"

// IAlphRPC is the subset of the Alephium full node API the swap worker needs.
type IAlphRPC interface {
	AddressBalance(ctx context.Context, address string) (*AddressBalance, error)
	TransactionStatus(ctx context.Context, txID string) (*TransactionStatus, error)
	TransactionDetails(ctx context.Context, txID string) (*TransactionDetails, error)
	// TransferToken signs with the node wallet and submits the transfer. It
	// returns the id of the submitted transaction.
	TransferToken(ctx context.Context, transfer Transfer) (string, error)
	NodeInfo(ctx context.Context) (*SelfClique, error)
}
