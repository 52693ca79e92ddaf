package telemetry_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dwarvesf/alph-swap-backend/internal/alphrpc"
)

type mockAlphRPC struct {
	mock.Mock
}

func (m *mockAlphRPC) AddressBalance(ctx context.Context, address string) (*alphrpc.AddressBalance, error) {
	args := m.Called(address)
	balance, _ := args.Get(0).(*alphrpc.AddressBalance)
	return balance, args.Error(1)
}

func (m *mockAlphRPC) TransactionStatus(ctx context.Context, txID string) (*alphrpc.TransactionStatus, error) {
	args := m.Called(txID)
	status, _ := args.Get(0).(*alphrpc.TransactionStatus)
	return status, args.Error(1)
}

func (m *mockAlphRPC) TransactionDetails(ctx context.Context, txID string) (*alphrpc.TransactionDetails, error) {
	args := m.Called(txID)
	details, _ := args.Get(0).(*alphrpc.TransactionDetails)
	return details, args.Error(1)
}

func (m *mockAlphRPC) TransferToken(ctx context.Context, transfer alphrpc.Transfer) (string, error) {
	args := m.Called(transfer)
	return args.String(0), args.Error(1)
}

func (m *mockAlphRPC) NodeInfo(ctx context.Context) (*alphrpc.SelfClique, error) {
	args := m.Called()
	info, _ := args.Get(0).(*alphrpc.SelfClique)
	return info, args.Error(1)
}

func confirmed(confirmations int) *alphrpc.TransactionStatus {
	return &alphrpc.TransactionStatus{
		Type:                   alphrpc.TxStatusConfirmed,
		ChainConfirmations:     confirmations,
		FromGroupConfirmations: confirmations,
		ToGroupConfirmations:   confirmations,
	}
}

func paidTo(address, attoAlph string) *alphrpc.TransactionDetails {
	return &alphrpc.TransactionDetails{
		ScriptExecutionOk: true,
		Unsigned: alphrpc.UnsignedTx{
			FixedOutputs: []alphrpc.FixedOutput{
				{Address: address, AttoAlphAmount: attoAlph},
				{Address: "change-address", AttoAlphAmount: "5000000000000000000"},
			},
		},
	}
}

func faucetHolding(tokenID, amount string) *alphrpc.AddressBalance {
	return &alphrpc.AddressBalance{
		Balance:       "10000000000000000000",
		TokenBalances: []alphrpc.Token{{ID: tokenID, Amount: amount}},
	}
}
