package telemetry_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/mock"

	"github.com/dwarvesf/alph-swap-backend/internal/alphrpc"
	"github.com/dwarvesf/alph-swap-backend/internal/controller"
	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/store"
	"github.com/dwarvesf/alph-swap-backend/internal/store/swaprequest"
	"github.com/dwarvesf/alph-swap-backend/internal/telemetry"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

const (
	depositAddress = "deposit-address"
	faucetAddress  = "faucet-address"
	yumID          = "yum-token-id"
	faucetTx       = "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	tenAlphAtto    = "10000000000000000000"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMetrics struct {
	mu    sync.Mutex
	cache map[string]int
	ops   map[string]int
}

func (m *recordingMetrics) RecordSwapOperation(operationType, status string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[operationType+":"+status]++
}

func (m *recordingMetrics) RecordCacheOperation(_, operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[operation]++
}

func depositTx(i int) string {
	return fmt.Sprintf("%064x", i)
}

// pausingController hands out the unclaimed batch, then holds the caller until
// resume is closed, leaving it with a snapshot that may go stale.
type pausingController struct {
	controller.IController
	listed chan struct{}
	resume chan struct{}
}

func (c *pausingController) ListSwapRequests(ctx context.Context, filter swaprequest.ListFilter) ([]*model.SwapRequest, int64, error) {
	records, total, err := c.IController.ListSwapRequests(ctx, filter)
	if filter.Unclaimed {
		close(c.listed)
		<-c.resume
	}
	return records, total, err
}

var _ = Describe("Telemetry", func() {
	var (
		ctx       context.Context
		clock     *testClock
		rpc       *mockAlphRPC
		appConfig *config.AppConfig
		ctrl      controller.IController
		tel       *telemetry.Telemetry
		metrics   *recordingMetrics
		seq       int
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = &testClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
		rpc = &mockAlphRPC{}
		metrics = &recordingMetrics{cache: map[string]int{}, ops: map[string]int{}}
		seq = 0

		appConfig = &config.AppConfig{
			Alephium: config.AlephiumConfig{FaucetAddress: faucetAddress},
			Swap: config.SwapConfig{
				DepositAddress: depositAddress,
				Tokens: []config.TokenConfig{
					{Symbol: "YUM", TokenID: yumID, Rate: decimal.NewFromInt(100), Decimals: 0},
				},
				DepositMinConfirmations:     2,
				FulfillmentMinConfirmations: 1,
				DepositTimeout:              time.Hour,
				FulfillmentTimeout:          30 * time.Minute,
				ClaimTimeout:                10 * time.Minute,
				DustAmountAtto:              "1000000000000000",
				BalanceCacheTTL:             time.Minute,
				JobBatchSize:                50,
			},
		}
		ctrl = controller.New(store.NewMemory(), appConfig, logger.NewNop(), controller.WithClock(clock.Now))
		tel = telemetry.New(ctrl, appConfig, logger.NewNop(), rpc,
			telemetry.WithClock(clock.Now),
			telemetry.WithMetrics(metrics),
			telemetry.WithWorkerID("worker-1"),
		)
	})

	AfterEach(func() {
		rpc.AssertExpectations(GinkgoT())
	})

	createPending := func(withDeposit bool) *model.SwapRequest {
		seq++
		input := controller.CreateSwapRequestInput{
			UserAddress: fmt.Sprintf("user-%d", seq),
			TargetToken: "YUM",
			AmountAlph:  decimal.NewFromInt(10),
		}
		if withDeposit {
			tx := depositTx(seq)
			input.DepositTxID = &tx
		}
		r, err := ctrl.CreateSwapRequest(ctx, input)
		Expect(err).NotTo(HaveOccurred())
		return r
	}

	createConfirmed := func() *model.SwapRequest {
		r := createPending(true)
		Expect(ctrl.AdvanceSwapRequest(ctx, r.ID, model.SwapRequestStatusDepositConfirmed, controller.AdvanceFields{})).To(Succeed())
		return r
	}

	reload := func(id string) *model.SwapRequest {
		r, err := ctrl.GetSwapRequest(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		return r
	}

	Describe("ConfirmDeposits", func() {
		It("confirms a deposit that paid the promised amount", func() {
			r := createPending(true)
			rpc.On("TransactionStatus", *r.DepositTxID).Return(confirmed(3), nil).Once()
			rpc.On("TransactionDetails", *r.DepositTxID).Return(paidTo(depositAddress, tenAlphAtto), nil).Once()

			Expect(tel.ConfirmDeposits(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
			Expect(metrics.ops["confirm_deposit:success"]).To(Equal(1))
		})

		It("fails a deposit that paid less than promised", func() {
			r := createPending(true)
			rpc.On("TransactionStatus", *r.DepositTxID).Return(confirmed(3), nil).Once()
			rpc.On("TransactionDetails", *r.DepositTxID).Return(paidTo(depositAddress, "9999999999999999999"), nil).Once()

			Expect(tel.ConfirmDeposits(ctx)).To(Succeed())
			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusFailed))
			Expect(*got.FailureReason).To(Equal("deposit amount below promised amount"))
		})

		It("ignores outputs paid to other addresses", func() {
			r := createPending(true)
			rpc.On("TransactionStatus", *r.DepositTxID).Return(confirmed(3), nil).Once()
			rpc.On("TransactionDetails", *r.DepositTxID).Return(paidTo("someone-else", tenAlphAtto), nil).Once()

			Expect(tel.ConfirmDeposits(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusFailed))
		})

		It("waits for enough confirmations", func() {
			r := createPending(true)
			rpc.On("TransactionStatus", *r.DepositTxID).Return(confirmed(1), nil).Once()

			Expect(tel.ConfirmDeposits(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusPendingDeposit))
			rpc.AssertNotCalled(GinkgoT(), "TransactionDetails", mock.Anything)
		})

		It("leaves mempool transactions pending", func() {
			r := createPending(true)
			rpc.On("TransactionStatus", *r.DepositTxID).Return(&alphrpc.TransactionStatus{Type: alphrpc.TxStatusMemPooled}, nil).Once()

			Expect(tel.ConfirmDeposits(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusPendingDeposit))
		})

		It("skips requests without a deposit transaction", func() {
			r := createPending(false)

			Expect(tel.ConfirmDeposits(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusPendingDeposit))
		})

		It("keeps going when one node call fails", func() {
			broken := createPending(true)
			ok := createPending(true)
			rpc.On("TransactionStatus", *broken.DepositTxID).Return(nil, errors.New("connection refused")).Once()
			rpc.On("TransactionStatus", *ok.DepositTxID).Return(confirmed(2), nil).Once()
			rpc.On("TransactionDetails", *ok.DepositTxID).Return(paidTo(depositAddress, tenAlphAtto), nil).Once()

			err := tel.ConfirmDeposits(ctx)
			Expect(err).To(MatchError(ContainSubstring("connection refused")))
			Expect(reload(broken.ID).Status).To(Equal(model.SwapRequestStatusPendingDeposit))
			Expect(reload(ok.ID).Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
		})

		It("rotates through a backlog larger than one batch", func() {
			appConfig.Swap.JobBatchSize = 2
			stuck := []*model.SwapRequest{createPending(true), createPending(true)}
			clock.Advance(time.Minute)
			paid := createPending(true)
			for _, r := range stuck {
				rpc.On("TransactionStatus", *r.DepositTxID).Return(&alphrpc.TransactionStatus{Type: alphrpc.TxStatusTxNotFound}, nil)
			}
			rpc.On("TransactionStatus", *paid.DepositTxID).Return(confirmed(3), nil).Once()
			rpc.On("TransactionDetails", *paid.DepositTxID).Return(paidTo(depositAddress, tenAlphAtto), nil).Once()

			Expect(tel.ConfirmDeposits(ctx)).To(Succeed())
			Expect(reload(paid.ID).Status).To(Equal(model.SwapRequestStatusPendingDeposit))
			rpc.AssertNotCalled(GinkgoT(), "TransactionStatus", *paid.DepositTxID)

			clock.Advance(time.Minute)
			Expect(tel.ConfirmDeposits(ctx)).To(Succeed())
			Expect(reload(paid.ID).Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
			for _, r := range stuck {
				Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusPendingDeposit))
			}
		})
	})

	Describe("ExpirePendingDeposits", func() {
		It("fails only requests older than the deposit timeout", func() {
			old := createPending(true)
			clock.Advance(2 * time.Hour)
			fresh := createPending(false)

			Expect(tel.ExpirePendingDeposits(ctx)).To(Succeed())

			got := reload(old.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusFailed))
			Expect(*got.FailureReason).To(Equal("deposit timeout"))
			Expect(reload(fresh.ID).Status).To(Equal(model.SwapRequestStatusPendingDeposit))
		})

		It("does not touch requests whose deposit was already confirmed", func() {
			r := createConfirmed()
			clock.Advance(2 * time.Hour)

			Expect(tel.ExpirePendingDeposits(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
		})
	})

	Describe("FulfillSwapRequests", func() {
		expectedTransfer := func(r *model.SwapRequest) alphrpc.Transfer {
			return alphrpc.Transfer{
				ToAddress:      r.UserAddress,
				TokenID:        yumID,
				TokenAmount:    "1000",
				AttoAlphAmount: "1000000000000000",
			}
		}

		It("sends the target tokens and records the faucet transaction", func() {
			r := createConfirmed()
			rpc.On("AddressBalance", faucetAddress).Return(faucetHolding(yumID, "5000"), nil).Once()
			rpc.On("TransferToken", expectedTransfer(r)).Return(faucetTx, nil).Once()

			Expect(tel.FulfillSwapRequests(ctx)).To(Succeed())

			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusFulfilling))
			Expect(*got.FaucetTxID).To(Equal(faucetTx))
			Expect(got.AmountTargetToken.Valid).To(BeTrue())
			Expect(got.AmountTargetToken.Decimal.Equal(decimal.NewFromInt(1000))).To(BeTrue())
		})

		It("reads the faucet balance once per cache window", func() {
			first := createConfirmed()
			second := createConfirmed()
			rpc.On("AddressBalance", faucetAddress).Return(faucetHolding(yumID, "5000"), nil).Once()
			rpc.On("TransferToken", expectedTransfer(first)).Return(faucetTx, nil).Once()
			rpc.On("TransferToken", expectedTransfer(second)).Return("eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee", nil).Once()

			Expect(tel.FulfillSwapRequests(ctx)).To(Succeed())
			Expect(reload(first.ID).Status).To(Equal(model.SwapRequestStatusFulfilling))
			Expect(reload(second.ID).Status).To(Equal(model.SwapRequestStatusFulfilling))
			Expect(metrics.cache["miss"]).To(Equal(1))
			Expect(metrics.cache["hit"]).To(Equal(1))
		})

		It("fails the request when the faucet cannot cover it", func() {
			r := createConfirmed()
			rpc.On("AddressBalance", faucetAddress).Return(faucetHolding(yumID, "999"), nil).Once()

			Expect(tel.FulfillSwapRequests(ctx)).To(Succeed())

			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusFailed))
			Expect(*got.FailureReason).To(Equal("insufficient faucet balance"))
			rpc.AssertNotCalled(GinkgoT(), "TransferToken", mock.Anything)
		})

		It("fails the request when the node rejects the transfer", func() {
			r := createConfirmed()
			rpc.On("AddressBalance", faucetAddress).Return(faucetHolding(yumID, "5000"), nil).Once()
			rpc.On("TransferToken", expectedTransfer(r)).Return("", fmt.Errorf("%w: transfer: not enough balance", alphrpc.ErrRequestRejected)).Once()

			Expect(tel.FulfillSwapRequests(ctx)).To(Succeed())

			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusFailed))
			Expect(*got.FailureReason).To(Equal("transfer rejected by node"))
			Expect(got.FaucetTxID).To(BeNil())
		})

		It("releases the claim when the breaker refused the transfer", func() {
			r := createConfirmed()
			rpc.On("AddressBalance", faucetAddress).Return(faucetHolding(yumID, "5000"), nil).Once()
			rpc.On("TransferToken", expectedTransfer(r)).Return("", gobreaker.ErrOpenState).Once()

			Expect(tel.FulfillSwapRequests(ctx)).To(MatchError(gobreaker.ErrOpenState))

			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
			Expect(got.ClaimedBy).To(BeNil())
		})

		It("releases the claim when the faucet wallet cannot be unlocked", func() {
			r := createConfirmed()
			rpc.On("AddressBalance", faucetAddress).Return(faucetHolding(yumID, "5000"), nil).Once()
			rpc.On("TransferToken", expectedTransfer(r)).Return("", fmt.Errorf("%w: invalid password", alphrpc.ErrWalletUnavailable)).Once()

			Expect(tel.FulfillSwapRequests(ctx)).To(MatchError(alphrpc.ErrWalletUnavailable))

			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
			Expect(got.FailureReason).To(BeNil())
			Expect(got.ClaimedBy).To(BeNil())
		})

		It("keeps paid requests retryable when the node refuses the wallet password", func() {
			r := createConfirmed()
			var transfers int32
			node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				switch req.URL.Path {
				case "/addresses/" + faucetAddress + "/balance":
					json.NewEncoder(w).Encode(faucetHolding(yumID, "5000"))
				case "/wallets/faucet/unlock":
					w.WriteHeader(http.StatusUnauthorized)
					json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid password"})
				default:
					atomic.AddInt32(&transfers, 1)
					w.WriteHeader(http.StatusBadRequest)
					json.NewEncoder(w).Encode(map[string]string{"detail": "unexpected call"})
				}
			}))
			DeferCleanup(node.Close)

			nodeConfig := *appConfig
			nodeConfig.Alephium = config.AlephiumConfig{
				NodeURL:        node.URL,
				FaucetAddress:  faucetAddress,
				WalletName:     "faucet",
				WalletPassword: "rotated",
				RequestTimeout: 2 * time.Second,
			}
			client := alphrpc.New(&nodeConfig, logger.NewNop())
			live := telemetry.New(ctrl, &nodeConfig, logger.NewNop(), client,
				telemetry.WithClock(clock.Now),
				telemetry.WithWorkerID("worker-1"),
			)

			Expect(live.FulfillSwapRequests(ctx)).To(MatchError(alphrpc.ErrWalletUnavailable))

			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
			Expect(got.FailureReason).To(BeNil())
			Expect(got.ClaimedBy).To(BeNil())
			Expect(atomic.LoadInt32(&transfers)).To(Equal(int32(0)))
		})

		It("releases the claim when the faucet balance cannot be read", func() {
			r := createConfirmed()
			rpc.On("AddressBalance", faucetAddress).Return(nil, errors.New("connection refused")).Once()

			Expect(tel.FulfillSwapRequests(ctx)).To(MatchError(ContainSubstring("connection refused")))

			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
			Expect(got.ClaimedBy).To(BeNil())
		})

		It("never fails a request another worker is paying out", func() {
			r := createConfirmed()
			paused := &pausingController{
				IController: ctrl,
				listed:      make(chan struct{}),
				resume:      make(chan struct{}),
			}
			rpc2 := &mockAlphRPC{}
			rpc2.On("AddressBalance", faucetAddress).Return(faucetHolding(yumID, "0"), nil).Maybe()
			rpc2.On("TransferToken", mock.Anything).Return("", errors.New("unexpected transfer")).Maybe()
			slow := telemetry.New(paused, appConfig, logger.NewNop(), rpc2,
				telemetry.WithClock(clock.Now),
				telemetry.WithWorkerID("worker-2"),
			)

			slowDone := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				slowDone <- slow.FulfillSwapRequests(ctx)
			}()
			Eventually(paused.listed).Should(BeClosed())

			rpc.On("AddressBalance", faucetAddress).Return(faucetHolding(yumID, "5000"), nil).Once()
			rpc.On("TransferToken", expectedTransfer(r)).Run(func(mock.Arguments) {
				close(paused.resume)
				Eventually(slowDone).Should(Receive(BeNil()))
			}).Return(faucetTx, nil).Once()

			Expect(tel.FulfillSwapRequests(ctx)).To(Succeed())

			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusFulfilling))
			Expect(got.FailureReason).To(BeNil())
			Expect(*got.FaucetTxID).To(Equal(faucetTx))
			rpc2.AssertNotCalled(GinkgoT(), "TransferToken", mock.Anything)
		})

		It("never resends a transfer whose outcome is unknown", func() {
			r := createConfirmed()
			rpc.On("AddressBalance", faucetAddress).Return(faucetHolding(yumID, "5000"), nil).Once()
			rpc.On("TransferToken", expectedTransfer(r)).Return("", errors.New("timeout: context deadline exceeded")).Once()

			Expect(tel.FulfillSwapRequests(ctx)).To(HaveOccurred())
			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
			Expect(*got.ClaimedBy).To(Equal("worker-1"))

			By("skipping the claimed request on the next run")
			Expect(tel.FulfillSwapRequests(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusDepositConfirmed))

			By("failing it once the claim is stale")
			clock.Advance(11 * time.Minute)
			Expect(tel.FulfillSwapRequests(ctx)).To(Succeed())
			got = reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusFailed))
			Expect(*got.FailureReason).To(Equal("fulfillment interrupted, manual review required"))
		})

		It("skips requests another worker already claimed", func() {
			r := createConfirmed()
			claimed, err := ctrl.ClaimSwapRequest(ctx, r.ID, "worker-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(claimed).To(BeTrue())

			Expect(tel.FulfillSwapRequests(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusDepositConfirmed))
		})
	})

	Describe("ConfirmFulfillments", func() {
		fulfillingWith := func(tx string) *model.SwapRequest {
			r := createConfirmed()
			amount := decimal.NewFromInt(1000)
			Expect(ctrl.AdvanceSwapRequest(ctx, r.ID, model.SwapRequestStatusFulfilling, controller.AdvanceFields{
				AmountTargetToken: &amount,
				FaucetTxID:        &tx,
			})).To(Succeed())
			return r
		}
		fulfilling := func() *model.SwapRequest {
			return fulfillingWith(faucetTx)
		}

		It("completes the request once the faucet tx confirms", func() {
			r := fulfilling()
			rpc.On("TransactionStatus", faucetTx).Return(confirmed(1), nil).Once()

			Expect(tel.ConfirmFulfillments(ctx)).To(Succeed())

			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusCompleted))
			Expect(*got.FaucetTxID).To(Equal(faucetTx))
			Expect(got.AmountTargetToken.Valid).To(BeTrue())
		})

		It("waits while the faucet tx is in the mempool", func() {
			r := fulfilling()
			rpc.On("TransactionStatus", faucetTx).Return(&alphrpc.TransactionStatus{Type: alphrpc.TxStatusMemPooled}, nil).Once()

			Expect(tel.ConfirmFulfillments(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusFulfilling))
		})

		It("fails the request when the faucet tx disappeared for too long", func() {
			r := fulfilling()
			rpc.On("TransactionStatus", faucetTx).Return(&alphrpc.TransactionStatus{Type: alphrpc.TxStatusTxNotFound}, nil).Twice()

			Expect(tel.ConfirmFulfillments(ctx)).To(Succeed())
			Expect(reload(r.ID).Status).To(Equal(model.SwapRequestStatusFulfilling))

			clock.Advance(31 * time.Minute)
			Expect(tel.ConfirmFulfillments(ctx)).To(Succeed())
			got := reload(r.ID)
			Expect(got.Status).To(Equal(model.SwapRequestStatusFailed))
			Expect(*got.FailureReason).To(Equal("fulfillment transaction dropped"))
			Expect(*got.FaucetTxID).To(Equal(faucetTx))
		})

		It("checks every pending payout across runs", func() {
			appConfig.Swap.JobBatchSize = 1
			waiting := fulfilling()
			clock.Advance(time.Minute)
			next := fulfillingWith("eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
			rpc.On("TransactionStatus", faucetTx).Return(&alphrpc.TransactionStatus{Type: alphrpc.TxStatusMemPooled}, nil).Once()
			rpc.On("TransactionStatus", *next.FaucetTxID).Return(confirmed(1), nil).Once()

			Expect(tel.ConfirmFulfillments(ctx)).To(Succeed())
			Expect(reload(next.ID).Status).To(Equal(model.SwapRequestStatusFulfilling))

			clock.Advance(time.Minute)
			Expect(tel.ConfirmFulfillments(ctx)).To(Succeed())
			Expect(reload(next.ID).Status).To(Equal(model.SwapRequestStatusCompleted))
			Expect(reload(waiting.ID).Status).To(Equal(model.SwapRequestStatusFulfilling))
		})
	})
})
