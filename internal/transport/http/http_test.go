package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/alph-swap-backend/internal/controller"
	"github.com/dwarvesf/alph-swap-backend/internal/handler"
	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/monitoring"
	"github.com/dwarvesf/alph-swap-backend/internal/store"
	transport "github.com/dwarvesf/alph-swap-backend/internal/transport/http"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
	"github.com/dwarvesf/alph-swap-backend/internal/view"
)

var _ = Describe("Swap API", func() {
	var (
		router    *gin.Engine
		ctrl      controller.IController
		appConfig *config.AppConfig
		registry  *prometheus.Registry
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	initiate := func(body string) view.InitiateSwapResponse {
		w := do(http.MethodPost, "/api/swap/initiate", body)
		Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())
		var resp view.InitiateSwapResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	BeforeEach(func() {
		appConfig = &config.AppConfig{
			Store: config.StoreConfig{Driver: config.StoreDriverMemory},
			Swap: config.SwapConfig{
				DepositAddress: "deposit-address",
				Tokens: []config.TokenConfig{
					{Symbol: "YUM", TokenID: "yum-id", Rate: decimal.NewFromInt(100), Decimals: 0},
				},
			},
		}
		log := logger.NewNop()
		ctrl = controller.New(store.NewMemory(), appConfig, log)

		registry = prometheus.NewRegistry()
		httpMetrics := monitoring.NewHTTPMetrics()
		httpMetrics.MustRegister(registry)

		h := handler.New(appConfig, log, handler.Deps{
			Controller:      ctrl,
			MetricsRegistry: registry,
			MetricsRecorder: monitoring.NewBusinessMetricsRecorder(httpMetrics),
		})
		router = transport.NewHttpServer(appConfig, log, h, httpMetrics)
	})

	Describe("POST /api/swap/initiate", func() {
		It("creates a pending request that status reports back", func() {
			created := initiate(`{"targetToken":"YUM","amountAlph":10,"userAddress":"addr1"}`)
			Expect(created.SwapID).NotTo(BeEmpty())
			Expect(created.DepositAddress).To(Equal("deposit-address"))

			w := do(http.MethodGet, "/api/swap/status/"+created.SwapID, "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var status map[string]interface{}
			Expect(json.Unmarshal(w.Body.Bytes(), &status)).To(Succeed())
			Expect(status["swapId"]).To(Equal(created.SwapID))
			Expect(status["status"]).To(Equal("PENDING_DEPOSIT"))
			Expect(status["targetToken"]).To(Equal("YUM"))
			Expect(status["amountAlph"]).To(BeNumerically("==", 10))
			Expect(status).To(HaveKey("timestamp"))
			Expect(status).NotTo(HaveKey("faucetTxId"))
		})

		It("rejects a negative amount naming the field", func() {
			w := do(http.MethodPost, "/api/swap/initiate", `{"targetToken":"YUM","amountAlph":-5,"userAddress":"addr1"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("amountAlph"))

			var resp view.ErrorResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Message).To(Equal("Invalid request body"))
		})

		It("rejects unsupported tokens and unknown fields", func() {
			Expect(do(http.MethodPost, "/api/swap/initiate",
				`{"targetToken":"NOPE","amountAlph":1,"userAddress":"addr1"}`).Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodPost, "/api/swap/initiate",
				`{"targetToken":"YUM","amountAlph":1,"userAddress":"addr1","rate":1000}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("fails with 500 when no deposit address is configured", func() {
			appConfig.Swap.DepositAddress = ""

			w := do(http.MethodPost, "/api/swap/initiate", `{"targetToken":"YUM","amountAlph":1,"userAddress":"addr1"}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).NotTo(ContainSubstring("SWAP_DEPOSIT_ADDRESS"))
		})

		It("answers other methods with 405", func() {
			w := do(http.MethodGet, "/api/swap/initiate", "")

			Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
			Expect(w.Header().Get("Allow")).To(Equal(http.MethodPost))
		})
	})

	Describe("GET /api/swap/status/:swapId", func() {
		It("returns 404 naming the unknown id", func() {
			w := do(http.MethodGet, "/api/swap/status/does-not-exist", "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(w.Body.String()).To(ContainSubstring("does-not-exist"))
		})

		It("returns 400 for an overlong id", func() {
			w := do(http.MethodGet, "/api/swap/status/"+strings.Repeat("x", 65), "")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("includes the history when asked", func() {
			created := initiate(`{"targetToken":"YUM","amountAlph":2,"userAddress":"addr1"}`)
			reason := "deposit timeout"
			Expect(ctrl.AdvanceSwapRequest(context.Background(), created.SwapID, model.SwapRequestStatusFailed,
				controller.AdvanceFields{FailureReason: &reason, Reason: reason})).To(Succeed())

			w := do(http.MethodGet, "/api/swap/status/"+created.SwapID+"?history=true", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var status view.SwapStatusResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &status)).To(Succeed())
			Expect(status.Status).To(Equal("FAILED"))
			Expect(*status.FailureReason).To(Equal(reason))
			Expect(status.History).To(HaveLen(1))
			Expect(status.History[0].From).To(Equal("PENDING_DEPOSIT"))
			Expect(status.History[0].To).To(Equal("FAILED"))
		})

		It("answers other methods with 405", func() {
			w := do(http.MethodPost, "/api/swap/status/abc", "")

			Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
			Expect(w.Header().Get("Allow")).To(Equal(http.MethodGet))
		})
	})

	Describe("POST /api/swap/deposit/:swapId", func() {
		It("attaches a deposit once and conflicts afterwards", func() {
			created := initiate(`{"targetToken":"YUM","amountAlph":2,"userAddress":"addr1"}`)
			body := `{"depositTxId":"` + strings.Repeat("ab", 32) + `"}`

			Expect(do(http.MethodPost, "/api/swap/deposit/"+created.SwapID, body).Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodPost, "/api/swap/deposit/"+created.SwapID, body).Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("GET /api/swap/history", func() {
		It("lists the requests of one user newest first", func() {
			first := initiate(`{"targetToken":"YUM","amountAlph":1,"userAddress":"addr1"}`)
			initiate(`{"targetToken":"YUM","amountAlph":1,"userAddress":"addr2"}`)

			w := do(http.MethodGet, "/api/swap/history?userAddress=addr1", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp view.SwapHistoryResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Total).To(Equal(int64(1)))
			Expect(resp.Swaps).To(HaveLen(1))
			Expect(resp.Swaps[0].SwapID).To(Equal(first.SwapID))
		})
	})

	Describe("operational endpoints", func() {
		It("serves health, token and metrics endpoints", func() {
			Expect(do(http.MethodGet, "/healthz", "").Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodGet, "/api/v1/health/db", "").Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodGet, "/api/swap/tokens", "").Body.String()).To(ContainSubstring(`"symbol":"YUM"`))

			initiate(`{"targetToken":"YUM","amountAlph":1,"userAddress":"addr1"}`)
			w := do(http.MethodGet, "/metrics", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("alph_swap_http_requests_total"))
		})
	})
})
