package logger

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ = Describe("Logger Environment", func() {
	DescribeTable("level, encoding and outputs",
		func(build func() zap.Config, level zapcore.Level, encoding string, outputs, errorOutputs []string) {
			cfg := build()

			Expect(cfg.Level.Level()).To(Equal(level))
			Expect(cfg.Encoding).To(Equal(encoding))
			Expect(cfg.OutputPaths).To(ConsistOf(outputs))
			Expect(cfg.ErrorOutputPaths).To(ConsistOf(errorOutputs))
		},
		Entry("production", newProductionLoggerConfig, zap.InfoLevel, "json", []string{"stdout"}, []string{"stderr"}),
		Entry("staging", newStagingLoggerConfig, zap.InfoLevel, "json", []string{"stdout"}, []string{"stderr"}),
		Entry("development", newDevelopmentLoggerConfig, zap.DebugLevel, "console", []string{"stdout"}, []string{"stderr"}),
		Entry("test", newTestLoggerConfig, zap.InfoLevel, "json", []string{}, []string{}),
	)

	Describe("#newProductionLoggerConfig", func() {
		It("stamps ISO8601 timestamps under the timestamp key", func() {
			cfg := newProductionLoggerConfig()

			Expect(cfg.EncoderConfig.TimeKey).To(Equal("timestamp"))
			Expect(cfg.EncoderConfig.EncodeTime).NotTo(BeNil())
			Expect(cfg.Sampling).NotTo(BeNil())
			Expect(cfg.DisableCaller).To(BeFalse())
		})
	})

	Describe("#newStagingLoggerConfig", func() {
		It("drops caller and stack traces but keeps the production encoder", func() {
			cfg := newStagingLoggerConfig()

			Expect(cfg.DisableCaller).To(BeTrue())
			Expect(cfg.DisableStacktrace).To(BeTrue())
			Expect(cfg.EncoderConfig.TimeKey).To(Equal("timestamp"))
		})
	})

	Describe("#newDevelopmentLoggerConfig", func() {
		It("is a development config without caller noise", func() {
			cfg := newDevelopmentLoggerConfig()

			Expect(cfg.Development).To(BeTrue())
			Expect(cfg.DisableCaller).To(BeTrue())
			Expect(cfg.DisableStacktrace).To(BeTrue())
		})
	})

	Describe("#newTestLoggerConfig", func() {
		It("disables sampling so every test log line is kept", func() {
			cfg := newTestLoggerConfig()

			Expect(cfg.Sampling).To(BeNil())
			Expect(cfg.Development).To(BeFalse())
		})

		It("builds a logger that writes nowhere", func() {
			l, err := newTestLoggerConfig().Build()
			Expect(err).NotTo(HaveOccurred())

			l.Info("dropped")
			Expect(l.Sync()).To(Succeed())
		})
	})
})
