package metrics_test

import (
	"errors"
	"fmt"
	"time"

	"code.cloudfoundry.org/lager/v3/lagertest"
	"code.cloudfoundry.org/veneer/metrics"
	"code.cloudfoundry.org/veneer/testhelpers"
	"github.com/cloudfoundry/sonde-go/events"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Emitter", func() {
	var (
		logger *lagertest.TestLogger

		fakeMetronPort   uint16
		fakeMetron       *testhelpers.FakeMetron
		fakeMetronClosed chan struct{}
		emitter          *metrics.Emitter
	)

	BeforeEach(func() {
		logger = lagertest.NewTestLogger("emitter")

		fakeMetronPort = uint16(5000 + GinkgoParallelProcess())

		fakeMetron = testhelpers.NewFakeMetron(fakeMetronPort)
		Expect(fakeMetron.Listen()).To(Succeed())

		var err error
		emitter, err = metrics.NewEmitter(
			fmt.Sprintf("127.0.0.1:%d", fakeMetronPort),
		)
		Expect(err).NotTo(HaveOccurred())

		fakeMetronClosed = make(chan struct{})
		go func() {
			defer GinkgoRecover()
			Expect(fakeMetron.Run()).To(Succeed())
			close(fakeMetronClosed)
		}()
	})

	AfterEach(func() {
		Expect(fakeMetron.Stop()).To(Succeed())
		Eventually(fakeMetronClosed).Should(BeClosed())
	})

	Describe("NewEmitter", func() {
		Context("when the metron endpoint is not provided", func() {
			It("builds a quiet emitter", func() {
				_, err := metrics.NewEmitter("")
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})

	Describe("EmitDuration", func() {
		It("emits a value metric in nanoseconds", func() {
			Expect(emitter.EmitDuration("foo", time.Second)).To(Succeed())

			var fooMetrics []events.ValueMetric
			Eventually(func() []events.ValueMetric {
				fooMetrics = fakeMetron.ValueMetricsFor("foo")
				return fooMetrics
			}).Should(HaveLen(1))

			Expect(*fooMetrics[0].Name).To(Equal("foo"))
			Expect(*fooMetrics[0].Unit).To(Equal("nanos"))
			Expect(*fooMetrics[0].Value).To(Equal(float64(time.Second)))
		})
	})

	Describe("TryEmitDurationFrom", func() {
		It("emits the elapsed time", func() {
			emitter.TryEmitDurationFrom(logger, "ApplyTime", time.Now().Add(-time.Minute))

			var applyMetrics []events.ValueMetric
			Eventually(func() []events.ValueMetric {
				applyMetrics = fakeMetron.ValueMetricsFor("ApplyTime")
				return applyMetrics
			}).Should(HaveLen(1))

			Expect(*applyMetrics[0].Unit).To(Equal("nanos"))
			Expect(*applyMetrics[0].Value).To(BeNumerically(">=", float64(time.Minute)))
		})
	})

	Describe("TryIncrementRunCount", func() {
		It("counts successful runs", func() {
			emitter.TryIncrementRunCount(logger, "apply", nil)

			Eventually(func() []events.CounterEvent {
				return fakeMetron.CounterEvents("veneer-apply.run")
			}).Should(HaveLen(1))
			Eventually(func() []events.CounterEvent {
				return fakeMetron.CounterEvents("veneer-apply.run.success")
			}).Should(HaveLen(1))
		})

		It("counts failed runs", func() {
			emitter.TryIncrementRunCount(logger, "apply", errors.New("boom"))

			Eventually(func() []events.CounterEvent {
				return fakeMetron.CounterEvents("veneer-apply.run")
			}).Should(HaveLen(1))
			Eventually(func() []events.CounterEvent {
				return fakeMetron.CounterEvents("veneer-apply.run.fail")
			}).Should(HaveLen(1))
		})
	})

	Describe("TryEmitError", func() {
		It("emits an error event with the command source", func() {
			emitter.TryEmitError(logger, "apply", errors.New("layer exploded"), 255)

			var errorEvents []events.Error
			Eventually(func() []events.Error {
				errorEvents = fakeMetron.Errors()
				return errorEvents
			}).Should(HaveLen(1))

			Expect(*errorEvents[0].Source).To(Equal("veneer-error.apply"))
			Expect(*errorEvents[0].Code).To(Equal(int32(255)))
			Expect(*errorEvents[0].Message).To(Equal("layer exploded"))
		})
	})
})
