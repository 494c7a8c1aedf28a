package registry_test

import (
	"os"

	"code.cloudfoundry.org/veneer/registry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var reg *registry.Registry

	BeforeEach(func() {
		reg = registry.New()
	})

	AfterEach(func() {
		Expect(os.Unsetenv("VENEER_ROOTFS")).To(Succeed())
		Expect(os.Unsetenv("VENEER_LOG_LEVEL")).To(Succeed())
	})

	It("reads settings from prefixed environment variables", func() {
		Expect(os.Setenv("VENEER_ROOTFS", "/var/lib/rootfs")).To(Succeed())

		Expect(reg.Get(registry.RootfsSetting)).To(Equal("/var/lib/rootfs"))
	})

	It("returns the empty string for unset settings", func() {
		Expect(reg.Get(registry.RootfsSetting)).To(BeEmpty())
	})

	It("distinguishes unset settings from empty ones", func() {
		_, found := reg.Lookup(registry.RootfsSetting)
		Expect(found).To(BeFalse())

		Expect(os.Setenv("VENEER_ROOTFS", "")).To(Succeed())

		value, found := reg.Lookup(registry.RootfsSetting)
		Expect(found).To(BeTrue())
		Expect(value).To(BeEmpty())
	})

	It("normalizes setting names to environment variable form", func() {
		Expect(os.Setenv("VENEER_LOG_LEVEL", "debug")).To(Succeed())

		Expect(reg.Get("log-level")).To(Equal("debug"))
		Expect(reg.Get("Log_Level")).To(Equal("debug"))
		Expect(registry.Key("log-level")).To(Equal("VENEER_LOG_LEVEL"))
	})
})
