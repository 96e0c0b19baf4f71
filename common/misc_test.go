package common_test

import (
	"formflow/common"
	"os"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Misc", func() {
	Describe("NextId", func() {
		It("should generate distinct ids", func() {
			worker := common.NewIdWorker()
			Expect(worker).ToNot(BeNil())
			id1 := common.NextId(worker)
			id2 := common.NextId(worker)
			Expect(id1).ToNot(BeZero())
			Expect(id2).ToNot(Equal(id1))
		})
	})

	Describe("EnvInt and EnvDuration", func() {
		AfterEach(func() {
			os.Unsetenv("COMMON_TEST_VALUE")
		})

		It("should return default value when variable is absent or malformed", func() {
			Expect(common.EnvInt("COMMON_TEST_VALUE", 3)).To(Equal(3))
			Expect(common.EnvDuration("COMMON_TEST_VALUE", time.Second)).To(Equal(time.Second))

			os.Setenv("COMMON_TEST_VALUE", "abc")
			Expect(common.EnvInt("COMMON_TEST_VALUE", 3)).To(Equal(3))
			Expect(common.EnvDuration("COMMON_TEST_VALUE", time.Second)).To(Equal(time.Second))
		})

		It("should parse variable when present", func() {
			os.Setenv("COMMON_TEST_VALUE", "5")
			Expect(common.EnvInt("COMMON_TEST_VALUE", 3)).To(Equal(5))
			os.Setenv("COMMON_TEST_VALUE", "250ms")
			Expect(common.EnvDuration("COMMON_TEST_VALUE", time.Second)).To(Equal(250 * time.Millisecond))
		})
	})

	Describe("GetServiceName", func() {
		It("should use default name when SERVICE_NAME is absent", func() {
			os.Unsetenv("SERVICE_NAME")
			Expect(common.GetServiceName()).To(Equal("formflow"))
		})
	})
})
