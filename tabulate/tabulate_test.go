package tabulate

import (
	"context"
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestTabulate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "tabulate Suite")
}

var _ = Describe("Tabulate", func() {
	It("returns an empty result for count 0", func() {
		out, err := Tabulate(context.Background(), 0, func(i int) (interface{}, error) {
			panic("closure should never run for count 0")
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	It("places each result at its own index regardless of completion order", func() {
		out, err := Tabulate(context.Background(), 50, func(i int) (interface{}, error) {
			return i * i, nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(50))
		for i := 0; i < 50; i++ {
			Expect(out[i]).To(Equal(i * i))
		}
	})

	It("surfaces the error from the lowest-indexed failing call", func() {
		_, err := Tabulate(context.Background(), 20, func(i int) (interface{}, error) {
			if i == 5 || i == 10 {
				return nil, fmt.Errorf("boom at %d", i)
			}
			return i, nil
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(Equal("boom at 5"))
	})
})
