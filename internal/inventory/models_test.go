package inventory_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/fleet-inventory/internal/inventory"
)

var _ = Describe("UID", func() {
	It("marshals to a quoted decimal string", func() {
		buf, err := json.Marshal(inventory.UID(9007199254740993))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf)).To(Equal(`"9007199254740993"`))
	})

	It("unmarshals from a quoted string", func() {
		var u inventory.UID
		Expect(json.Unmarshal([]byte(`"123456789"`), &u)).To(Succeed())
		Expect(u).To(Equal(inventory.UID(123456789)))
	})

	It("unmarshals from a bare number", func() {
		var u inventory.UID
		Expect(json.Unmarshal([]byte(`42`), &u)).To(Succeed())
		Expect(u).To(Equal(inventory.UID(42)))
	})

	It("rejects non-numeric input", func() {
		var u inventory.UID
		Expect(json.Unmarshal([]byte(`"not-a-uid"`), &u)).NotTo(Succeed())
	})

	Describe("ParseUID", func() {
		It("parses a 19-digit value", func() {
			u, err := inventory.ParseUID("9223372036854775807")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.String()).To(Equal("9223372036854775807"))
		})

		It("rejects values beyond int64 range", func() {
			_, err := inventory.ParseUID("9223372036854775808")
			Expect(err).To(HaveOccurred())
		})

		It("rejects empty input", func() {
			_, err := inventory.ParseUID("")
			Expect(err).To(HaveOccurred())
		})
	})
})
