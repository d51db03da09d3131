package entitlement_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/courseloop/courseloop/internal"
	"github.com/courseloop/courseloop/internal/entitlement"
)

var _ = Describe("Verifier", func() {
	var verifier *entitlement.Verifier

	BeforeEach(func() {
		verifier = entitlement.NewVerifier(map[string]string{
			"razorpay": testRazorpaySecret,
		})
	})

	Context("when the signature matches", func() {
		It("should accept", func() {
			sig := sign(testRazorpaySecret, "order_1", "pay_1")
			err := verifier.Verify("razorpay", "order_1", "pay_1", sig)
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Context("when the payment id was swapped", func() {
		It("should reject", func() {
			sig := sign(testRazorpaySecret, "order_1", "pay_1")
			err := verifier.Verify("razorpay", "order_1", "pay_2", sig)
			Expect(err).To(MatchError(apperrors.ErrInvalidSignature))
		})
	})

	Context("when the signature was produced with another secret", func() {
		It("should reject", func() {
			sig := sign("leaked-or-wrong", "order_1", "pay_1")
			err := verifier.Verify("razorpay", "order_1", "pay_1", sig)
			Expect(err).To(MatchError(apperrors.ErrInvalidSignature))
		})
	})

	Context("when the gateway is unknown", func() {
		It("should reject like any forgery", func() {
			sig := sign(testRazorpaySecret, "order_1", "pay_1")
			err := verifier.Verify("stripe", "order_1", "pay_1", sig)
			Expect(err).To(MatchError(apperrors.ErrInvalidSignature))
		})
	})

	Context("when any field is empty", func() {
		It("should report missing verification data", func() {
			sig := sign(testRazorpaySecret, "order_1", "pay_1")

			Expect(verifier.Verify("razorpay", "", "pay_1", sig)).
				To(MatchError(apperrors.ErrMissingVerificationData))
			Expect(verifier.Verify("razorpay", "order_1", "", sig)).
				To(MatchError(apperrors.ErrMissingVerificationData))
			Expect(verifier.Verify("razorpay", "order_1", "pay_1", "")).
				To(MatchError(apperrors.ErrMissingVerificationData))
		})
	})
})
