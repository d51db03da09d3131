package api_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestOpenAPIDocument(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAPI Document Suite")
}

var _ = Describe("openapi.yml", func() {
	var doc *openapi3.T

	BeforeEach(func() {
		loader := openapi3.NewLoader()
		var err error
		doc, err = loader.LoadFromFile("openapi.yml")
		Expect(err).ToNot(HaveOccurred())
	})

	It("should be a valid OpenAPI 3 document", func() {
		Expect(doc.Validate(context.Background())).To(Succeed())
	})

	It("should describe the purchase flow end to end", func() {
		for _, path := range []string{
			"/items/{id}/checkout",
			"/items/{id}/payment/verify",
			"/items/{id}/download",
			"/purchases",
			"/purchases/{id}/progress",
		} {
			Expect(doc.Paths.Find(path)).ToNot(BeNil(), "missing path %s", path)
		}
	})

	It("should require the verification triple in the verify request", func() {
		op := doc.Paths.Find("/items/{id}/payment/verify").Post
		Expect(op).ToNot(BeNil())
		schema := op.RequestBody.Value.Content.Get("application/json").Schema.Value
		Expect(schema.Required).To(ConsistOf("order_id", "payment_id", "signature"))
	})

	It("should document both denial modes on download", func() {
		op := doc.Paths.Find("/items/{id}/download").Post
		Expect(op).ToNot(BeNil())
		Expect(op.Responses.Status(403)).ToNot(BeNil())
		Expect(op.Responses.Status(404)).ToNot(BeNil())
	})
})
