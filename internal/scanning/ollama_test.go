package scanning

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server *ghttp.Server
		ollama *Ollama
		text   string
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var newErr error
		ollama, newErr = NewOllama(server.URL()+"/", "")
		Expect(newErr).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = ollama.Recognize(context.Background(), blankPNG(), MimePNG)
	})

	When("the model transcribes the document", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					body, _ := io.ReadAll(r.Body)
					var req ollamaChatRequest
					Expect(json.Unmarshal(body, &req)).To(Succeed())
					Expect(req.Model).To(Equal("llava"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(HaveLen(1))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: "```\nFROM SEA TO HNL\n```"},
					Done:    true,
				}),
			))
		})

		It("should return the cleaned text", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("FROM SEA TO HNL"))
		})
	})

	When("the model returns nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{Done: true}))
		})

		It("should report ErrNoText", func() {
			Expect(errors.Is(err, ErrNoText)).To(BeTrue())
		})
	})

	When("the server fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("should include the status and body", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 500"))
			Expect(err.Error()).To(ContainSubstring("model not loaded"))
		})
	})
})

var _ = Describe("NewOllama", func() {
	It("should require a base url", func() {
		_, err := NewOllama("", "llava")
		Expect(err).To(HaveOccurred())
	})
})

