package ticket

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reaperdwarf/moover/internal/scanning"
)

const bcbpPayload = "M1DOE/JANE  EABC123 JFKLHRBA 0123 045Y"

var _ = Describe("Pipeline", func() {
	var (
		barcode  *mockRecognizer
		cloud    *mockRecognizer
		local    *mockRecognizer
		cfg      Config
		timeSrc  *mockTimeSource
		pipeline *Pipeline
		ctx      context.Context
		img      RawImage
		result   *Result
		err      error
	)

	BeforeEach(func() {
		barcode = &mockRecognizer{err: scanning.ErrNoBarcode}
		cloud = &mockRecognizer{err: errBackend}
		local = &mockRecognizer{err: scanning.ErrNoText}
		cfg = Config{Barcode: barcode, Cloud: cloud, Local: local}
		timeSrc = &mockTimeSource{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
		ctx = context.Background()
		img = RawImage{Data: []byte("image"), ContentType: "image/png"}
	})

	JustBeforeEach(func() {
		pipeline = NewPipelineWithDeps(newTestExtractor(), cfg, timeSrc)
		result, err = pipeline.Run(ctx, img)
	})

	When("the barcode yields a route", func() {
		BeforeEach(func() {
			barcode.err = nil
			barcode.text = bcbpPayload
		})

		It("should resolve the route through the directory", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Ticket).To(Equal(ParsedTicket{
				Origin:        "New York, United States",
				Destination:   "London, United Kingdom",
				DepartureDate: "2026-10-19",
			}))
		})

		It("should never call the text stages", func() {
			Expect(cloud.calls).To(BeZero())
			Expect(local.calls).To(BeZero())
		})

		It("should report the barcode stage and codes", func() {
			Expect(result.Stage).To(Equal(StageBarcode))
			Expect(result.Codes).To(Equal([]string{"JFK", "LHR"}))
		})
	})

	When("the barcode yields fewer than two codes", func() {
		BeforeEach(func() {
			barcode.err = nil
			barcode.text = "M1DOE/JANE JFK"
			cloud.err = nil
			cloud.text = "FROM SEA TO HNL 15MAR2026"
		})

		It("should fall through to the cloud stage", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.calls).To(Equal(1))
			Expect(result.Stage).To(Equal(StageCloud))
			Expect(result.Ticket).To(Equal(ParsedTicket{
				Origin:        "Seattle, United States",
				Destination:   "Honolulu, United States",
				DepartureDate: "2026-03-15",
			}))
		})

		It("should not call the local stage", func() {
			Expect(local.calls).To(BeZero())
		})
	})

	When("the cloud stage fails", func() {
		BeforeEach(func() {
			local.err = nil
			local.text = "CDG JFK 01/04/2026"
		})

		It("should use the local stage", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.calls).To(Equal(1))
			Expect(local.calls).To(Equal(1))
			Expect(result.Stage).To(Equal(StageLocal))
			Expect(result.Ticket.Origin).To(Equal("Paris, France"))
			Expect(result.Ticket.Destination).To(Equal("New York, United States"))
			Expect(result.Ticket.DepartureDate).To(Equal("2026-04-01"))
		})
	})

	When("the cloud stage returns only whitespace", func() {
		BeforeEach(func() {
			cloud.err = nil
			cloud.text = "  \n "
			local.err = nil
			local.text = "JFK LHR"
		})

		It("should treat it as a failure", func() {
			Expect(result.Stage).To(Equal(StageLocal))
		})
	})

	When("the cloud stage hangs", func() {
		BeforeEach(func() {
			cloud.block = true
			cfg.CloudTimeout = 20 * time.Millisecond
			local.err = nil
			local.text = "JFK LHR"
		})

		It("should time out and fall through to local OCR", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Stage).To(Equal(StageLocal))
			Expect(result.Codes).To(Equal([]string{"JFK", "LHR"}))
		})
	})

	When("no cloud credential is configured", func() {
		BeforeEach(func() {
			cfg.Cloud = nil
			local.err = nil
			local.text = "~~ #%!! 1234 ???"
		})

		It("should return an empty route and today's date", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Ticket).To(Equal(ParsedTicket{DepartureDate: "2026-10-19"}))
		})

		It("should leave the cloud stage out", func() {
			Expect(pipeline.Stages()).To(Equal([]string{StageBarcode, StageLocal}))
		})
	})

	When("every stage fails", func() {
		It("should still return a ticket", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Stage).To(BeEmpty())
			Expect(result.Codes).To(BeEmpty())
			Expect(result.Ticket).To(Equal(ParsedTicket{DepartureDate: "2026-10-19"}))
		})
	})

	When("there is only one code", func() {
		BeforeEach(func() {
			cloud.err = nil
			cloud.text = "DESTINATION LHR"
		})

		It("should leave origin and destination empty", func() {
			Expect(result.Ticket.Origin).To(BeEmpty())
			Expect(result.Ticket.Destination).To(BeEmpty())
		})
	})

	When("no image is provided", func() {
		BeforeEach(func() {
			img = RawImage{ContentType: "image/png"}
		})

		It("should return ErrNoImage", func() {
			Expect(errors.Is(err, ErrNoImage)).To(BeTrue())
			Expect(result).To(BeNil())
		})

		It("should not attempt any stage", func() {
			Expect(barcode.calls).To(BeZero())
		})
	})

	When("the caller cancels mid-flight", func() {
		BeforeEach(func() {
			var cancel context.CancelFunc
			ctx, cancel = context.WithCancel(context.Background())
			cloud.onCall = cancel
			local.err = nil
			local.text = "JFK LHR"
		})

		It("should return the context error", func() {
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(result).To(BeNil())
		})

		It("should not try the next stage", func() {
			Expect(local.calls).To(BeZero())
		})
	})

	When("the same image is parsed twice", func() {
		BeforeEach(func() {
			cloud.err = nil
			cloud.text = "SEA JFK CDG SEA 2026-12-24"
		})

		It("should return identical tickets", func() {
			again, againErr := pipeline.Parse(ctx, img)
			Expect(againErr).NotTo(HaveOccurred())
			Expect(again).To(Equal(result.Ticket))
			Expect(again.Destination).To(Equal("Paris, France"))
		})
	})

	Describe("Stages", func() {
		It("should list the stages in fallback order", func() {
			Expect(pipeline.Stages()).To(Equal([]string{StageBarcode, StageCloud, StageLocal}))
		})
	})

	Describe("Close", func() {
		It("should close every recognizer", func() {
			Expect(pipeline.Close()).To(Succeed())
			Expect(barcode.closed).To(BeTrue())
			Expect(cloud.closed).To(BeTrue())
			Expect(local.closed).To(BeTrue())
		})
	})

	Describe("Scan", func() {
		It("should parse the image from the source", func() {
			cloud.err = nil
			cloud.text = "JFK CDG"
			res, scanErr := pipeline.Scan(ctx, &mockImageSource{img: img})
			Expect(scanErr).NotTo(HaveOccurred())
			Expect(res.Ticket.Destination).To(Equal("Paris, France"))
		})

		It("should wrap source errors", func() {
			_, scanErr := pipeline.Scan(ctx, &mockImageSource{err: errBackend})
			Expect(scanErr).To(MatchError(ContainSubstring("getting image")))
			Expect(errors.Is(scanErr, errBackend)).To(BeTrue())
		})
	})
})
