package ticket

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reaperdwarf/moover/internal/airports"
)

var _ = Describe("Extractor", func() {
	var (
		extractor *Extractor
		text      string
		codes     []string
	)

	BeforeEach(func() {
		extractor = newTestExtractor()
	})

	JustBeforeEach(func() {
		codes = extractor.Codes(text)
	})

	DescribeTable("a standalone valid code is a candidate",
		func(code string) {
			Expect(extractor.Codes("FLIGHT BA117 FROM " + code + " 10:45")).To(ContainElement(code))
		},
		Entry("JFK", "JFK"),
		Entry("LHR", "LHR"),
		Entry("CDG", "CDG"),
		Entry("SEA", "SEA"),
		Entry("HNL", "HNL"),
	)

	DescribeTable("a blocklisted token is never a candidate",
		func(text string) {
			Expect(extractor.Codes(text)).NotTo(ContainElement("FOR"))
			Expect(extractor.Codes(text)).NotTo(ContainElement("ADT"))
		},
		Entry("standalone", "FOR ADT"),
		Entry("packed", "FORADTJFK"),
		Entry("between codes", "JFK FOR LHR ADT"),
	)

	When("codes repeat", func() {
		BeforeEach(func() {
			text = "SEA HNL SEA HNL CDG"
		})

		It("should keep first-occurrence order without duplicates", func() {
			Expect(codes).To(Equal([]string{"SEA", "HNL", "CDG"}))
		})
	})

	When("the text is a packed BCBP payload", func() {
		BeforeEach(func() {
			text = "M1DOE/JANE  EABC123 JFKLHRBA 0123 045Y"
		})

		It("should split the route field into codes", func() {
			Expect(codes).To(Equal([]string{"JFK", "LHR"}))
		})
	})

	When("a blocklisted word contains a code", func() {
		BeforeEach(func() {
			text = "SEAT 12A GATE B4"
		})

		It("should not split the word", func() {
			Expect(codes).To(BeEmpty())
		})
	})

	When("the text is lowercase", func() {
		BeforeEach(func() {
			text = "from jfk to lhr"
		})

		It("should find nothing", func() {
			Expect(codes).To(BeEmpty())
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("should return no codes", func() {
			Expect(codes).To(BeEmpty())
		})
	})

	Describe("Name", func() {
		It("should resolve known codes", func() {
			Expect(extractor.Name("CDG")).To(Equal("Paris, France"))
		})

		It("should return empty for unknown codes", func() {
			Expect(extractor.Name("XYZ")).To(BeEmpty())
			Expect(extractor.Name("")).To(BeEmpty())
		})
	})
})

var _ = Describe("Extractor with the built-in dataset", func() {
	var (
		dataset   *airports.Dataset
		extractor *Extractor
	)

	BeforeEach(func() {
		var err error
		dataset, err = airports.Default()
		Expect(err).NotTo(HaveOccurred())
		extractor = NewExtractor(dataset.Directory, dataset.Blocklist)
	})

	It("should find every unblocked directory code written as its own word", func() {
		for _, code := range dataset.Directory.Codes() {
			if dataset.Blocklist.Contains(code) {
				continue
			}
			Expect(extractor.Codes("FLIGHT BA117 FROM "+code+" 10:45")).To(ContainElement(code), code)
		}
	})

	It("should never return a blocklisted token", func() {
		for _, tok := range dataset.Blocklist.Tokens() {
			codes := extractor.Codes("JFK " + tok + " LHR " + tok + "JFK")
			Expect(codes).NotTo(ContainElement(tok), tok)
		}
	})

	// Uppercase names and words are chunked like codes. These cases pin the
	// known false positives of that heuristic.
	DescribeTable("chunking names and words",
		func(text string, expected []string) {
			Expect(extractor.Codes(text)).To(Equal(expected))
		},
		Entry("passenger name on a boarding pass", "BOARDING PASS MANUEL SANTOS LHR JFK", []string{"MAN", "SAN", "LHR", "JFK"}),
		Entry("city name next to its code", "SAN FRANCISCO SFO", []string{"SAN", "FRA", "SFO"}),
	)

	It("should take a passenger name as the origin", func() {
		origin, destination := ResolveRoute(extractor.Codes("PASSENGER MANUEL SANTOS FROM LHR TO JFK"))
		Expect(origin).To(Equal("MAN"))
		Expect(destination).To(Equal("JFK"))
	})
})
