package zone

import (
	"errors"

	"github.com/creasty/defaults"
	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var (
		sut *Store
		cfg config.Lab
	)

	fakeSign := func(set RRset) ([]*dns.RRSIG, error) {
		return []*dns.RRSIG{{
			Hdr:         dns.RR_Header{Name: set.Name, Rrtype: dns.TypeRRSIG, Class: dns.ClassINET},
			TypeCovered: set.Rrtype,
			KeyTag:      42,
		}}, nil
	}

	BeforeEach(func() {
		Expect(defaults.Set(&cfg)).Should(Succeed())
		sut = NewStore(cfg)
	})

	Describe("unsigned zone", func() {
		It("should contain the lab records", func() {
			Expect(sut.Origin()).Should(Equal("example.com."))

			set, ok := sut.Lookup("WWW.example.com", dns.TypeA)
			Expect(ok).Should(BeTrue())
			Expect(set.RRs).Should(HaveLen(1))
			Expect(set.RRs[0].(*dns.A).A.String()).Should(Equal("10.0.1.20"))
			Expect(set.RRs[0].Header().Ttl).Should(BeNumerically("==", 300))
			Expect(set.Signed()).Should(BeFalse())

			soa, ok := sut.Lookup("example.com.", dns.TypeSOA)
			Expect(ok).Should(BeTrue())
			Expect(soa.RRs[0].(*dns.SOA).Serial).Should(BeNumerically("==", 2024111901))
			Expect(soa.RRs[0].(*dns.SOA).Mbox).Should(Equal("admin.example.com."))

			Expect(sut.Records()).Should(ConsistOf(
				HaveField("Name", "ns1.example.com."),
				HaveField("Name", "www.example.com."),
			))
			Expect(sut.Signed()).Should(BeFalse())
			Expect(sut.DNSKEYs()).Should(BeEmpty())
		})

		It("should know its names", func() {
			Expect(sut.Contains("www.example.com.")).Should(BeTrue())
			Expect(sut.Contains("www.example.org.")).Should(BeFalse())

			_, ok := sut.Lookup("mail.example.com.", dns.TypeA)
			Expect(ok).Should(BeFalse())
		})

		It("should return copies", func() {
			set, _ := sut.Lookup("www.example.com.", dns.TypeA)
			set.RRs[0].(*dns.A).A[3] = 99

			again, _ := sut.Lookup("www.example.com.", dns.TypeA)
			Expect(again.RRs[0].(*dns.A).A.String()).Should(Equal("10.0.1.20"))
		})
	})

	Describe("signing", func() {
		BeforeEach(func() {
			sut.PublishDNSKEYs(&dns.DNSKEY{
				Hdr:       dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET, Ttl: 300},
				Flags:     257,
				Protocol:  3,
				Algorithm: dns.ECDSAP256SHA256,
				PublicKey: "AAAA",
			})

			Expect(sut.Sign(fakeSign)).Should(Succeed())
		})

		It("should attach signatures to every set and bump the serial", func() {
			for _, set := range sut.RRsets() {
				Expect(set.RRSIGs).Should(HaveLen(1), set.Name)
				Expect(set.RRSIGs[0].TypeCovered).Should(Equal(set.Rrtype))
			}

			Expect(sut.Signed()).Should(BeTrue())
			Expect(sut.Serial()).Should(BeNumerically("==", 2024111902))
			Expect(sut.DNSKEYs()).Should(HaveLen(1))
			Expect(sut.Records()).Should(HaveEach(HaveField("Signed", true)))
		})

		It("should drop signatures and keys on unsign", func() {
			sut.Unsign()

			Expect(sut.Signed()).Should(BeFalse())
			Expect(sut.DNSKEYs()).Should(BeEmpty())
			Expect(sut.Serial()).Should(BeNumerically("==", 2024111903))
		})

		It("should keep the previous signatures if signing fails", func() {
			err := sut.Sign(func(set RRset) ([]*dns.RRSIG, error) {
				if set.Rrtype == dns.TypeNS {
					return nil, errors.New("boom")
				}

				return nil, nil
			})
			Expect(err).Should(MatchError(ContainSubstring("boom")))

			set, _ := sut.Lookup("www.example.com.", dns.TypeA)
			Expect(set.RRSIGs).Should(HaveLen(1))
		})

		It("should restore the lab zone on reset", func() {
			sut.Reset()

			Expect(sut.Signed()).Should(BeFalse())
			Expect(sut.DNSKEYs()).Should(BeEmpty())
			Expect(sut.Serial()).Should(BeNumerically("==", 2024111901))
		})
	})

	When("zone is derived from another victim", func() {
		It("should build records below the apex", func() {
			cfg.VictimDomain = "shop.example.org."

			sut = NewStore(cfg)

			Expect(sut.Origin()).Should(Equal("example.org."))
			_, ok := sut.Lookup("ns1.example.org.", dns.TypeA)
			Expect(ok).Should(BeTrue())
		})
	})
})
