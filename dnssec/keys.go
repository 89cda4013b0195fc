package dnssec

import (
	"crypto"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/exp/rand"

	"github.com/poisonlab/poisonlab/zone"
)

const (
	flagsKSK = 257
	flagsZSK = 256

	dnskeyProtocol = 3

	maxSigJitter = 61
)

// Key is a DNSKEY with its private half. The private half never leaves this package.
type Key struct {
	DNSKEY *dns.DNSKEY
	signer crypto.Signer
}

// IsKSK returns true for a key signing key
func (k *Key) IsKSK() bool {
	return k.DNSKEY.Flags&dns.SEP != 0
}

func (k *Key) role() string {
	if k.IsKSK() {
		return "KSK"
	}

	return "ZSK"
}

func generateKey(owner string, ksk bool, algorithm uint8, bits int, ttl uint32) (*Key, error) {
	flags := uint16(flagsZSK)
	if ksk {
		flags = flagsKSK
	}

	k := &dns.DNSKEY{
		Hdr: dns.RR_Header{
			Name:   owner,
			Rrtype: dns.TypeDNSKEY,
			Class:  dns.ClassINET,
			Ttl:    ttl,
		},
		Flags:     flags,
		Protocol:  dnskeyProtocol,
		Algorithm: algorithm,
	}

	priv, err := k.Generate(bits)
	if err != nil {
		return nil, fmt.Errorf("can't generate %s key with %d bits: %w", dns.AlgorithmToString[algorithm], bits, err)
	}

	signer, ok := priv.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("private key of type %T can't sign", priv)
	}

	return &Key{DNSKEY: k, signer: signer}, nil
}

func sigLifetime(t time.Time, validity time.Duration) (uint32, uint32) {
	sigJitter := time.Duration(rand.Intn(maxSigJitter)) * time.Second

	if validity <= 0 {
		validity = 5 * time.Minute
	}

	incep := uint32(t.Add(-sigJitter).Unix())
	expir := uint32(t.Add(validity).Add(sigJitter).Unix())

	return incep, expir
}

func (k *Key) sign(set zone.RRset, signerName string, validity time.Duration, now time.Time) (*dns.RRSIG, error) {
	if len(set.RRs) == 0 {
		return nil, fmt.Errorf("rrset %s has no records", set.Name)
	}

	rrsig := &dns.RRSIG{
		Hdr: dns.RR_Header{
			Name:   set.Name,
			Rrtype: dns.TypeRRSIG,
			Class:  dns.ClassINET,
			Ttl:    set.RRs[0].Header().Ttl,
		},
		KeyTag:     k.DNSKEY.KeyTag(),
		Algorithm:  k.DNSKEY.Algorithm,
		SignerName: signerName,
	}
	rrsig.Inception, rrsig.Expiration = sigLifetime(now.UTC(), validity)

	if err := rrsig.Sign(k.signer, set.RRs); err != nil {
		return nil, fmt.Errorf("can't sign %s %s with keytag %d: %w",
			set.Name, dns.TypeToString[set.Rrtype], rrsig.KeyTag, err)
	}

	return rrsig, nil
}
