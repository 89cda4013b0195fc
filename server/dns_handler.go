package server

import (
	"context"
	"net"

	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/util"
)

// OnRequest answers a DNS request from the victim resolver
func (s *Server) OnRequest(w dns.ResponseWriter, request *dns.Msg) {
	ctx, reqLogger := log.NewCtx(context.Background(), logger().WithField("client_ip", resolveClientIP(w.RemoteAddr())))
	reqLogger.Debug("new request")

	response := s.answer(ctx, request)

	// truncate if necessary
	response.Truncate(getMaxResponseSize(w.LocalAddr().Network(), request))

	// enable compression
	response.Compress = true

	err := w.WriteMsg(response)
	util.LogOnError("can't write message: ", err)
}

// answer resolves the question of request through the lab's resolver. Only A questions are answered
// with records, other types get an empty answer.
func (s *Server) answer(ctx context.Context, request *dns.Msg) *dns.Msg {
	response := new(dns.Msg)

	if len(request.Question) != 1 {
		return response.SetRcode(request, dns.RcodeFormatError)
	}

	response.SetReply(request)
	response.RecursionAvailable = request.RecursionDesired

	q := request.Question[0]
	if q.Qtype != dns.TypeA || q.Qclass != dns.ClassINET {
		return response
	}

	res, err := s.lab.Resolve(ctx, q.Name)
	if err != nil {
		log.FromCtx(ctx).WithField("question", util.QuestionToString(request.Question)).
			Warn("can't resolve: ", err)

		return response.SetRcode(request, dns.RcodeServerFailure)
	}

	if res.IP == nil {
		return response.SetRcode(request, dns.RcodeNameError)
	}

	response.AuthenticatedData = res.Authenticated
	response.Answer = append(response.Answer, &dns.A{
		Hdr: dns.RR_Header{
			Name:   q.Name,
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    s.cfg.Lab.RecordTTL,
		},
		A: res.IP,
	})

	return response
}

// returns EDNS UDP size or if not present, 512 for UDP and 64K for TCP
func getMaxResponseSize(network string, request *dns.Msg) int {
	edns := request.IsEdns0()
	if edns != nil && edns.UDPSize() > 0 {
		return int(edns.UDPSize())
	}

	if network == "tcp" {
		return dns.MaxMsgSize
	}

	return dns.MinMsgSize
}

// OnHealthCheck Handler for docker health check. Just returns OK code without asking the resolver
func (s *Server) OnHealthCheck(w dns.ResponseWriter, request *dns.Msg) {
	resp := new(dns.Msg)
	resp.SetReply(request)
	resp.Rcode = dns.RcodeSuccess

	err := w.WriteMsg(resp)
	util.LogOnError("can't write message: ", err)
}

func resolveClientIP(addr net.Addr) net.IP {
	switch t := addr.(type) {
	case *net.UDPAddr:
		return t.IP
	case *net.TCPAddr:
		return t.IP
	}

	return nil
}
