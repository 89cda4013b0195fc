package util

import (
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/log"
)

func AnswerToString(answer []dns.RR) string {
	answers := make([]string, len(answer))

	for i, record := range answer {
		switch v := record.(type) {
		case *dns.A:
			answers[i] = fmt.Sprintf("A (%s)", v.A)
		case *dns.NS:
			answers[i] = fmt.Sprintf("NS (%s)", v.Ns)
		case *dns.RRSIG:
			answers[i] = fmt.Sprintf("RRSIG (%s keytag=%d)", dns.TypeToString[v.TypeCovered], v.KeyTag)
		case *dns.DNSKEY:
			answers[i] = fmt.Sprintf("DNSKEY (flags=%d keytag=%d)", v.Flags, v.KeyTag())
		default:
			answers[i] = fmt.Sprint(record)
		}
	}

	return strings.Join(answers, ", ")
}

func QuestionToString(questions []dns.Question) string {
	result := make([]string, len(questions))
	for i, question := range questions {
		result[i] = fmt.Sprintf("%s (%s)", dns.TypeToString[question.Qtype], question.Name)
	}

	return strings.Join(result, ", ")
}

// FirstA returns the address of the first A record in the answer section
func FirstA(msg *dns.Msg) net.IP {
	if msg == nil {
		return nil
	}

	for _, rr := range msg.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A
		}
	}

	return nil
}

func NewMsgWithQuestion(question string, mType uint16) *dns.Msg {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(question), mType)

	return msg
}

func NewMsgWithAnswer(answer string) (*dns.Msg, error) {
	rr, err := dns.NewRR(answer)
	if err != nil {
		return nil, err
	}

	msg := new(dns.Msg)
	msg.Answer = []dns.RR{rr}

	return msg, nil
}

// LogOnError logs the message only if error is not nil
func LogOnError(message string, err error) {
	if err != nil {
		log.Log().Error(message, err)
	}
}

// LogOnErrorWithEntry logs the message only if error is not nil
func LogOnErrorWithEntry(logEntry interface{ Error(args ...interface{}) }, message string, err error) {
	if err != nil {
		logEntry.Error(message, err)
	}
}

// FatalOnError logs the message only if error is not nil and exits the program execution
func FatalOnError(message string, err error) {
	if err != nil {
		log.Log().Fatal(message, err)
	}
}
