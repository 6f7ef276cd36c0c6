package service

import (
	"crypto/rand"
	"time"
)

// Ambiguous glyphs (0/O, 1/I) are left out because customers type the
// number into a bank transfer memo.
const orderNumberAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const orderNumberRandomLen = 10

var kst = time.FixedZone("KST", 9*60*60)

type OrderNumberGenerator interface {
	Generate(now time.Time) (string, error)
}

type randomOrderNumber struct{}

func NewOrderNumberGenerator() OrderNumberGenerator {
	return randomOrderNumber{}
}

// Generate returns LM<yyMMdd>-<10 random symbols>, e.g. LM261016-7KQ2XH9MAP.
func (randomOrderNumber) Generate(now time.Time) (string, error) {
	buf := make([]byte, orderNumberRandomLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, 0, 9+orderNumberRandomLen)
	out = append(out, "LM"...)
	out = now.In(kst).AppendFormat(out, "060102")
	out = append(out, '-')
	for _, b := range buf {
		out = append(out, orderNumberAlphabet[int(b)%len(orderNumberAlphabet)])
	}
	return string(out), nil
}
