package bookings

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	referencePrefix   = "BK"
	referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var referencePattern = regexp.MustCompile(`^BK[0-9A-Z]+$`)

// NewReference builds BK + base36(unix millis) + a 5 or 6 character random suffix
func NewReference(now time.Time) (string, error) {
	suffixLen := 5
	n, err := rand.Int(rand.Reader, big.NewInt(2))
	if err != nil {
		return "", err
	}
	suffixLen += int(n.Int64())

	suffix := make([]byte, suffixLen)
	alphabetLen := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}

	stamp := strconv.FormatInt(now.UnixMilli(), 36)
	return strings.ToUpper(referencePrefix + stamp + string(suffix)), nil
}

func IsValidReference(ref string) bool {
	return referencePattern.MatchString(ref)
}
