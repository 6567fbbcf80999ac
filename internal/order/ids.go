package order

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
	idSuffixLen   = 9
	numberPrefix  = "HRC"
	numberModulus = 1000
)

// newID renders order_<epoch millis>_<9 base36 chars>.
func newID(now time.Time, rnd *rand.Rand) string {
	var b strings.Builder
	b.WriteString("order_")
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('_')
	for range idSuffixLen {
		b.WriteByte(base36[rnd.IntN(len(base36))])
	}
	return b.String()
}

// newNumber renders HRC-YYYYMM-NNN with a random three-digit suffix.
func newNumber(now time.Time, rnd *rand.Rand) string {
	return fmt.Sprintf("%s-%04d%02d-%03d", numberPrefix, now.Year(), int(now.Month()), rnd.IntN(numberModulus))
}
