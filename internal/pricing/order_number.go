package pricing

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber returns ORD-<unix millis>-<6 random base36 chars>.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", strconv.FormatInt(now.UnixMilli(), 10), randomSuffix(6))
}

func randomSuffix(n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			idx = big.NewInt(time.Now().UnixNano() % int64(len(base36)))
		}
		sb.WriteByte(base36[idx.Int64()])
	}
	return sb.String()
}
