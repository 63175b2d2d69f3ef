package identity

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// NormalizeAddress validates an Ethereum address and returns its
// EIP-55 checksum form. Lookups always use the normalized form so the
// same wallet never resolves to two users.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return "", fmt.Errorf("address must start with 0x")
	}
	hexPart := strings.ToLower(addr[2:])
	if len(hexPart) != 40 {
		return "", fmt.Errorf("address must be 20 bytes")
	}
	for _, c := range hexPart {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("address contains non-hex character %q", c)
		}
	}

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(hexPart))
	sum := hash.Sum(nil)

	out := make([]byte, 40)
	for i := 0; i < 40; i++ {
		c := hexPart[i]
		if c >= 'a' && c <= 'f' {
			nibble := sum[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}
	return "0x" + string(out), nil
}
