package report

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// DigestToQR renders a hex digest as a QR code PNG. The digest is upper
// cased so the code fits the denser alphanumeric mode.
func DigestToQR(digest string, size int) ([]byte, error) {
	normalized := normalizeDigest(digest)
	if normalized == "" {
		return nil, fmt.Errorf("digest is empty")
	}
	if size <= 0 {
		size = 128
	}
	return qrcode.Encode(normalized, qrcode.Medium, size)
}

func normalizeDigest(digest string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(digest)) {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
