package checkout

import (
	"github.com/skip2/go-qrcode"
)

type QRRenderer interface {
	Render(payload string) ([]byte, error)
}

// PixQRRenderer turns the payment service's PIX copy-paste payload into
// a PNG for the success screen.
type PixQRRenderer struct {
	Size int
}

func (r PixQRRenderer) Render(payload string) ([]byte, error) {
	size := r.Size
	if size == 0 {
		size = 256
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
