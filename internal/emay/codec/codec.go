package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmehdipour/emay-gateway/internal/emay/crypt"
)

var ErrEncode = errors.New("codec: encode outbound failed")

// EncodeOutbound turns v into an encrypted frame: JSON -> gzip -> AES.
func EncodeOutbound(v any, key []byte) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", ErrEncode, err)
	}

	z, err := crypt.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	frame, err := crypt.Encrypt(z, crypt.NormalizeKey(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return frame, nil
}

// DecodeInbound reverses EncodeOutbound into out.
func DecodeInbound(body, key []byte, out any) error {
	z, err := crypt.Decrypt(body, crypt.NormalizeKey(key))
	if err != nil {
		return err
	}

	raw, err := crypt.Decompress(z)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}
