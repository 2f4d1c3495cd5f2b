package utils

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

var (
	ErrNoSigningKey     = errors.New("no signing key provided")
	ErrInvalidSignature = errors.New("invalid payload signature")
	ErrPayloadMismatch  = errors.New("signature does not cover payload")
)

// SignPayload returns a compact HS256 JWS whose payload is body, keyed by
// secret. go-jose rejects HMAC keys shorter than 32 bytes.
func SignPayload(body, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSigningKey
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: secret}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}
	obj, err := signer.Sign(body)
	if err != nil {
		return "", fmt.Errorf("failed to sign payload: %w", err)
	}
	return obj.CompactSerialize()
}

// VerifyPayload checks that signature is a valid HS256 JWS over exactly body.
// Webhook receivers can use it to authenticate callbacks.
func VerifyPayload(signature string, body, secret []byte) error {
	if len(secret) == 0 {
		return ErrNoSigningKey
	}
	obj, err := jose.ParseSigned(signature, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	payload, err := obj.Verify(secret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !bytes.Equal(payload, body) {
		return ErrPayloadMismatch
	}
	return nil
}
