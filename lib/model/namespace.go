package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ValentinKolb/skv/lib/schema"
	"golang.org/x/crypto/sha3"
)

// namespaceOptions are the options that take part in namespace derivation.
type namespaceOptions struct {
	TTL      int64 `json:"ttl,omitempty"` // seconds
	ReadOnce bool  `json:"readOnce"`
}

// DeriveNamespace returns opts.Namespace if set. Otherwise it derives a namespace from the shape and the
// ttl / read-once options: the URL-safe base64 encoding (no padding) of length bytes of the SHAKE256
// digest of the JSON document [shape, options].
//
// Equal shapes with equal options always get the same namespace. Derived namespaces never contain "+".
func DeriveNamespace(shape *schema.Shape, opts Options, length int) (string, error) {
	if opts.Namespace != "" {
		return opts.Namespace, nil
	}
	if length <= 0 {
		return "", fmt.Errorf("%w: namespace length %d", ErrInvalidOptions, length)
	}

	input, err := json.Marshal([]any{shape, namespaceOptions{
		TTL:      int64(opts.TTL / time.Second),
		ReadOnce: opts.ReadOnce,
	}})
	if err != nil {
		return "", fmt.Errorf("derive namespace: %w", err)
	}

	digest := make([]byte, length)
	sha3.ShakeSum256(digest, input)
	return base64.RawURLEncoding.EncodeToString(digest), nil
}
