package codegen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/spec-kit/membership-service/internal/domain"
)

// Generator produces confirmation codes.
type Generator interface {
	Generate() (string, error)
}

type cryptoGenerator struct{}

// NewGenerator returns a generator drawing uniformly from the 1,000,000
// possible 6-digit codes. No uniqueness is guaranteed across members or time.
func NewGenerator() Generator {
	return cryptoGenerator{}
}

var codeSpace = big.NewInt(1_000_000)

func (cryptoGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate confirmation code: %w", err)
	}
	return fmt.Sprintf("%0*d", domain.CodeLength, n.Int64()), nil
}
