// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service
// layer from the concrete card-network client.
package port

import (
	"context"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
)

// MarcaValidator forwards a canonical request to the card network.
// Failures are returned as *domain.ErrGateway.
type MarcaValidator interface {
	Validate(ctx context.Context, req *domain.CanonicalOutboundRequest) (domain.ValidationResult, error)
}
