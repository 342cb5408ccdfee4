package validator

import (
	"context"

	"soltab/internal/domain"
	"soltab/internal/validator/science"
)

// Check is the interface for a single built-in validation check.
type Check interface {
	Check(ctx context.Context, s *science.Subject) []domain.ValidationFlag
	CheckKey() string
	CheckName() string
}
