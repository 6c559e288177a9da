package entity

import (
	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
)

// Operator identifies the authenticated person performing a workflow.
type Operator struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  enum.Role `json:"role"`
}
