package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/request"
	"github.com/sangkips/repairshop-api/internal/presentation/http/middleware"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/sangkips/repairshop-api/pkg/pagination"
)

const dateLayout = "2006-01-02"

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetUserRole extracts the user role from the Gin context
func GetUserRole(c *gin.Context) enum.Role {
	role, _ := c.Get(middleware.ContextUserRole)
	r, _ := role.(enum.Role)
	return r
}

// GetOperator returns the authenticated identity stamped onto records
func GetOperator(c *gin.Context) (entity.Operator, bool) {
	userID := GetUserID(c)
	if userID == nil {
		return entity.Operator{}, false
	}
	return entity.Operator{
		ID:    *userID,
		Name:  c.GetString(middleware.ContextUserName),
		Email: c.GetString(middleware.ContextUserEmail),
		Role:  GetUserRole(c),
	}, true
}

// parseIDParam reads a uuid path parameter
func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.NewBadRequestError("Invalid " + name + " format")
	}
	return id, nil
}

// parseDateRange reads YYYY-MM-DD bounds in loc. to is inclusive and
// returned as the start of the following day.
func parseDateRange(from, to string, loc *time.Location) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return nil, nil, apperror.NewFieldValidationError("from", "must be YYYY-MM-DD")
		}
		t = t.UTC()
		start = &t
	}
	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return nil, nil, apperror.NewFieldValidationError("to", "must be YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1).UTC()
		end = &t
	}
	return start, end, nil
}

func pageParams(page, perPage int) *pagination.Params {
	p := &pagination.Params{Page: page, PerPage: perPage}
	p.Normalize()
	return p
}

// cartLines converts request lines. The binding layer has already checked
// that ids are uuids.
func cartLines(items []request.CartItemRequest) []service.CartLine {
	lines := make([]service.CartLine, 0, len(items))
	for _, it := range items {
		id, _ := uuid.Parse(it.StockItemID)
		lines = append(lines, service.CartLine{StockItemID: id, Quantity: it.Quantity})
	}
	return lines
}
