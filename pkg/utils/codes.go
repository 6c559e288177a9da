package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServiceDay returns the YYMMDD date of t in the shop's timezone.
func ServiceDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("060102")
}

// MaxDailyServices is the last sequence a three-digit service code can hold.
const MaxDailyServices = 999

// ServiceCode formats a service code, e.g. SRV250301007. seq must be in
// 1..MaxDailyServices.
func ServiceCode(day string, seq int) string {
	return fmt.Sprintf("SRV%s%03d", day, seq)
}

// GenerateStockCode generates a code for items entered without one
func GenerateStockCode() string {
	return "STK-" + strings.ToUpper(uuid.New().String()[:8])
}
