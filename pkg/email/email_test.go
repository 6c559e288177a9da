package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderServiceReady(t *testing.T) {
	svc := NewEmailService(EmailConfig{ShopName: "Cell Clinic", ShopPhone: "0812"})
	html, err := svc.render(ServiceReady{
		CustomerName: "Sari",
		ServiceCode:  "SRV250301001",
		DeviceModel:  "iPhone 11",
		Total:        "700000.00",
		Outstanding:  "350000.00",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "SRV250301001")
	assert.Contains(t, html, "Still to pay")
	assert.Contains(t, html, "Cell Clinic")

	html, err = svc.render(ServiceReady{CustomerName: "Sari", ServiceCode: "SRV250301001", DeviceModel: "iPhone 11", Total: "10.00"})
	require.NoError(t, err)
	assert.False(t, strings.Contains(html, "Still to pay"))
}

func TestBuildHTMLEmailHeaders(t *testing.T) {
	svc := NewEmailService(EmailConfig{FromName: "Cell Clinic", FromEmail: "shop@example.com"})
	msg := string(svc.buildHTMLEmail("sari@example.com", "Ready", "<p>hi</p>"))
	assert.True(t, strings.HasPrefix(msg, "From: Cell Clinic <shop@example.com>\r\n"))
	assert.Contains(t, msg, "To: sari@example.com\r\n")
	assert.True(t, strings.HasSuffix(msg, "<p>hi</p>"))
}

func TestLowStockDigestTemplate(t *testing.T) {
	svc := NewEmailService(EmailConfig{ShopName: "Cell Clinic"})
	var buf strings.Builder
	err := svc.digest.Execute(&buf, struct {
		ShopName  string
		Threshold int
		Items     []LowStockLine
	}{"Cell Clinic", 3, []LowStockLine{{Code: "LCD-A52", Name: "LCD Galaxy A52", Available: 1}}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "LCD Galaxy A52")
	assert.Contains(t, buf.String(), "3 or fewer")
}
