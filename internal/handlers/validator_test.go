package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestGenerateBillsRequestValidation(t *testing.T) {
	valid := GenerateBillsRequest{
		SessionID:  1,
		Month:      4,
		Year:       2026,
		DueDate:    "2026-04-10",
		FeeTypeIDs: []uint{1, 2},
	}

	tests := []struct {
		name    string
		mutate  func(*GenerateBillsRequest)
		wantErr bool
	}{
		{"valid request", func(r *GenerateBillsRequest) {}, false},
		{"missing fee type ids", func(r *GenerateBillsRequest) { r.FeeTypeIDs = nil }, true},
		{"empty fee type ids", func(r *GenerateBillsRequest) { r.FeeTypeIDs = []uint{} }, true},
		{"missing session", func(r *GenerateBillsRequest) { r.SessionID = 0 }, true},
		{"month out of range", func(r *GenerateBillsRequest) { r.Month = 13 }, true},
		{"missing due date", func(r *GenerateBillsRequest) { r.DueDate = "" }, true},
	}

	v := NewRequestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := v.Validate(&req)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var httpErr *echo.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("Validate() = %v, want *echo.HTTPError", err)
			}
			if httpErr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", httpErr.Code, http.StatusBadRequest)
			}
		})
	}
}
