package response

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestSuccess(t *testing.T) {
	data := map[string]string{"name": "test"}
	resp := Success(data)

	if !resp.Success {
		t.Error("Expected success to be true")
	}
	if resp.Data == nil {
		t.Error("Expected data to be set")
	}
	if resp.Error != nil {
		t.Error("Expected error to be nil")
	}
	if resp.Meta != nil {
		t.Error("Expected meta to be nil")
	}
}

func TestSuccess_JSONFormat(t *testing.T) {
	data := map[string]string{"id": "123"}
	resp := Success(data)

	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if parsed["success"] != true {
		t.Errorf("Expected success=true, got %v", parsed["success"])
	}
	if _, ok := parsed["error"]; ok {
		t.Error("Expected error field to be omitted")
	}
	if _, ok := parsed["meta"]; ok {
		t.Error("Expected meta field to be omitted")
	}
}

func TestError(t *testing.T) {
	resp := Error(ErrCodeNotFound, "Event not found")

	if resp.Success {
		t.Error("Expected success to be false")
	}
	if resp.Data != nil {
		t.Error("Expected data to be nil")
	}
	if resp.Error == nil {
		t.Fatal("Expected error to be set")
	}
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("Expected code %s, got %s", ErrCodeNotFound, resp.Error.Code)
	}
	if resp.Error.Message != "Event not found" {
		t.Errorf("Expected message 'Event not found', got '%s'", resp.Error.Message)
	}
}

func TestError_JSONFormat(t *testing.T) {
	resp := Error(ErrCodeBadRequest, "Invalid input")

	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if parsed["success"] != false {
		t.Errorf("Expected success=false, got %v", parsed["success"])
	}

	errorObj, ok := parsed["error"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected error object")
	}
	if errorObj["code"] != ErrCodeBadRequest {
		t.Errorf("Expected code %s, got %v", ErrCodeBadRequest, errorObj["code"])
	}
	if errorObj["message"] != "Invalid input" {
		t.Errorf("Expected message 'Invalid input', got %v", errorObj["message"])
	}
}

func TestErrorWithDetails(t *testing.T) {
	details := map[string]string{
		"tickets": "at least one line item is required",
		"points":  "must not be negative",
	}
	resp := ErrorWithDetails(ErrCodeValidationFailed, "Validation failed", details)

	if resp.Success {
		t.Error("Expected success to be false")
	}
	if resp.Error == nil {
		t.Fatal("Expected error to be set")
	}
	if resp.Error.Details == nil {
		t.Fatal("Expected details to be set")
	}
	if resp.Error.Details["tickets"] != "at least one line item is required" {
		t.Errorf("Expected tickets error, got %v", resp.Error.Details["tickets"])
	}
}

func TestPaginated(t *testing.T) {
	data := []string{"item1", "item2"}
	resp := Paginated(data, 20, 40, 125)

	if !resp.Success {
		t.Error("Expected success to be true")
	}
	if resp.Data == nil {
		t.Error("Expected data to be set")
	}
	if resp.Meta == nil {
		t.Fatal("Expected meta to be set")
	}
	if resp.Meta.Limit != 20 {
		t.Errorf("Expected limit 20, got %d", resp.Meta.Limit)
	}
	if resp.Meta.Offset != 40 {
		t.Errorf("Expected offset 40, got %d", resp.Meta.Offset)
	}
	if resp.Meta.Total != 125 {
		t.Errorf("Expected total 125, got %d", resp.Meta.Total)
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInternalError, http.StatusInternalServerError},
		{ErrCodeInsufficientInventory, http.StatusConflict},
		{ErrCodeDiscountInvalid, http.StatusUnprocessableEntity},
		{ErrCodeInvalidStateTransition, http.StatusConflict},
		{ErrCodeTransactionExpired, http.StatusGone},
		{"UNKNOWN_CODE", http.StatusInternalServerError}, // default
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status := GetHTTPStatus(tt.code)
			if status != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, status)
			}
		})
	}
}

func TestCommonErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) *Response
		message string
		code    string
	}{
		{"BadRequest", BadRequest, "bad input", ErrCodeBadRequest},
		{"Unauthorized", Unauthorized, "", ErrCodeUnauthorized},
		{"Forbidden", Forbidden, "", ErrCodeForbidden},
		{"NotFound", NotFound, "", ErrCodeNotFound},
		{"InternalError", InternalError, "", ErrCodeInternalError},
		{"ValidationFailed", ValidationFailed, "", ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.fn(tt.message)
			if resp.Success {
				t.Error("Expected success to be false")
			}
			if resp.Error == nil {
				t.Fatal("Expected error to be set")
			}
			if resp.Error.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, resp.Error.Code)
			}
			if resp.Error.Message == "" {
				t.Error("Expected message to be set (with default)")
			}
		})
	}
}
