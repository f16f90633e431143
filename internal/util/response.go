package util

import "github.com/neuroguard/neuroguard-api/internal/domain"

// Envelope is the uniform response body: status is success/fail/error,
// data carries payloads, message and code appear on failures.
type Envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Code    int         `json:"code,omitempty"`
}

func Success(data interface{}) Envelope {
	return Envelope{Status: domain.StatusSuccess, Data: data}
}

func SuccessMessage(message string) Envelope {
	return Envelope{Status: domain.StatusSuccess, Message: message}
}

func Fail(code int, message string) Envelope {
	return Envelope{Status: domain.StatusFail, Message: message, Code: code}
}

func Failure(status string, code int, message string) Envelope {
	return Envelope{Status: status, Message: message, Code: code}
}
