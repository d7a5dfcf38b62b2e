package service

import "errors"

// Service-level errors for business logic failures
var (
	ErrQuoteNotFound    = errors.New("quote not found")
	ErrDealNotFound     = errors.New("deal not found")
	ErrContactNotFound  = errors.New("contact not found")
	ErrInvalidBoxStyle  = errors.New("invalid box style")
	ErrChatLinkNotFound = errors.New("no contact with a chat link")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrWebhookDisabled  = errors.New("quote notifications are not configured")
	ErrNoRepairTarget   = errors.New("nothing to associate")
)
