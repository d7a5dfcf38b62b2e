package chat_test

import (
	"testing"

	"github.com/marketpaper/quote-api/internal/chat"
	"github.com/stretchr/testify/assert"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantPage string
		wantUser string
		wantOK   bool
	}{
		{
			name:     "full agent link",
			url:      "https://app.example.com/fb123456/chat/789012",
			wantPage: "123456",
			wantUser: "789012",
			wantOK:   true,
		},
		{
			name:     "link with query string",
			url:      "https://app.example.com/fb111/chat/222?tab=open",
			wantPage: "111",
			wantUser: "222",
			wantOK:   true,
		},
		{
			name:     "surrounding whitespace",
			url:      "  https://app.example.com/fb9/chat/8  ",
			wantPage: "9",
			wantUser: "8",
			wantOK:   true,
		},
		{name: "missing user segment", url: "https://app.example.com/fb123456", wantOK: false},
		{name: "missing page segment", url: "https://app.example.com/chat/789012", wantOK: false},
		{name: "non numeric ids", url: "https://app.example.com/fbabc/chat/def", wantOK: false},
		{name: "empty", url: "", wantOK: false},
		{name: "blank", url: "   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, ok := chat.ParseLink(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantPage, ids.PageID)
				assert.Equal(t, tt.wantUser, ids.UserID)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"plain digits", "1122334455", "1122334455", true},
		{"with country code", "+54 11 2233-4455", "+541122334455", true},
		{"with parentheses", "(011) 2233-4455", "01122334455", true},
		{"too short", "1234567", "", false},
		{"letters", "11223344aa", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := chat.NormalizePhone(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
