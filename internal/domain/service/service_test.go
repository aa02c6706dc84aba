package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFolderNamer_Name(t *testing.T) {
	namer := NewFolderNamer()
	date := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		suspect string
		want    string
	}{
		{"plain name", "John Doe", "John_Doe_2026-08-30"},
		{"path-unsafe characters stripped", `Jane ..\O'Hara: #9`, "Jane_OHara_9_2026-08-30"},
		{"empty suspect gets placeholder", "", "unknown-suspect_2026-08-30"},
		{"whitespace-only gets placeholder", "   ", "unknown-suspect_2026-08-30"},
		{"unicode stripped to placeholder", "警察", "unknown-suspect_2026-08-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, namer.Name(tt.suspect, date))
		})
	}
}

func TestFolderNamer_LongNamesTruncated(t *testing.T) {
	namer := NewFolderNamer()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	got := namer.Name(string(long), date)
	assert.Len(t, got, 80+len("_2026-08-30"))
}

func TestParseCredentials(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Credentials
	}{
		{"username and password", "user@example.com:hunter2", Credentials{"user@example.com", "hunter2"}},
		{"splits on first colon only", "user:pa:ss", Credentials{"user", "pa:ss"}},
		{"bare username", "user@example.com", Credentials{Username: "user@example.com"}},
		{"empty", "", Credentials{}},
		{"trims whitespace", "  user : pass \n", Credentials{"user", "pass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCredentials(tt.raw))
		})
	}
}

func TestCredentials_Empty(t *testing.T) {
	assert.True(t, Credentials{}.Empty())
	assert.False(t, Credentials{Username: "u"}.Empty())
}
