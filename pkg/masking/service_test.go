package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	s := NewService()
	assert.Equal(t, "t***@stark.com", s.Email("tony@stark.com"))
	assert.Equal(t, "a***@b.co", s.Email("a@b.co"))
	assert.Equal(t, "***", s.Email("not-an-email"))
	assert.Equal(t, "***", s.Email(""))
}

func TestIDLast4(t *testing.T) {
	s := NewService()
	assert.Equal(t, "**34", s.IDLast4("1234"))
	assert.Equal(t, "**07", s.IDLast4("0007"))
	assert.Equal(t, "****", s.IDLast4("12345"))
}

func TestName(t *testing.T) {
	s := NewService()
	assert.Equal(t, "T***", s.Name("Tony Stark"))
	assert.Equal(t, "", s.Name("  "))
}

func TestText(t *testing.T) {
	s := NewService()
	in := "failed to notify tony@stark.com about pepper@stark.com"
	out := s.Text(in)
	assert.Equal(t, "failed to notify t***@stark.com about p***@stark.com", out)
	assert.NotContains(t, out, "tony@")
}

func TestCollected(t *testing.T) {
	s := NewService()
	masked := s.Collected(map[string]any{
		"name":        "Tony Stark",
		"email":       "tony@stark.com",
		"id_last4":    "1234",
		"loan_amount": 500000.0,
	})
	assert.Equal(t, "T***", masked["name"])
	assert.Equal(t, "t***@stark.com", masked["email"])
	assert.Equal(t, "**34", masked["id_last4"])
	assert.Equal(t, 500000.0, masked["loan_amount"], "non-PII values pass through")
	assert.Nil(t, s.Collected(nil))
}
