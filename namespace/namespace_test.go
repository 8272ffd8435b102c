package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_IsReserved(t *testing.T) {
	assert.True(t, DefaultRule.IsReserved("sling/json"))
	assert.False(t, DefaultRule.IsReserved("custom/greeting"))
	assert.False(t, DefaultRule.IsReserved("Sling/json"), "names are case-sensitive")
	assert.False(t, Rule{}.IsReserved("sling/json"))
}

func TestRule_Permits(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"sling/json", "org.apache.sling.x", true},
		{"sling/json", "com.example.y", false},
		{"sling/json", "", false},
		{"sling/json", "org.apache.slingshot", false},
		{"custom/greeting", "com.example.y", true},
		{"custom/greeting", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name+"@"+tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRule.Permits(tt.name, tt.origin))
		})
	}
}

func TestRule_Validate(t *testing.T) {
	require.NoError(t, DefaultRule.Validate())
	require.NoError(t, Rule{}.Validate())
	require.Error(t, Rule{ReservedPrefix: "sling/"}.Validate())
}
