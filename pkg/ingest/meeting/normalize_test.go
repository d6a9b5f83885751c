package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Daily   Stand-Up!!", "daily stand up"},
		{"daily stand up", "daily stand up"},
		{"Weekly Call", "weekly meeting"},
		{"  Product   SYNC ", "product meeting"},
		{"Team Standup", "team stand up"},
		{"Alice/Bob 1:1", "alice bob one on one"},
		{"Alice 1on1", "alice one on one"},
		{"[Org][Proj] Planning", "org proj planning"},
		{"Ｆｕｌｌｗｉｄｔｈ Huddle", "fullwidth meeting"},
		{"Straße Review", "strasse review"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.in))
		})
	}
}

func TestNormalizeTitle_EquivalentTitles(t *testing.T) {
	assert.Equal(t, NormalizeTitle("Daily   Stand-Up!!"), NormalizeTitle("daily stand up"))
	assert.Equal(t, NormalizeTitle("Eng Sync"), NormalizeTitle("eng call"))
	assert.NotEqual(t, NormalizeTitle("Eng Sync"), NormalizeTitle("Design Sync"))
}
