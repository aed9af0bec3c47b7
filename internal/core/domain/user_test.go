package domain_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		u, err := domain.NewUser(" thandi ", "Thandi@Example.com", "secret1", now)
		require.NoError(t, err)

		assert.Equal(t, "thandi", u.Username)
		assert.Equal(t, "thandi@example.com", u.Email)
		assert.NotEqual(t, "secret1", u.PasswordHash)
		assert.True(t, u.PasswordMatches("secret1"))
		assert.False(t, u.PasswordMatches("secret2"))
		assert.Equal(t, domain.PlanFree, u.Subscription.Plan)
	})

	tests := []struct {
		name, username, email, password string
	}{
		{"ShortUsername", "ab", "a@b.co", "secret1"},
		{"LongUsername", strings.Repeat("a", 31), "a@b.co", "secret1"},
		{"BadEmail", "thandi", "not-an-email", "secret1"},
		{"ShortPassword", "thandi", "a@b.co", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewUser(tt.username, tt.email, tt.password, now)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestNewReferralCode(t *testing.T) {
	code := domain.NewReferralCode("Thandi")
	assert.Regexp(t, regexp.MustCompile(`^thandi[a-z0-9]{4}$`), code)
}

func TestChangePlan(t *testing.T) {
	var u domain.User
	require.NoError(t, u.ChangePlan(domain.PlanPro, now))
	require.NotNil(t, u.Subscription.EndDate)
	assert.Equal(t, now.AddDate(0, 1, 0), *u.Subscription.EndDate)

	assert.ErrorIs(t, u.ChangePlan("enterprise", now), domain.ErrValidation)
	assert.Equal(t, domain.PlanPro, u.Subscription.Plan)
}

func TestUserApply(t *testing.T) {
	u := domain.User{Profile: domain.Profile{FirstName: "Thandi", Bio: "old"}}
	u.Apply(domain.ProfileUpdate{
		Profile: domain.Profile{Bio: "new", Social: map[string]string{"x": "@t"}},
	})
	assert.Equal(t, "Thandi", u.Profile.FirstName)
	assert.Equal(t, "new", u.Profile.Bio)
	assert.Equal(t, "@t", u.Profile.Social["x"])
}
