package domain

import (
	"crypto/rand"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordHashCost  = 12
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanCreator Plan = "creator"
	PlanPro     Plan = "pro"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanCreator, PlanPro:
		return true
	}
	return false
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type (
	User struct {
		ID              string
		Username        string
		Email           string
		PasswordHash    string
		Profile         Profile
		Subscription    Subscription
		Affiliate       Affiliate
		Settings        UserSettings
		Stores          []string
		IsEmailVerified bool
		LastLogin       *time.Time
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	Profile struct {
		FirstName string            `json:"firstName,omitempty"`
		LastName  string            `json:"lastName,omitempty"`
		Bio       string            `json:"bio,omitempty"`
		Avatar    string            `json:"avatar,omitempty"`
		Website   string            `json:"website,omitempty"`
		Social    map[string]string `json:"social,omitempty"`
	}

	Subscription struct {
		Plan              Plan               `json:"plan"`
		Status            SubscriptionStatus `json:"status"`
		StartDate         *time.Time         `json:"startDate,omitempty"`
		EndDate           *time.Time         `json:"endDate,omitempty"`
		StripeCustomerID  string             `json:"stripeCustomerId,omitempty"`
		PayfastCustomerID string             `json:"payfastCustomerId,omitempty"`
	}

	Affiliate struct {
		IsAffiliate    bool
		ReferralCode   string
		ReferredBy     string
		Referrals      []Referral
		TotalEarnings  decimal.Decimal
		PendingPayouts decimal.Decimal
	}

	Referral struct {
		UserID           string          `json:"user"`
		DateReferred     time.Time       `json:"dateReferred"`
		CommissionEarned decimal.Decimal `json:"commissionEarned"`
	}

	UserSettings struct {
		Notifications NotificationSettings `json:"notifications"`
		Privacy       PrivacySettings      `json:"privacy"`
	}

	NotificationSettings struct {
		Email     bool `json:"email"`
		Marketing bool `json:"marketing"`
	}

	PrivacySettings struct {
		ProfileVisibility string `json:"profileVisibility"`
	}
)

// NewUser validates the registration input and returns a user with a hashed
// password and default settings.
func NewUser(username, email, password string, now time.Time) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if n := len(username); n < MinUsernameLength || n > MaxUsernameLength {
		return User{}, Invalid(
			"username must be between %d and %d characters",
			MinUsernameLength, MaxUsernameLength,
		)
	}
	if !ValidEmail(email) {
		return User{}, Invalid("please provide a valid email")
	}
	if len(password) < MinPasswordLength {
		return User{}, Invalid(
			"password must be at least %d characters", MinPasswordLength,
		)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}

	return User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Subscription: Subscription{
			Plan:   PlanFree,
			Status: SubscriptionActive,
		},
		Settings: UserSettings{
			Notifications: NotificationSettings{Email: true},
			Privacy:       PrivacySettings{ProfileVisibility: "public"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email, ".")
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (u User) PasswordMatches(password string) bool {
	err := bcrypt.CompareHashAndPassword(
		[]byte(u.PasswordHash), []byte(password),
	)
	return err == nil
}

// NewReferralCode returns lower(username) followed by 4 base36 characters.
func NewReferralCode(username string) string {
	return strings.ToLower(username) + randomString(base36Lower, 4)
}

// ChangePlan moves the subscription to plan. Paid plans run for one month.
func (u *User) ChangePlan(plan Plan, now time.Time) error {
	if !plan.Valid() {
		return Invalid("invalid subscription plan")
	}
	u.Subscription.Plan = plan
	start := now
	u.Subscription.StartDate = &start
	if plan != PlanFree {
		end := now.AddDate(0, 1, 0)
		u.Subscription.EndDate = &end
	}
	return nil
}

const (
	base36Lower = "abcdefghijklmnopqrstuvwxyz0123456789"
	base36Upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func randomString(alphabet string, n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for range n {
		i, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand never fails on supported platforms
		}
		sb.WriteByte(alphabet[i.Int64()])
	}
	return sb.String()
}
