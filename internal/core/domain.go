package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  CategoryType = "income"
	Expense CategoryType = "expense"
)

const (
	RoleAdmin     Role = "admin"
	RoleTreasurer Role = "treasurer"
	RoleMember    Role = "member"
)

const (
	OrgClub      OrgType = "club"
	OrgClass     OrgType = "class"
	OrgDormitory OrgType = "dormitory"
	OrgProject   OrgType = "project"
	OrgOther     OrgType = "other"
)

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

const DefaultAlertThreshold = 80

type (
	CategoryType string
	Role         string
	OrgType      string
	ClaimStatus  string

	Money struct {
		Cents int64
	}

	User struct {
		ID        int64     `json:"id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		Nickname  string    `json:"nickname"`
		Phone     string    `json:"phone"`
		StudentID string    `json:"student_id"`
		APIToken  string    `json:"-"`
		CreatedAt time.Time `json:"created_at"`
	}

	Category struct {
		ID             int64        `json:"id"`
		UserID         int64        `json:"-"`
		OrganizationID *int64       `json:"organization_id"`
		Name           string       `json:"name"`
		Type           CategoryType `json:"type"`
		Icon           string       `json:"icon"`
		Color          string       `json:"color"`
		IsDefault      bool         `json:"is_default"`
		SortOrder      int          `json:"order"`
		CreatedAt      time.Time    `json:"created_at"`
	}

	// CategoryUsage is a category annotated with its transaction usage.
	CategoryUsage struct {
		Category
		UsageCount  int64 `json:"usage_count"`
		TotalAmount Money `json:"total_amount"`
	}

	CategoryUpdate struct {
		Name      *string `json:"name"`
		Icon      *string `json:"icon"`
		Color     *string `json:"color"`
		SortOrder *int    `json:"order"`
	}

	Transaction struct {
		ID             int64        `json:"id"`
		UserID         int64        `json:"-"`
		CategoryID     int64        `json:"category_id"`
		CategoryName   string       `json:"category_name,omitempty"`
		CategoryType   CategoryType `json:"type,omitempty"`
		CategoryColor  string       `json:"category_color,omitempty"`
		CategoryIcon   string       `json:"category_icon,omitempty"`
		Amount         Money        `json:"amount"`
		Date           Date         `json:"transaction_date"`
		Description    string       `json:"description"`
		OrganizationID *int64       `json:"organization_id"`
		CreatedAt      time.Time    `json:"created_at"`
		UpdatedAt      time.Time    `json:"updated_at"`
	}

	TransactionUpdate struct {
		CategoryID  *int64  `json:"category_id"`
		Amount      *Money  `json:"amount"`
		Date        *Date   `json:"transaction_date"`
		Description *string `json:"description"`
	}

	TransactionFilter struct {
		Type           CategoryType
		CategoryID     *int64
		OrganizationID *int64
		StartDate      *Date
		EndDate        *Date
		Limit          int
		Offset         int
	}

	Budget struct {
		ID             int64     `json:"id"`
		UserID         int64     `json:"-"`
		YearMonth      string    `json:"year_month"`
		Amount         Money     `json:"amount"`
		CategoryID     *int64    `json:"category"`
		CategoryName   string    `json:"category_name"`
		AlertThreshold int       `json:"alert_threshold"`
		IsActive       bool      `json:"is_active"`
		CreatedAt      time.Time `json:"created_at"`
		UpdatedAt      time.Time `json:"updated_at"`
	}

	BudgetUpdate struct {
		Amount         *Money `json:"amount"`
		AlertThreshold *int   `json:"alert_threshold"`
		IsActive       *bool  `json:"is_active"`
	}

	BudgetFilter struct {
		YearMonth  string
		CategoryID *int64
		IsActive   *bool
	}

	Organization struct {
		ID          int64     `json:"id"`
		Name        string    `json:"name"`
		Type        OrgType   `json:"type"`
		Description string    `json:"description"`
		CreatorID   int64     `json:"creator"`
		CreatedAt   time.Time `json:"created_at"`
		MemberCount int64     `json:"member_count"`
		MyRole      Role      `json:"my_role,omitempty"`
	}

	Membership struct {
		ID             int64     `json:"id"`
		UserID         int64     `json:"user"`
		Username       string    `json:"username"`
		OrganizationID int64     `json:"organization"`
		Role           Role      `json:"role"`
		JoinedAt       time.Time `json:"joined_at"`
	}

	Claim struct {
		ID             int64       `json:"id"`
		UserID         int64       `json:"user"`
		Username       string      `json:"username"`
		OrganizationID int64       `json:"organization"`
		Amount         Money       `json:"amount"`
		Title          string      `json:"title"`
		Description    string      `json:"description"`
		Status         ClaimStatus `json:"status"`
		ReviewerID     *int64      `json:"reviewer"`
		ReviewComment  string      `json:"review_comment"`
		ReviewedAt     *time.Time  `json:"reviewed_at"`
		TransactionID  *int64      `json:"transaction"`
		CreatedAt      time.Time   `json:"created_at"`
	}

	ClaimFilter struct {
		OrganizationID *int64
		Status         ClaimStatus
	}
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidYearMonth    = errors.New("invalid year_month, expected YYYY-MM")
	ErrInvalidThreshold    = errors.New("alert_threshold must be between 1 and 100")
	ErrEmptyName           = errors.New("name is required")
	ErrNameTooLong         = errors.New("name too long (max 50 characters)")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidCategoryType = errors.New("type must be income or expense")
	ErrInvalidRole         = errors.New("role must be admin, treasurer or member")
	ErrInvalidOrgType      = errors.New("invalid organization type")
	ErrEmptyTitle          = errors.New("title is required")
	ErrInvalidAction       = errors.New("action must be approve or reject")
	ErrCommentRequired     = errors.New("a comment is required when rejecting")
)

var validationSentinels = []error{
	ErrInvalidAmount, ErrInvalidDate, ErrInvalidYearMonth, ErrInvalidThreshold,
	ErrEmptyName, ErrNameTooLong, ErrDescriptionTooLong, ErrInvalidCategoryType,
	ErrInvalidRole, ErrInvalidOrgType, ErrEmptyTitle, ErrInvalidAction, ErrCommentRequired,
}

func (t CategoryType) IsValid() bool { return t == Income || t == Expense }

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTreasurer, RoleMember:
		return true
	}
	return false
}

// CanReview reports whether the role may manage claims.
func (r Role) CanReview() bool { return r == RoleAdmin || r == RoleTreasurer }

func (t OrgType) IsValid() bool {
	switch t {
	case OrgClub, OrgClass, OrgDormitory, OrgProject, OrgOther:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return InvalidField("name", ErrEmptyName)
	}
	if utf8.RuneCountInString(name) > 50 {
		return InvalidField("name", ErrNameTooLong)
	}
	if !c.Type.IsValid() {
		return InvalidField("type", ErrInvalidCategoryType)
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.CategoryID <= 0 {
		return Validation("category_id", "category is required")
	}
	if err := t.Amount.Validate(); err != nil {
		return InvalidField("amount", err)
	}
	if err := t.Date.Validate(); err != nil {
		return InvalidField("transaction_date", err)
	}
	if utf8.RuneCountInString(t.Description) > 200 {
		return InvalidField("description", ErrDescriptionTooLong)
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return InvalidField("amount", err)
	}
	if _, err := ParseYearMonth(b.YearMonth); err != nil {
		return InvalidField("year_month", err)
	}
	if err := validateThreshold(b.AlertThreshold); err != nil {
		return err
	}
	return nil
}

func (u BudgetUpdate) Validate() error {
	if u.Amount != nil {
		if err := u.Amount.Validate(); err != nil {
			return InvalidField("amount", err)
		}
	}
	if u.AlertThreshold != nil {
		return validateThreshold(*u.AlertThreshold)
	}
	return nil
}

func validateThreshold(v int) error {
	if v < 1 || v > 100 {
		return InvalidField("alert_threshold", ErrInvalidThreshold)
	}
	return nil
}

func (o Organization) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return InvalidField("name", ErrEmptyName)
	}
	if utf8.RuneCountInString(o.Name) > 100 {
		return Validation("name", "name too long (max 100 characters)")
	}
	if !o.Type.IsValid() {
		return InvalidField("type", ErrInvalidOrgType)
	}
	return nil
}

func (c Claim) Validate() error {
	if c.OrganizationID <= 0 {
		return Validation("organization", "organization is required")
	}
	if err := c.Amount.Validate(); err != nil {
		return InvalidField("amount", err)
	}
	if strings.TrimSpace(c.Title) == "" {
		return InvalidField("title", ErrEmptyTitle)
	}
	return nil
}
