package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Asset     AccountType = "Asset"
	Liability AccountType = "Liability"

	Active   AccountStatus = "Active"
	Inactive AccountStatus = "Inactive"
	Closed   AccountStatus = "Closed"

	Income  CategoryType = "Income"
	Expense CategoryType = "Expense"
	Equity  CategoryType = "Equity"

	Monthly PeriodType = "monthly"
	Weekly  PeriodType = "weekly"
	Yearly  PeriodType = "yearly"
	OneTime PeriodType = "one-time"
)

type (
	AccountType   string
	AccountStatus string
	CategoryType  string
	PeriodType    string

	// Account is a financial account such as checking, savings, a credit card
	// or a mortgage. Type is fixed at creation.
	Account struct {
		ID             int64         `json:"id"`
		Name           string        `json:"name"`
		Type           AccountType   `json:"type"`
		Color          string        `json:"color,omitempty"`
		Currency       string        `json:"currency,omitempty"`
		Icon           string        `json:"icon,omitempty"`
		Description    string        `json:"description,omitempty"`
		InitialBalance float64       `json:"initialBalance"`
		CurrentBalance float64       `json:"currentBalance"`
		Status         AccountStatus `json:"status,omitempty"`
		CreatedAt      time.Time     `json:"createdAt"`
		UpdatedAt      time.Time     `json:"updatedAt"`
	}

	// Category classifies financial movements. Type is fixed at creation.
	Category struct {
		ID   int64        `json:"id"`
		Name string       `json:"name"`
		Type CategoryType `json:"type"`
	}

	Transaction struct {
		ID              int64    `json:"id"`
		Amount          float64  `json:"amount"`
		Date            string   `json:"date,omitempty"`
		Description     string   `json:"description,omitempty"`
		Payee           string   `json:"payee,omitempty"`
		AccountID       int64    `json:"accountId"`
		CategoryID      int64    `json:"categoryId"`
		TransactionType string   `json:"transactionType,omitempty"`
		Notes           string   `json:"notes,omitempty"`
		Attachments     []string `json:"attachments,omitempty"`
	}

	// Budget is a spending limit for a period. A nil CategoryID means the
	// budget applies to overall spending.
	Budget struct {
		ID         int64      `json:"id"`
		Name       string     `json:"name"`
		Amount     float64    `json:"amount"`
		PeriodType PeriodType `json:"periodType"`
		StartDate  string     `json:"startDate"`
		EndDate    string     `json:"endDate,omitempty"`
		CategoryID *int64     `json:"categoryId,omitempty"`
		CreatedAt  time.Time  `json:"createdAt"`
		UpdatedAt  time.Time  `json:"updatedAt"`
	}

	// Goal tracks savings towards a target. CurrentAmount may exceed
	// TargetAmount; nothing enforces otherwise.
	Goal struct {
		ID            int64     `json:"id"`
		Name          string    `json:"name"`
		TargetAmount  float64   `json:"targetAmount"`
		CurrentAmount float64   `json:"currentAmount"`
		TargetDate    string    `json:"targetDate"`
		Description   string    `json:"description,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}
)

var (
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidAccountType  = errors.New("invalid account type")
	ErrInvalidStatus       = errors.New("invalid account status")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidPeriodType   = errors.New("invalid period type")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrMissingAccount      = errors.New("missing account")
	ErrMissingCategory     = errors.New("missing category")
	ErrDateOrder           = errors.New("end date must not be before start date")

	errNameTooLong = errors.New("name too long (max 200 characters)")
)

// AccountTypes, AccountStatuses, CategoryTypes and PeriodTypes list the
// accepted enum values in declaration order.
var (
	AccountTypes    = []string{string(Asset), string(Liability)}
	AccountStatuses = []string{string(Active), string(Inactive), string(Closed)}
	CategoryTypes   = []string{string(Income), string(Expense), string(Equity)}
	PeriodTypes     = []string{string(Monthly), string(Weekly), string(Yearly), string(OneTime)}
)

func (t AccountType) Valid() bool {
	return t == Asset || t == Liability
}

func (s AccountStatus) Valid() bool {
	switch s {
	case Active, Inactive, Closed:
		return true
	}
	return false
}

func (t CategoryType) Valid() bool {
	switch t {
	case Income, Expense, Equity:
		return true
	}
	return false
}

func (p PeriodType) Valid() bool {
	switch p {
	case Monthly, Weekly, Yearly, OneTime:
		return true
	}
	return false
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > 200 {
		return errNameTooLong
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks an account before it is written. An empty Status is
// accepted and left to the column default.
func (a Account) Validate() error {
	if err := validName(a.Name); err != nil {
		return err
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if a.Status != "" && !a.Status.Valid() {
		return ErrInvalidStatus
	}
	if a.Currency != "" && len(strings.TrimSpace(a.Currency)) != 3 {
		return ErrInvalidCurrency
	}
	if !finite(a.InitialBalance) || !finite(a.CurrentBalance) {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if err := validName(c.Name); err != nil {
		return err
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	return nil
}

// Validate checks a transaction before it is written. An empty Date is left
// to the column default (local time of insertion).
func (t Transaction) Validate() error {
	if !finite(t.Amount) {
		return ErrInvalidAmount
	}
	if t.AccountID <= 0 {
		return ErrMissingAccount
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if t.Date != "" {
		if _, err := ParseDate(t.Date); err != nil {
			return err
		}
	}
	return nil
}

func (b Budget) Validate() error {
	if err := validName(b.Name); err != nil {
		return err
	}
	if !finite(b.Amount) || b.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !b.PeriodType.Valid() {
		return ErrInvalidPeriodType
	}
	start, err := ParseDate(b.StartDate)
	if err != nil {
		return err
	}
	if b.EndDate != "" {
		end, err := ParseDate(b.EndDate)
		if err != nil {
			return err
		}
		if end.Before(start) {
			return ErrDateOrder
		}
	}
	if b.CategoryID != nil && *b.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

func (g Goal) Validate() error {
	if err := validName(g.Name); err != nil {
		return err
	}
	if !finite(g.TargetAmount) || g.TargetAmount <= 0 {
		return ErrInvalidAmount
	}
	if !finite(g.CurrentAmount) || g.CurrentAmount < 0 {
		return ErrInvalidAmount
	}
	if _, err := ParseDate(g.TargetDate); err != nil {
		return err
	}
	return nil
}

// IsValidation reports whether err is one of the input validation errors
// declared in this package.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyName, ErrInvalidAccountType, ErrInvalidStatus, ErrInvalidCategoryType,
		ErrInvalidPeriodType, ErrInvalidAmount, ErrInvalidDate, ErrInvalidCurrency,
		ErrMissingAccount, ErrMissingCategory, ErrDateOrder, errNameTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
