package models

import (
	"time"
)

// FactKind identifies which table a fact lives in.
type FactKind string

const (
	KindPaymentAcceptance FactKind = "payment-method"
	KindCashDiscount      FactKind = "cash-discount"
)

func (k FactKind) Valid() bool {
	return k == KindPaymentAcceptance || k == KindCashDiscount
}

// Table returns the fact table for k.
func (k FactKind) Table() string {
	switch k {
	case KindPaymentAcceptance:
		return "payment_methods"
	case KindCashDiscount:
		return "cash_discounts"
	}
	return ""
}

// VoteTable returns the vote ledger table for k.
func (k FactKind) VoteTable() string {
	switch k {
	case KindPaymentAcceptance:
		return "payment_method_votes"
	case KindCashDiscount:
		return "cash_discount_votes"
	}
	return ""
}

// NewFact returns an empty fact of kind k, or nil for an unknown kind.
func NewFact(k FactKind) Fact {
	switch k {
	case KindPaymentAcceptance:
		return &PaymentAcceptance{}
	case KindCashDiscount:
		return &CashDiscount{}
	}
	return nil
}

// PaymentType is a payment method a restaurant may or may not accept.
type PaymentType string

const (
	PaymentCash       PaymentType = "cash"
	PaymentDebit      PaymentType = "debit"
	PaymentVisa       PaymentType = "visa"
	PaymentMastercard PaymentType = "mastercard"
	PaymentAmex       PaymentType = "amex"
	PaymentDiscover   PaymentType = "discover"
	PaymentOther      PaymentType = "other"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentCash, PaymentDebit, PaymentVisa, PaymentMastercard,
		PaymentAmex, PaymentDiscover, PaymentOther:
		return true
	}
	return false
}

// Fact is a crowd-submitted claim about a restaurant.
type Fact interface {
	Kind() FactKind
	Meta() *FactMeta
}

// FactMeta holds the columns shared by every fact table: ownership,
// verification state and the vote-derived trust score.
type FactMeta struct {
	ID              int        `gorm:"primaryKey" json:"id"`
	RestaurantID    int        `gorm:"not null;index" json:"restaurant_id"`
	SubmittedBy     *int       `json:"submitted_by"`
	IsVerified      bool       `gorm:"not null" json:"is_verified"`
	VerifiedBy      *int       `json:"verified_by"`
	VerifiedAt      *time.Time `json:"verified_at"`
	Upvotes         int        `gorm:"not null" json:"upvotes"`
	Downvotes       int        `gorm:"not null" json:"downvotes"`
	ConfidenceScore float64    `gorm:"not null;index" json:"confidence_score"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PaymentAcceptance claims whether a restaurant accepts a payment type.
// At most one verified row exists per (restaurant_id, payment_type).
type PaymentAcceptance struct {
	FactMeta
	PaymentType PaymentType `gorm:"type:varchar(16);not null;index" json:"payment_type"`
	IsAccepted  bool        `gorm:"not null" json:"is_accepted"`

	Restaurant *Restaurant `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Submitter  *User       `gorm:"foreignKey:SubmittedBy;constraint:OnDelete:SET NULL" json:"-"`
	Verifier   *User       `gorm:"foreignKey:VerifiedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (PaymentAcceptance) TableName() string { return KindPaymentAcceptance.Table() }

func (p *PaymentAcceptance) Kind() FactKind  { return KindPaymentAcceptance }
func (p *PaymentAcceptance) Meta() *FactMeta { return &p.FactMeta }

// CashDiscount claims a discount for paying cash. IsActive is a soft-delete
// flag; inactive rows are hidden from restaurant listings.
type CashDiscount struct {
	FactMeta
	DiscountPercentage float64 `gorm:"not null" json:"discount_percentage"`
	Description        *string `json:"description"`
	IsActive           bool    `gorm:"not null" json:"is_active"`

	Restaurant *Restaurant `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Submitter  *User       `gorm:"foreignKey:SubmittedBy;constraint:OnDelete:SET NULL" json:"-"`
	Verifier   *User       `gorm:"foreignKey:VerifiedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (CashDiscount) TableName() string { return KindCashDiscount.Table() }

func (c *CashDiscount) Kind() FactKind  { return KindCashDiscount }
func (c *CashDiscount) Meta() *FactMeta { return &c.FactMeta }

// Submission is the kind-specific payload of a new fact.
type Submission interface {
	Kind() FactKind
}

type PaymentSubmission struct {
	PaymentType PaymentType `json:"payment_type"`
	IsAccepted  bool        `json:"is_accepted"`
}

func (PaymentSubmission) Kind() FactKind { return KindPaymentAcceptance }

type CashDiscountSubmission struct {
	DiscountPercentage float64 `json:"discount_percentage"`
	Description        *string `json:"description"`
}

func (CashDiscountSubmission) Kind() FactKind { return KindCashDiscount }

// FactPatch is a typed partial update; nil fields are left untouched.
type FactPatch interface {
	Kind() FactKind
	Columns() map[string]any
}

type PaymentPatch struct {
	IsAccepted *bool `json:"is_accepted"`
}

func (PaymentPatch) Kind() FactKind { return KindPaymentAcceptance }

func (p PaymentPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.IsAccepted != nil {
		cols["is_accepted"] = *p.IsAccepted
	}
	return cols
}

type CashDiscountPatch struct {
	DiscountPercentage *float64 `json:"discount_percentage"`
	Description        *string  `json:"description"`
	IsActive           *bool    `json:"is_active"`
}

func (CashDiscountPatch) Kind() FactKind { return KindCashDiscount }

func (p CashDiscountPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.DiscountPercentage != nil {
		cols["discount_percentage"] = *p.DiscountPercentage
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.IsActive != nil {
		cols["is_active"] = *p.IsActive
	}
	return cols
}

// FactWithVotes is a listing row carrying the ledger size alongside the fact.
type FactWithVotes struct {
	Fact       Fact `json:"fact"`
	TotalVotes int  `json:"total_votes"`
}

// PendingPaymentMethod is an unverified payment fact with display fields
// for the moderation queue.
type PendingPaymentMethod struct {
	PaymentAcceptance
	RestaurantName      string  `json:"restaurant_name"`
	SubmittedByUsername *string `json:"submitted_by_username"`
}

type PendingCashDiscount struct {
	CashDiscount
	RestaurantName      string  `json:"restaurant_name"`
	SubmittedByUsername *string `json:"submitted_by_username"`
}

// Pending groups everything awaiting admin review, newest first.
type Pending struct {
	Restaurants    []Restaurant           `json:"restaurants"`
	PaymentMethods []PendingPaymentMethod `json:"paymentMethods"`
	CashDiscounts  []PendingCashDiscount  `json:"cashDiscounts"`
}
