package models

import "time"

// VoteType is the direction of a single user's vote on a fact.
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

func (v VoteType) Valid() bool {
	return v == Upvote || v == Downvote
}

// Vote is one ledger row. The same shape is stored in one table per fact
// kind; see FactKind.VoteTable.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	FactID    int       `gorm:"not null" json:"fact_id"`
	UserID    int       `gorm:"not null" json:"user_id"`
	VoteType  VoteType  `gorm:"type:varchar(16);not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tally is the aggregate of a fact's vote ledger.
type Tally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// PaymentMethodVote is the migration model for the payment method vote
// ledger. One row per (fact, user).
type PaymentMethodVote struct {
	ID        int                `gorm:"primaryKey"`
	FactID    int                `gorm:"not null;uniqueIndex:ux_payment_method_votes_user,priority:1"`
	UserID    int                `gorm:"not null;uniqueIndex:ux_payment_method_votes_user,priority:2;index"`
	VoteType  VoteType           `gorm:"type:varchar(16);not null"`
	Fact      *PaymentAcceptance `gorm:"foreignKey:FactID;constraint:OnDelete:CASCADE"`
	User      *User              `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PaymentMethodVote) TableName() string { return KindPaymentAcceptance.VoteTable() }

// CashDiscountVote is the migration model for the cash discount vote ledger.
type CashDiscountVote struct {
	ID        int           `gorm:"primaryKey"`
	FactID    int           `gorm:"not null;uniqueIndex:ux_cash_discount_votes_user,priority:1"`
	UserID    int           `gorm:"not null;uniqueIndex:ux_cash_discount_votes_user,priority:2;index"`
	VoteType  VoteType      `gorm:"type:varchar(16);not null"`
	Fact      *CashDiscount `gorm:"foreignKey:FactID;constraint:OnDelete:CASCADE"`
	User      *User         `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CashDiscountVote) TableName() string { return KindCashDiscount.VoteTable() }
