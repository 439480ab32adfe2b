// internal/domain/models/payment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment states.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// Payment records one checkout attempt, keyed by the gateway reference.
//
// Amount is in major currency units for display; AmountMinor is what the
// gateway charged and is the value used for any arithmetic.
type Payment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GatewayRef  string             `bson:"gateway_ref" json:"transactionId"`
	UserEmail   string             `bson:"user_email" json:"userEmail"`
	ClubID      primitive.ObjectID `bson:"club_id" json:"clubId"`
	ClubName    string             `bson:"club_name,omitempty" json:"clubName,omitempty"`
	Amount      float64            `bson:"amount" json:"amount"`
	AmountMinor int64              `bson:"amount_minor" json:"amountMinor"`
	Currency    string             `bson:"currency" json:"currency"`
	Status      string             `bson:"status" json:"status"`

	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}
