package clubs

import "github.com/dalemusser/clubsphere/internal/domain/models"

type createRequest struct {
	ClubName      string  `json:"clubName" validate:"required,max=120"`
	Description   string  `json:"description" validate:"max=5000"`
	Category      string  `json:"category" validate:"max=60"`
	Location      string  `json:"location" validate:"max=200"`
	BannerImage   string  `json:"bannerImage" validate:"omitempty,url"`
	MembershipFee float64 `json:"membershipFee" validate:"gte=0"`
	ManagerEmail  string  `json:"managerEmail"`
}

// clubResponse is a club with its member total counted from the ledger.
type clubResponse struct {
	models.Club
	TotalMembers int64 `json:"totalMembers"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,club_status"`
}

type joinRequest struct {
	UserEmail string `json:"userEmail"`
}

type memberStatusRequest struct {
	Status       string `json:"status" validate:"required"`
	ManagerEmail string `json:"managerEmail"`
}
