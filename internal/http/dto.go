package http

import (
	"time"

	"bounty-board/internal/domain"
)

type signupRequest struct {
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Pointer fields distinguish an absent field from a zero value.
type bountyRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Reward       *float64   `json:"reward"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	About        *string    `json:"about"`
	Eligibility  *string    `json:"eligibility"`
	Requirements *string    `json:"requirements"`
	Procedure    *string    `json:"procedure"`
	Status       *string    `json:"status"`
}

func (r bountyRequest) input() domain.BountyInput {
	return domain.BountyInput{
		Title:        r.Title,
		Description:  r.Description,
		Reward:       r.Reward,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		About:        r.About,
		Eligibility:  r.Eligibility,
		Requirements: r.Requirements,
		Procedure:    r.Procedure,
	}
}

func (r bountyRequest) patch() domain.BountyPatch {
	return domain.BountyPatch(r.input())
}

type submissionRequest struct {
	Solution string   `json:"solution"`
	Wallet   string   `json:"wallet"`
	UserIDs  []string `json:"userIds"`
}

type UserResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
	CreatedAt  string `json:"createdAt"`
}

type UserRefResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type BountyResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Reward       float64         `json:"reward"`
	StartDate    string          `json:"startDate"`
	EndDate      string          `json:"endDate"`
	Status       string          `json:"status"`
	CreatedBy    UserRefResponse `json:"createdBy"`
	About        string          `json:"about"`
	Eligibility  string          `json:"eligibility"`
	Requirements string          `json:"requirements"`
	Procedure    string          `json:"procedure"`
	Submissions  []string        `json:"submissions"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

type BountyRefResponse struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Reward float64 `json:"reward"`
}

type SubmissionResponse struct {
	ID        string             `json:"id"`
	Bounty    *BountyRefResponse `json:"bounty,omitempty"`
	BountyID  string             `json:"bountyId"`
	Users     []UserRefResponse  `json:"users"`
	Solution  string             `json:"solution"`
	Wallet    string             `json:"wallet"`
	Archived  bool               `json:"archived"`
	CreatedAt string             `json:"createdAt"`
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}

func userRefToResponse(r domain.UserRef) UserRefResponse {
	return UserRefResponse{
		ID:        r.ID,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Name:      r.Name(),
		Email:     r.Email,
	}
}

func bountyToResponse(b domain.Bounty) BountyResponse {
	resp := BountyResponse{
		ID:           b.ID,
		Title:        b.Title,
		Description:  b.Description,
		Reward:       b.Reward,
		StartDate:    b.StartDate.Format(time.RFC3339),
		EndDate:      b.EndDate.Format(time.RFC3339),
		Status:       string(b.Status),
		CreatedBy:    UserRefResponse{ID: b.CreatedBy},
		About:        b.About,
		Eligibility:  b.Eligibility,
		Requirements: b.Requirements,
		Procedure:    b.Procedure,
		Submissions:  b.Submissions,
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    b.UpdatedAt.Format(time.RFC3339),
	}
	if b.Creator != nil {
		resp.CreatedBy = userRefToResponse(*b.Creator)
	}
	if resp.Submissions == nil {
		resp.Submissions = []string{}
	}
	return resp
}

func submissionToResponse(s domain.Submission) SubmissionResponse {
	resp := SubmissionResponse{
		ID:        s.ID,
		BountyID:  s.BountyID,
		Users:     make([]UserRefResponse, 0, len(s.UserIDs)),
		Solution:  s.Solution,
		Wallet:    s.Wallet,
		Archived:  s.ArchiveKey != "",
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
	if s.Bounty != nil {
		resp.Bounty = &BountyRefResponse{ID: s.Bounty.ID, Title: s.Bounty.Title, Reward: s.Bounty.Reward}
	}
	if len(s.Users) > 0 {
		for _, u := range s.Users {
			resp.Users = append(resp.Users, userRefToResponse(u))
		}
	} else {
		for _, id := range s.UserIDs {
			resp.Users = append(resp.Users, UserRefResponse{ID: id})
		}
	}
	return resp
}
