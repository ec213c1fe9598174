// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpdateUserRequest struct {
	DisplayName          *string `json:"display_name,omitempty"          validate:"omitempty,min=1,max=100"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
	DeviceID             *string `json:"device_id,omitempty"             validate:"omitempty,max=128"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UpdateUserTierRequest struct {
	Tier string `json:"tier" validate:"required,oneof=basic premium"`
}

type UserResponse struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email,omitempty"`
	DisplayName          string     `json:"display_name"`
	Role                 string     `json:"role"`
	Tier                 string     `json:"tier"`
	AvailableSpins       int        `json:"available_spins"`
	LastSpinDate         *time.Time `json:"last_spin_date,omitempty"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Tier     string `json:"tier"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                   u.ID,
		Email:                u.Email,
		DisplayName:          u.DisplayName,
		Role:                 u.Role,
		Tier:                 u.Tier,
		AvailableSpins:       u.AvailableSpins,
		LastSpinDate:         u.LastSpinDate,
		NotificationsEnabled: u.NotificationsEnabled,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
