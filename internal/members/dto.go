package members

import "time"

// MemberRequest is the create/update payload for a member.
type MemberRequest struct {
	Name      string     `json:"name" validate:"required,max=150"`
	Email     string     `json:"email" validate:"required,email"`
	Phone     *string    `json:"phone,omitempty" validate:"omitempty,max=30"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	JoinedOn  *time.Time `json:"joined_on,omitempty"`
}

func (r MemberRequest) input() MemberInput {
	in := MemberInput{
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		BirthDate: r.BirthDate,
	}
	if r.JoinedOn != nil {
		in.JoinedOn = *r.JoinedOn
	}
	return in
}
