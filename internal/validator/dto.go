package validator

// SignUpRequest represents the request structure for account creation.
// Role is optional and defaults to student.
type SignUpRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,user_password"`
	Role     string `json:"role" validate:"omitempty,user_role"`
}

// SignInRequest represents the request structure for authentication
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest requires re-proving the current password; a valid
// session alone is not enough to rotate the secret.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,user_password"`
}

// ForgotPasswordRequest represents the reset request structure
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest carries the new secret; the reset token travels in the
// URL path.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,user_password"`
}

// UpdateProfileRequest represents the profile update structure. All fields
// optional; bound from multipart form because of the avatar file.
type UpdateProfileRequest struct {
	Name  *string `form:"name" json:"name" validate:"omitempty,min=2,max=50"`
	Email *string `form:"email" json:"email" validate:"omitempty,email"`
	Bio   *string `form:"bio" json:"bio" validate:"omitempty,max=500"`
}
