package idp

// TokenResponse — ответ endpoint'а /token.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// User — представление аккаунта в Identity Provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// EmailConfirmedAt — пустая строка, если адрес не подтверждён.
	EmailConfirmedAt string         `json:"email_confirmed_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        string         `json:"created_at,omitempty"`
}

// createUserRequest — тело POST /admin/users.
type createUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// passwordGrantRequest — тело POST /token?grant_type=password.
type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshGrantRequest — тело POST /token?grant_type=refresh_token.
type refreshGrantRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// updatePasswordRequest — тело PUT /admin/users/{id}.
type updatePasswordRequest struct {
	Password string `json:"password"`
}

// recoverRequest — тело POST /recover.
type recoverRequest struct {
	Email string `json:"email"`
}

// errorResponse — тело ответа об ошибке.
type errorResponse struct {
	Message          string `json:"msg,omitempty"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (e *errorResponse) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return e.Error
	}
}
