package domain

import "context"

type Service interface {
	SignIn(ctx context.Context, req SignInRequest) (Session, error)
	// SignOut erases the user's session record. Tokens issued before stop verifying.
	SignOut(ctx context.Context, token string) error
	// Verify returns the user behind a live token or ErrUnauthenticated.
	Verify(ctx context.Context, token string) (User, error)
	Users() []User
}
