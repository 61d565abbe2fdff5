package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/confraria/backend/pkg/utils"
)

// Credential is the result of issuing a login for a promoted candidate.
// TempPassword is shown once to the voter who triggered the promotion and
// mailed to the new member; it is never stored in plain text.
type Credential struct {
	AccountID    uuid.UUID `json:"account_id"`
	TempPassword string    `json:"temp_password"`
}

// CredentialIssuer creates login accounts with temporary passwords.
type CredentialIssuer struct {
	repo *Repository
}

// NewCredentialIssuer creates a credential issuer backed by the accounts table.
func NewCredentialIssuer(repo *Repository) *CredentialIssuer {
	return &CredentialIssuer{repo: repo}
}

// IssueCredential generates a temporary password and creates (or resets)
// the account for email. Safe to retry: a repeated call for the same email
// reuses the existing account and issues a fresh temporary password.
func (i *CredentialIssuer) IssueCredential(ctx context.Context, email, displayName string) (*Credential, error) {
	tempPassword, err := utils.GenerateTempPassword()
	if err != nil {
		return nil, fmt.Errorf("generate temp password: %w", err)
	}
	hash, err := utils.HashPassword(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("hash temp password: %w", err)
	}
	accountID, err := i.repo.Upsert(ctx, email, hash)
	if err != nil {
		return nil, fmt.Errorf("create account for %s: %w", email, err)
	}
	return &Credential{AccountID: accountID, TempPassword: tempPassword}, nil
}
