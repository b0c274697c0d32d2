package backend

import (
	"context"
	"fmt"
)

// AddMember verifies the username against the site directory (LDAP when
// configured, local passwd otherwise) and creates the sacctmgr association.
func (b *Backend) AddMember(ctx context.Context, account, username string) ([]string, error) {
	exists, err := b.userExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("verify user %s: %w", username, err)
	}
	if !exists {
		return nil, fmt.Errorf("user %q: %w", username, ErrUserNotFound)
	}
	cli := b.newCLI()
	if err := cli.AddUser(ctx, username, account); err != nil {
		return nil, fmt.Errorf("account %s: add user %s: %w", account, username, err)
	}
	return cli.Commands(), nil
}

// RemoveMember cancels the user's running jobs in the account and removes
// the association.
func (b *Backend) RemoveMember(ctx context.Context, account, username string) ([]string, error) {
	cli := b.newCLI()
	if err := cli.CancelJobs(ctx, account, username); err != nil {
		return nil, fmt.Errorf("account %s: cancel jobs of %s: %w", account, username, err)
	}
	if err := cli.RemoveUser(ctx, username, account); err != nil {
		return nil, fmt.Errorf("account %s: remove user %s: %w", account, username, err)
	}
	return cli.Commands(), nil
}

func (b *Backend) userExists(ctx context.Context, username string) (bool, error) {
	if b.ldap != nil {
		return b.ldap.UserExists(username)
	}
	return b.newCLI().LocalUserExists(ctx, username)
}
