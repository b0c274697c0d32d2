package backend

import (
	"context"
	"fmt"

	"spard/internal/pkg/client/slurmcli"
)

// ProvisionAccount creates the sacctmgr account for a new marketplace
// resource. Description and organization fall back to the account name
// inside the client.
func (b *Backend) ProvisionAccount(ctx context.Context, name, description, organization string) ([]string, error) {
	if name == "" {
		return nil, &ValidationError{Msg: "account name is required"}
	}
	cli := b.newCLI()
	if err := cli.CreateAccount(ctx, name, description, organization); err != nil {
		return nil, fmt.Errorf("account %s: create: %w", name, err)
	}
	b.logger.Info("provisioned account", "account", name)
	return cli.Commands(), nil
}

// CurrentLimits reads the account's association rows back from the cluster,
// fairshare and limit specs as sacctmgr reports them.
func (b *Backend) CurrentLimits(ctx context.Context, account string) ([]slurmcli.AssocLimit, error) {
	if account == "" {
		return nil, &ValidationError{Msg: "account name is required"}
	}
	limits, err := b.newCLI().ListAccountLimits(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("account %s: list limits: %w", account, err)
	}
	return limits, nil
}
