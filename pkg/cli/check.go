package cli

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"ethfaucet/pkg/config"
	"ethfaucet/pkg/contract"
	"ethfaucet/pkg/models"
	"ethfaucet/pkg/provider"
	"ethfaucet/pkg/unit"

	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("configuration check failed")

func (a *app) newCheckCommand() *cobra.Command {
	var jsonOut, dryRun bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test the configured providers and the contract artifact",
		Long: `check probes every configured provider, verifies they agree on the chain
id and that the contract is deployed on the first one that answers. A chain
id not yet in the configuration is saved unless --dry-run is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			printf := func(format string, args ...interface{}) {
				if !jsonOut {
					fmt.Fprintf(out, format, args...)
				}
			}

			report := a.check(cmd.Context(), printf, dryRun)
			if jsonOut {
				if err := printJSON(out, report); err != nil {
					return err
				}
			}
			if !report.ValidStructure || report.Inconsistent || report.Contract == nil || !report.Contract.Bound {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output test results as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Perform a trial run with no changes made")
	return cmd
}

func (a *app) check(ctx context.Context, printf func(string, ...interface{}), dryRun bool) models.CheckReport {
	report := models.CheckReport{
		ConfigPath:     a.path,
		ValidStructure: true,
		DryRun:         dryRun,
		ProviderCount:  len(a.cfg.ProviderURLs),
		ConfigChainID:  a.cfg.ChainID,
	}
	printf("Testing configuration at: %s\n", a.path)

	if err := config.Validate(a.cfg); err != nil {
		report.StructureErrors = append(report.StructureErrors, err.Error())
	}
	if _, err := a.cfg.Session(); err != nil {
		report.StructureErrors = append(report.StructureErrors, err.Error())
	}
	if len(report.StructureErrors) > 0 {
		report.ValidStructure = false
		for _, msg := range report.StructureErrors {
			printf("Error: %s\n", msg)
		}
		return report
	}

	printf("Found %d provider URLs.\n", len(a.cfg.ProviderURLs))

	opts := a.cfg.Discovery().Options
	var (
		observed *big.Int
		bindTo   *provider.RPCProvider
	)
	for _, url := range a.cfg.ProviderURLs {
		res, p := probe(ctx, url, opts)
		printf("  Provider: %s ... ", url)
		if res.Status != "ok" {
			printf("Failed: %s\n", res.Error)
			report.Providers = append(report.Providers, res)
			continue
		}
		printf("OK (ChainID: %d, network %s, %d accounts)", res.ChainID, res.NetworkID, res.Accounts)

		id := big.NewInt(res.ChainID)
		if observed == nil {
			observed = id
			report.ObservedChainID = res.ChainID
		} else if observed.Cmp(id) != 0 {
			printf(" - WARNING: ChainID mismatch with previous provider (%s)", observed.String())
			report.Inconsistent = true
		}

		switch {
		case a.cfg.ChainID == 0:
			a.cfg.ChainID = res.ChainID
			report.ChainIDUpdated = true
			printf(" - UPDATED CONFIG")
			if dryRun {
				printf(" (DRY RUN)")
			}
		case a.cfg.ChainID != res.ChainID:
			res.Error = fmt.Sprintf("Mismatch! Expected %d", a.cfg.ChainID)
			printf(" - MISMATCH! Expected %d", a.cfg.ChainID)
		default:
			printf(" - Verified")
		}
		printf("\n")
		report.Providers = append(report.Providers, res)

		if bindTo == nil {
			bindTo = p
		} else {
			p.Close()
		}
	}

	if report.Inconsistent {
		printf("\nWARNING: Inconsistent providers detected!\n")
		printf("The configured providers return conflicting Chain IDs.\n")
	}

	if bindTo != nil {
		report.Contract = a.checkContract(ctx, bindTo)
		bindTo.Close()
		if report.Contract.Bound {
			printf("Contract %s at %s (balance %s ETH)\n", report.Contract.Name, report.Contract.Address, report.Contract.Balance)
		} else {
			printf("Contract %s: %s\n", report.Contract.Name, report.Contract.Error)
		}
	} else {
		printf("No provider answered; cannot check the contract.\n")
	}

	if report.ChainIDUpdated {
		report.ConfigUpdated = true
		printf("\nUpdating configuration with fetched Chain ID...\n")
		if dryRun {
			printf("Dry run enabled: Configuration NOT saved.\n")
		} else if err := a.saveChainID(); err != nil {
			report.SaveError = err.Error()
			printf("Failed to save config: %v\n", err)
		} else {
			printf("Configuration saved successfully.\n")
		}
	}
	return report
}

// probe dials url and reads its chain id, network id and accounts. The
// provider is returned open only when the probe succeeded.
func probe(ctx context.Context, url string, opts provider.Options) (models.ProviderResult, *provider.RPCProvider) {
	res := models.ProviderResult{URL: url, Status: "error"}

	p, err := provider.Dial(ctx, url, opts)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	id, err := p.ChainID(ctx)
	if err != nil {
		p.Close()
		res.Error = fmt.Sprintf("Failed to get ChainID: %v", err)
		return res, nil
	}
	res.Status = "ok"
	res.ChainID = id.Int64()

	if nid, err := p.NetworkID(ctx); err == nil {
		res.NetworkID = nid.String()
	}
	if accounts, err := p.Accounts(ctx); err == nil {
		res.Accounts = len(accounts)
	}
	return res, p
}

func (a *app) checkContract(ctx context.Context, p provider.Provider) *models.ContractResult {
	res := &models.ContractResult{Name: a.cfg.ContractName}
	h, err := contract.Bind(ctx, p, a.cfg.Resolver(), a.cfg.ContractName, contract.Methods{
		Deposit:  a.cfg.DepositMethod,
		Withdraw: a.cfg.WithdrawMethod,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Bound = true
	res.Address = h.Address().Hex()
	if bal, err := h.Balance(ctx); err == nil {
		res.Balance = unit.FromWei(bal)
	} else {
		res.Error = err.Error()
	}
	return res
}

// saveChainID persists the observed chain id on top of the file contents,
// leaving environment overrides out of the file.
func (a *app) saveChainID() error {
	stored := a.file
	stored.ChainID = a.cfg.ChainID
	return config.SaveConfig(stored, a.path)
}
