package cli

import (
	"fmt"

	"ethfaucet/pkg/provider"
	"ethfaucet/pkg/session"
	"ethfaucet/pkg/unit"

	"github.com/spf13/cobra"
)

func (a *app) newBalanceCommand() *cobra.Command {
	var wei bool
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the contract balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.logger(false)
			if err != nil {
				return err
			}
			s, err := a.startSession(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer s.Close()

			raw, err := s.ReadBalance(cmd.Context())
			if err != nil {
				if st := s.State(); st.ContractErr != "" {
					return fmt.Errorf("%s", st.ContractErr)
				}
				return err
			}
			if wei {
				fmt.Fprintln(cmd.OutOrStdout(), raw.String())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ETH\n", unit.FromWei(raw))
			return nil
		},
	}
	cmd.Flags().BoolVar(&wei, "wei", false, "Print the raw wei amount")
	return cmd
}

func (a *app) newActionCommand(kind session.ActionKind) *cobra.Command {
	var jsonOut bool
	short := "Donate the configured amount to the contract"
	if kind == session.ActionWithdraw {
		short = "Withdraw the configured amount from the contract"
	}
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.logger(false)
			if err != nil {
				return err
			}
			s, err := a.startSession(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer s.Close()

			act, amount := s.Deposit, a.cfg.DepositAmount
			if kind == session.ActionWithdraw {
				act = s.Withdraw
				amount = a.cfg.WithdrawAmount
			}

			res, err := act(cmd.Context())
			if jsonOut {
				if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
					return perr
				}
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s of %s ETH from %s: %s\n", kind, amount, res.From, res.TxHash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

func (a *app) newAccountsCommand() *cobra.Command {
	var request bool
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the accounts the provider exposes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := provider.Discover(cmd.Context(), a.cfg.Discovery())
			if err != nil {
				return err
			}
			defer p.Close()

			list := p.Accounts
			if request {
				list = p.RequestAccounts
			}
			accounts, err := list(cmd.Context())
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts authorized.")
				return nil
			}
			for i, acc := range accounts {
				marker := ""
				if i == 0 {
					marker = " (active)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", acc.Hex(), marker)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&request, "request", false, "Ask the wallet to authorize accounts first")
	return cmd
}
