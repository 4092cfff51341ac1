package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradepilot/internal/app"
	"tradepilot/internal/rules"
)

var (
	addOwner         string
	addKind          string
	addTargets       []string
	addRotateTopN    int
	addMaxSpend      float64
	addMaxSlippage   float64
	addTriggerType   string
	addTriggerValue  float64
	addTriggerWindow time.Duration
	addLookbackDays  int
	addCooldown      time.Duration
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage automation rules",
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new automation rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addOwner == "" {
			return fmt.Errorf("--owner is required")
		}
		if addTriggerValue <= 0 {
			return fmt.Errorf("--trigger-value must be greater than zero")
		}

		opts := app.AddRuleOptions{
			OwnerAddress:   addOwner,
			Kind:           addKind,
			Targets:        addTargets,
			RotateTopN:     addRotateTopN,
			MaxSpendUSD:    addMaxSpend,
			MaxSlippagePct: addMaxSlippage,
			TriggerType:    addTriggerType,
			TriggerValue:   addTriggerValue,
			TriggerWindow:  addTriggerWindow,
			LookbackDays:   addLookbackDays,
			Cooldown:       addCooldown,
		}

		return getApp().AddRule(cmd.Context(), opts)
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListRules(cmd.Context())
	},
}

var rulesPauseCmd = &cobra.Command{
	Use:   "pause <rule-id>",
	Short: "Pause a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SetRuleStatus(cmd.Context(), args[0], rules.StatusPaused)
	},
}

var rulesResumeCmd = &cobra.Command{
	Use:   "resume <rule-id>",
	Short: "Resume a paused rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SetRuleStatus(cmd.Context(), args[0], rules.StatusActive)
	},
}

func init() {
	rulesAddCmd.Flags().StringVar(&addOwner, "owner", "", "Owner address the rule belongs to")
	rulesAddCmd.Flags().StringVar(&addKind, "kind", "dca", "Rule kind: dca, rebalance, or rotate")
	rulesAddCmd.Flags().StringSliceVar(&addTargets, "targets", nil, "Target asset ids (comma separated)")
	rulesAddCmd.Flags().IntVar(&addRotateTopN, "rotate-top-n", 0, "Top-N universe size for rotate rules")
	rulesAddCmd.Flags().Float64Var(&addMaxSpend, "max-spend", 0, "Budget in USD per firing")
	rulesAddCmd.Flags().Float64Var(&addMaxSlippage, "max-slippage", 0, "Slippage cap in percent passed to the executor")
	rulesAddCmd.Flags().StringVar(&addTriggerType, "trigger", "price_drop_pct", "Trigger type: price_drop_pct, trend_pct, or momentum_pct")
	rulesAddCmd.Flags().Float64Var(&addTriggerValue, "trigger-value", 0, "Trigger threshold in percent")
	rulesAddCmd.Flags().DurationVar(&addTriggerWindow, "trigger-window", 0, "Reference window for trend triggers (e.g. 24h)")
	rulesAddCmd.Flags().IntVar(&addLookbackDays, "lookback-days", 0, "Lookback in days for momentum triggers")
	rulesAddCmd.Flags().DurationVar(&addCooldown, "cooldown", 0, "Minimum spacing between successful firings (e.g. 30m)")

	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesPauseCmd)
	rulesCmd.AddCommand(rulesResumeCmd)
}
