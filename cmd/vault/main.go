package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/org/assetvault/internal/password"
)

var rootCmd = &cobra.Command{
	Use:   "vault",
	Short: "AssetVault CLI",
	Long:  "A CLI for managing asset vaults, secrets and rotations.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadConfig()
		// Env var overrides are applied in newClient()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: table, json, raw")
	rootCmd.PersistentFlags().StringVar(&outputField, "field", "", "Print only this field (use with -format=raw)")

	rootCmd.AddCommand(configureCmd())
	rootCmd.AddCommand(vaultCmd())
	rootCmd.AddCommand(secretCmd())
	rootCmd.AddCommand(credentialCmd())
	rootCmd.AddCommand(accessCmd())
	rootCmd.AddCommand(rotationCmd())
	rootCmd.AddCommand(passwordCmd())
}

// --- configure ---

func configureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Save server address and principal identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetString("address"); v != "" {
				cfg.Address = v
			}
			if v, _ := cmd.Flags().GetInt64("principal-id"); v != 0 {
				cfg.PrincipalID = v
			}
			if v, _ := cmd.Flags().GetString("principal-name"); v != "" {
				cfg.PrincipalName = v
			}
			if v, _ := cmd.Flags().GetString("principal-role"); v != "" {
				cfg.PrincipalRole = v
			}
			if err := saveConfig(); err != nil {
				printError(err.Error())
				return nil
			}
			printSuccess("Configuration saved.")
			return nil
		},
	}
	cmd.Flags().String("address", "", "Server address")
	cmd.Flags().Int64("principal-id", 0, "Principal user ID")
	cmd.Flags().String("principal-name", "", "Principal username")
	cmd.Flags().String("principal-role", "", "Principal role")
	return cmd
}

// --- vault ---

func vaultCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "vault", Short: "Manage asset vaults"}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a vault for an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, _ := cmd.Flags().GetInt64("asset")
			description, _ := cmd.Flags().GetString("description")
			result, err := newClient().post("/v1/vaults", map[string]any{
				"asset_id":    assetID,
				"name":        args[0],
				"description": description,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	createCmd.Flags().Int64("asset", 0, "Asset ID")
	createCmd.Flags().String("description", "", "Vault description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List vaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/vaults")
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/vaults/" + args[0])
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a vault or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			description, _ := cmd.Flags().GetString("description")
			result, err := newClient().put("/v1/vaults/"+args[0], map[string]any{
				"name":        name,
				"description": description,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	updateCmd.Flags().String("name", "", "New name")
	updateCmd.Flags().String("description", "", "New description")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().delete("/v1/vaults/"+args[0], nil); err != nil {
				printError(err.Error())
				return nil
			}
			printSuccess("Success! Vault deleted.")
			return nil
		},
	}

	versionsCmd := &cobra.Command{
		Use:   "versions <id>",
		Short: "Show a vault's change history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/vaults/" + args[0] + "/versions")
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a vault (encrypted values carried through)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/vaults/" + args[0] + "/export")
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a vault export file under a new asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, _ := cmd.Flags().GetInt64("asset")
			data, err := os.ReadFile(args[0])
			if err != nil {
				printError(err.Error())
				return nil
			}
			var export map[string]any
			if err := jsonUnmarshal(data, &export); err != nil {
				printError(err.Error())
				return nil
			}
			result, err := newClient().post("/v1/vaults/import", map[string]any{
				"asset_id": assetID,
				"export":   export,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	importCmd.Flags().Int64("asset", 0, "Target asset ID")

	cmd.AddCommand(createCmd, listCmd, getCmd, updateCmd, deleteCmd, versionsCmd, exportCmd, importCmd)
	return cmd
}

// --- secret ---

func secretCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "secret", Short: "Manage vault secrets"}

	addCmd := &cobra.Command{
		Use:   "add <vault-id> <label>",
		Short: "Add a secret to a vault",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secretType, _ := cmd.Flags().GetString("type")
			value, _ := cmd.Flags().GetString("value")
			result, err := newClient().post("/v1/vaults/"+args[0]+"/secrets", map[string]any{
				"type":  secretType,
				"label": args[1],
				"value": value,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	addCmd.Flags().String("type", "password", "Secret type: password, ip_address, vpn_key, license_file")
	addCmd.Flags().String("value", "", "Secret value")

	listCmd := &cobra.Command{
		Use:   "list <vault-id>",
		Short: "List a vault's secrets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/vaults/" + args[0] + "/secrets")
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	revealCmd := &cobra.Command{
		Use:   "reveal <id>",
		Short: "Decrypt and print a secret value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/secrets/" + args[0] + "/value")
			if err != nil {
				printError(err.Error())
				return nil
			}
			if v, ok := result["value"].(string); ok && outputFormat == "table" {
				fmt.Println(v)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a secret's label or value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, _ := cmd.Flags().GetString("label")
			value, _ := cmd.Flags().GetString("value")
			result, err := newClient().put("/v1/secrets/"+args[0], map[string]any{
				"label": label,
				"value": value,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	updateCmd.Flags().String("label", "", "New label")
	updateCmd.Flags().String("value", "", "New value")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().delete("/v1/secrets/"+args[0], nil); err != nil {
				printError(err.Error())
				return nil
			}
			printSuccess("Success! Secret deleted.")
			return nil
		},
	}

	cmd.AddCommand(addCmd, listCmd, revealCmd, updateCmd, deleteCmd)
	return cmd
}

// --- credential ---

func credentialCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "credential", Short: "Manage standalone credentials"}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a standalone credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credType, _ := cmd.Flags().GetString("type")
			value, _ := cmd.Flags().GetString("value")
			category, _ := cmd.Flags().GetString("category")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			description, _ := cmd.Flags().GetString("description")
			result, err := newClient().post("/v1/credentials", map[string]any{
				"name":        args[0],
				"type":        credType,
				"value":       value,
				"category":    category,
				"tags":        tags,
				"description": description,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	createCmd.Flags().String("type", "password", "Secret type")
	createCmd.Flags().String("value", "", "Credential value")
	createCmd.Flags().String("category", "", "Category")
	createCmd.Flags().StringSlice("tags", nil, "Tags")
	createCmd.Flags().String("description", "", "Description")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search standalone credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, _ := cmd.Flags().GetString("query")
			credType, _ := cmd.Flags().GetString("type")
			category, _ := cmd.Flags().GetString("category")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			params := []string{}
			if q != "" {
				params = append(params, "q="+q)
			}
			if credType != "" {
				params = append(params, "type="+credType)
			}
			if category != "" {
				params = append(params, "category="+category)
			}
			if len(tags) > 0 {
				params = append(params, "tags="+strings.Join(tags, ","))
			}
			if limit > 0 {
				params = append(params, "limit="+strconv.Itoa(limit))
			}
			if offset > 0 {
				params = append(params, "offset="+strconv.Itoa(offset))
			}
			path := "/v1/credentials"
			if len(params) > 0 {
				path += "?" + strings.Join(params, "&")
			}
			result, err := newClient().get(path)
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	searchCmd.Flags().String("query", "", "Free-text match on name and description")
	searchCmd.Flags().String("type", "", "Filter by type")
	searchCmd.Flags().String("category", "", "Filter by category")
	searchCmd.Flags().StringSlice("tags", nil, "Require all of these tags")
	searchCmd.Flags().Int("limit", 0, "Page size (default 50, max 100)")
	searchCmd.Flags().Int("offset", 0, "Page offset")

	revealCmd := &cobra.Command{
		Use:   "reveal <id>",
		Short: "Decrypt and print a credential value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/credentials/" + args[0] + "/value")
			if err != nil {
				printError(err.Error())
				return nil
			}
			if v, ok := result["value"].(string); ok && outputFormat == "table" {
				fmt.Println(v)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a standalone credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().delete("/v1/credentials/"+args[0], nil); err != nil {
				printError(err.Error())
				return nil
			}
			printSuccess("Success! Credential deleted.")
			return nil
		},
	}

	cmd.AddCommand(createCmd, searchCmd, revealCmd, deleteCmd)
	return cmd
}

// --- access ---

func accessCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "access", Short: "Manage vault access"}

	grantCmd := &cobra.Command{
		Use:   "grant <user-id> <vault-id> <type>",
		Short: "Grant a permission (admin only)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := strconv.ParseInt(args[0], 10, 64)
			vaultID, _ := strconv.ParseInt(args[1], 10, 64)
			expiresAt, _ := cmd.Flags().GetString("expires-at")
			result, err := newClient().post("/v1/access/grants", map[string]any{
				"user_id":         userID,
				"vault_id":        vaultID,
				"permission_type": args[2],
				"expires_at":      expiresAt,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	grantCmd.Flags().String("expires-at", "", "Expiry (RFC3339), empty for no expiry")

	revokeCmd := &cobra.Command{
		Use:   "revoke <user-id> <vault-id> [type]",
		Short: "Revoke one or all permissions (admin only)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := strconv.ParseInt(args[0], 10, 64)
			vaultID, _ := strconv.ParseInt(args[1], 10, 64)
			permType := ""
			if len(args) == 3 {
				permType = args[2]
			}
			if err := newClient().delete("/v1/access/grants", map[string]any{
				"user_id":         userID,
				"vault_id":        vaultID,
				"permission_type": permType,
			}); err != nil {
				printError(err.Error())
				return nil
			}
			printSuccess("Success! Access revoked.")
			return nil
		},
	}

	requestCmd := &cobra.Command{
		Use:   "request <vault-id> <type>",
		Short: "Request a permission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultID, _ := strconv.ParseInt(args[0], 10, 64)
			result, err := newClient().post("/v1/access/requests", map[string]any{
				"vault_id":        vaultID,
				"permission_type": args[1],
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "List permission requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			path := "/v1/access/requests"
			if status != "" {
				path += "?status=" + status
			}
			result, err := newClient().get(path)
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	requestsCmd.Flags().String("status", "", "Filter by status: pending, approved, denied, expired")

	approveCmd := &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Approve a permission request (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			result, err := newClient().post("/v1/access/requests/"+args[0]+"/approve",
				map[string]any{"notes": notes})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	approveCmd.Flags().String("notes", "", "Approval notes")

	denyCmd := &cobra.Command{
		Use:   "deny <request-id>",
		Short: "Deny a permission request (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			_, err := newClient().post("/v1/access/requests/"+args[0]+"/deny",
				map[string]any{"notes": notes})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printSuccess("Success! Request denied.")
			return nil
		},
	}
	denyCmd.Flags().String("notes", "", "Denial notes")

	logCmd := &cobra.Command{
		Use:   "log <vault-id>",
		Short: "Show a vault's access log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/vaults/" + args[0] + "/access-log")
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	cmd.AddCommand(grantCmd, revokeCmd, requestCmd, requestsCmd, approveCmd, denyCmd, logCmd)
	return cmd
}

// --- rotation ---

func rotationCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "rotation", Short: "Manage password rotation"}

	rotateCmd := &cobra.Command{
		Use:   "rotate <secret-id>",
		Short: "Rotate a password secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, _ := cmd.Flags().GetString("value")
			reason, _ := cmd.Flags().GetString("reason")
			emergency, _ := cmd.Flags().GetBool("emergency")
			skipValidation, _ := cmd.Flags().GetBool("skip-validation")

			path := "/v1/secrets/" + args[0] + "/rotate"
			body := map[string]any{"new_password": value, "reason": reason}
			if emergency {
				path = "/v1/secrets/" + args[0] + "/emergency-rotate"
				body["skip_validation"] = skipValidation
			}
			result, err := newClient().post(path, body)
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	rotateCmd.Flags().String("value", "", "New password")
	rotateCmd.Flags().String("reason", "", "Rotation reason")
	rotateCmd.Flags().Bool("emergency", false, "Emergency rotation")
	rotateCmd.Flags().Bool("skip-validation", false, "Skip validation (emergency only)")

	scheduleCmd := &cobra.Command{
		Use:   "schedule <vault-id> <interval-days>",
		Short: "Set a vault's rotation schedule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := strconv.Atoi(args[1])
			alert, _ := cmd.Flags().GetInt("alert-days")
			result, err := newClient().put("/v1/vaults/"+args[0]+"/rotation-schedule", map[string]any{
				"rotation_interval_days": interval,
				"alert_days_before":      alert,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	scheduleCmd.Flags().Int("alert-days", 7, "Days before due date to start alerting")

	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "List upcoming and overdue rotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days-ahead")
			path := "/v1/rotation/alerts"
			if days > 0 {
				path += "?days_ahead=" + strconv.Itoa(days)
			}
			result, err := newClient().get(path)
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	alertsCmd.Flags().Int("days-ahead", 0, "Alert window in days (0 uses each schedule's alert lead)")

	complianceCmd := &cobra.Command{
		Use:   "compliance",
		Short: "Show rotation compliance metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/rotation/compliance")
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history <secret-id>",
		Short: "Show a secret's rotation history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := newClient().get("/v1/secrets/" + args[0] + "/rotation-history")
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	batchCmd := &cobra.Command{Use: "batch", Short: "Batch rotation"}

	batchCreateCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a rotation batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			result, err := newClient().post("/v1/rotation/batches", map[string]any{
				"name":  args[0],
				"notes": notes,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	batchCreateCmd.Flags().String("notes", "", "Batch notes")

	batchExecuteCmd := &cobra.Command{
		Use:   "execute <batch-id> <secret-id=password ...>",
		Short: "Execute a rotation batch",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			items := []map[string]any{}
			for _, pair := range args[1:] {
				parts := strings.SplitN(pair, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid secret-id=password pair: %s", pair)
				}
				id, err := strconv.ParseInt(parts[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid secret id: %s", parts[0])
				}
				items = append(items, map[string]any{"secret_id": id, "new_password": parts[1]})
			}
			result, err := newClient().post("/v1/rotation/batches/"+args[0]+"/execute",
				map[string]any{"items": items})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}

	batchCmd.AddCommand(batchCreateCmd, batchExecuteCmd)
	cmd.AddCommand(rotateCmd, scheduleCmd, alertsCmd, complianceCmd, historyCmd, batchCmd)
	return cmd
}

// --- password (offline) ---

func passwordCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "password", Short: "Offline password tools"}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a password locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := password.DefaultGenerateOptions()
			if v, _ := cmd.Flags().GetInt("length"); v > 0 {
				opts.Length = v
			}
			opts.Special, _ = cmd.Flags().GetBool("special")
			opts.ExcludeAmbiguous, _ = cmd.Flags().GetBool("exclude-ambiguous")

			pw, err := password.Generate(opts)
			if err != nil {
				printError(err.Error())
				return nil
			}
			fmt.Println(pw)
			return nil
		},
	}
	generateCmd.Flags().Int("length", 16, "Password length (min 8)")
	generateCmd.Flags().Bool("special", true, "Include special characters")
	generateCmd.Flags().Bool("exclude-ambiguous", true, "Exclude ambiguous characters (0Ol1I)")

	strengthCmd := &cobra.Command{
		Use:   "strength <password>",
		Short: "Analyze password strength locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := password.AnalyzeStrength(args[0])
			pol := password.MeetsPolicy(args[0], password.DefaultPolicy())
			printResult(map[string]any{
				"score":        r.Score,
				"entropy_bits": r.EntropyBits,
				"feedback":     r.Feedback,
				"compliant":    pol.Compliant,
				"violations":   pol.Violations,
			})
			return nil
		},
	}

	cmd.AddCommand(generateCmd, strengthCmd)
	return cmd
}

func jsonUnmarshal(data []byte, dst any) error {
	return json.Unmarshal(data, dst)
}
