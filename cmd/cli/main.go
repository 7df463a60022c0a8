package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	apiKey  string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledger-cli",
		Short: "QuillPay ledger CLI tool",
		Long:  `A command line interface for interacting with the QuillPay ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("LEDGER_API_KEY"), "API key (defaults to LEDGER_API_KEY)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd())
	rootCmd.AddCommand(transferCmd())
	rootCmd.AddCommand(webhookCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var (
		businessName string
		email        string
		currency     string
		balance      string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account and print its API key",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/accounts", map[string]any{
				"business_name":   businessName,
				"email":           email,
				"currency":        currency,
				"initial_balance": balance,
			})
		},
	}
	createCmd.Flags().StringVar(&businessName, "name", "", "Business name")
	createCmd.Flags().StringVar(&email, "email", "", "Account email")
	createCmd.Flags().StringVar(&currency, "currency", "USD", "Account currency")
	createCmd.Flags().StringVar(&balance, "balance", "0", "Initial balance")
	createCmd.MarkFlagRequired("name")
	createCmd.MarkFlagRequired("email")

	getCmd := &cobra.Command{
		Use:   "get [account-id]",
		Short: "Fetch an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/accounts/"+args[0], nil)
		},
	}

	cmd.AddCommand(createCmd, getCmd)

	return cmd
}

func transferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Ledger operations",
	}

	var (
		txType         string
		fromAccount    string
		toAccount      string
		amount         string
		currency       string
		description    string
		idempotencyKey string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Execute a credit, debit or transfer",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/transfer", map[string]any{
				"type":            txType,
				"from_account":    fromAccount,
				"to_account":      toAccount,
				"amount":          amount,
				"currency":        currency,
				"description":     description,
				"idempotency_key": idempotencyKey,
			})
		},
	}
	createCmd.Flags().StringVar(&txType, "type", "transfer", "Operation type: credit, debit or transfer")
	createCmd.Flags().StringVar(&fromAccount, "from", "", "Source account ID")
	createCmd.Flags().StringVar(&toAccount, "to", "", "Destination account ID")
	createCmd.Flags().StringVar(&amount, "amount", "", "Amount in currency units")
	createCmd.Flags().StringVar(&currency, "currency", "USD", "Currency code")
	createCmd.Flags().StringVar(&description, "description", "", "Free-form description")
	createCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key")
	createCmd.MarkFlagRequired("amount")

	getCmd := &cobra.Command{
		Use:   "get [transaction-id]",
		Short: "Fetch a single transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/transfer/"+args[0], nil)
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info [parent-key]",
		Short: "Fetch all records of a transfer group",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/transfer/info/"+args[0], nil)
		},
	}

	var listAccount string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions for an account",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/transfer/list?account_id="+listAccount, nil)
		},
	}
	listCmd.Flags().StringVar(&listAccount, "account", "", "Account ID")
	listCmd.MarkFlagRequired("account")

	cmd.AddCommand(createCmd, getCmd, infoCmd, listCmd)

	return cmd
}

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Webhook subscription operations",
	}

	var (
		url    string
		secret string
		events []string
	)

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Register a webhook endpoint",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/webhooks/set", map[string]any{
				"url":    url,
				"secret": secret,
				"events": events,
			})
		},
	}
	setCmd.Flags().StringVar(&url, "endpoint", "", "Endpoint URL")
	setCmd.Flags().StringVar(&secret, "secret", "", "HMAC signing secret")
	setCmd.Flags().StringSliceVar(&events, "events", nil, "Event types (empty subscribes to all)")
	setCmd.MarkFlagRequired("endpoint")

	var webhookID string
	unsetCmd := &cobra.Command{
		Use:   "unset",
		Short: "Remove a webhook endpoint",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, "/webhooks/unset", map[string]any{
				"webhook_id": webhookID,
			})
		},
	}
	unsetCmd.Flags().StringVar(&webhookID, "id", "", "Webhook ID")
	unsetCmd.MarkFlagRequired("id")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered webhooks",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, "/webhooks/", nil)
		},
	}

	cmd.AddCommand(setCmd, unsetCmd, listCmd)

	return cmd
}

func doRequest(method, path string, payload map[string]any) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		fmt.Println(string(respBody))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\n", resp.StatusCode)
		os.Exit(1)
	}
}
