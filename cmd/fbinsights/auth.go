package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"fbinsights/pkg/auth"
	"fbinsights/pkg/config"
	"fbinsights/pkg/graph"
	"fbinsights/pkg/logger"
	"fbinsights/pkg/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	verifyLogin bool
	logoutAll   bool
	appID       string
	appSecret   string
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored page credentials",
	Long: `Manage stored Facebook page credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (FBINSIGHTS_PAGE_ID, FBINSIGHTS_ACCESS_TOKEN, read only)

Never share your access tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store a page ID and access token",
	Long: `Store a page ID and page access token under an account name.

If no account name is given the credentials are stored as "default",
which fetch uses when no other credentials are configured.`,
	Example: `  # Interactive login
  fbinsights auth login

  # Store a named account and check it against the API
  fbinsights auth login mypage --verify`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Remove stored credentials",
	Example: `  fbinsights auth logout mypage
  fbinsights auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with their access tokens masked.`,
	Args:  cobra.NoArgs,
	Run:   runList,
}

// exchangeCmd represents the auth exchange command
var exchangeCmd = &cobra.Command{
	Use:   "exchange [account]",
	Short: "Exchange a short-lived token for a long-lived one",
	Long: `Exchange a short-lived user or page token for a long-lived one and store
it under the account name.

The exchange needs your Meta app ID and secret, taken from --app-id and
--app-secret, the facebook.app_id and facebook.app_secret config keys, or
FBINSIGHTS_APP_ID and FBINSIGHTS_APP_SECRET.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runExchange,
}

// guideCmd represents the auth guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to get a page access token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowTokenGuide(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(exchangeCmd)
	authCmd.AddCommand(guideCmd)

	loginCmd.Flags().BoolVar(&verifyLogin, "verify", false, "check the credentials with a Graph API call before storing them")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored account")
	exchangeCmd.Flags().StringVar(&appID, "app-id", "", "Meta app ID")
	exchangeCmd.Flags().StringVar(&appSecret, "app-secret", "", "Meta app secret")
}

func accountArg(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultAccount
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fail("Failed to initialize credential manager", err)
	}

	name := accountArg(args)
	reader := bufio.NewReader(os.Stdin)

	auth.ShowQuickTokenGuide(os.Stdout)

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\nAccount '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("\nPage ID: ")
	pageID, err := reader.ReadString('\n')
	if err != nil {
		fail("Failed to read page ID", err)
	}
	pageID = strings.TrimSpace(pageID)

	fmt.Print("Page access token (hidden): ")
	token, err := readPassword(reader)
	if err != nil {
		fail("Failed to read access token", err)
	}

	creds := &auth.PageCredentials{Name: name, PageID: pageID, AccessToken: token}
	if err := creds.Graph().Validate(); err != nil {
		fail("Invalid credentials", err)
	}

	if verifyLogin {
		if err := testCredentials(cmd, creds); err != nil {
			fail("Credential check failed", err)
		}
		ui.PrintSuccess("Credentials verified")
	}

	if err := manager.Store(creds); err != nil {
		fail("Failed to store credentials", err)
	}

	logger.WithField("account", name).Info("Credentials stored")
	ui.PrintSuccess("Credentials stored for account: " + name)
	if name != auth.DefaultAccount {
		fmt.Println("\nUse the --account flag to fetch with this account:")
		fmt.Printf("  fbinsights fetch --account %s\n", name)
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fail("Failed to initialize credential manager", err)
	}

	if !logoutAll {
		name := accountArg(args)
		if err := manager.Delete(name); err != nil {
			fail("Failed to remove account", err)
		}
		ui.PrintSuccess("Removed account: " + name)
		return
	}

	accounts, err := manager.List()
	if err != nil {
		fail("Failed to list accounts", err)
	}
	removed := 0
	for _, acc := range accounts {
		if err := manager.Delete(acc.Name); err != nil {
			ui.PrintWarning("Failed to remove "+acc.Name, err)
			continue
		}
		removed++
	}
	ui.PrintSuccess(fmt.Sprintf("Removed %d accounts", removed))
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fail("Failed to initialize credential manager", err)
	}

	accounts, err := manager.List()
	if err != nil {
		fail("Failed to list accounts", err)
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
		fmt.Println("\nRun 'fbinsights auth login' to add one.")
		return
	}

	ui.PrintHighlight("Stored accounts")
	for _, acc := range accounts {
		safe := auth.SanitizeCredentials(acc)
		fmt.Println()
		ui.PrintInfo("Account", safe.Name)
		ui.PrintInfo("  Page ID", safe.PageID)
		ui.PrintInfo("  Token", safe.AccessToken)
		ui.PrintInfo("  Updated", safe.LastModified.Local().Format(time.RFC822))
		if !safe.ExpiresAt.IsZero() {
			expiry := safe.ExpiresAt.Local().Format(time.RFC822)
			if safe.Expired() {
				expiry += " " + ui.Red("(expired)")
			}
			ui.PrintInfo("  Expires", expiry)
		}
	}
}

func runExchange(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(nil)
	if err != nil {
		fail("Failed to load configuration", err)
	}
	if appID != "" {
		cfg.Facebook.AppID = appID
	}
	if appSecret != "" {
		cfg.Facebook.AppSecret = appSecret
	}

	manager, err := auth.NewManager()
	if err != nil {
		fail("Failed to initialize credential manager", err)
	}

	name := accountArg(args)
	reader := bufio.NewReader(os.Stdin)

	creds, _ := manager.Retrieve(name)
	if creds == nil {
		creds = &auth.PageCredentials{Name: name, PageID: cfg.Facebook.PageID}
	}
	if creds.PageID == "" {
		fmt.Print("Page ID: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fail("Failed to read page ID", err)
		}
		creds.PageID = strings.TrimSpace(input)
	}

	fmt.Print("Short-lived access token (hidden): ")
	short, err := readPassword(reader)
	if err != nil {
		fail("Failed to read access token", err)
	}

	token, err := auth.ExchangeLongLivedToken(cmd.Context(),
		auth.NewOAuthConfig(cfg.Facebook.AppID, cfg.Facebook.AppSecret, ""),
		short,
		auth.WithGraphEndpoint(cfg.Facebook.BaseURL, cfg.Facebook.APIVersion),
	)
	if err != nil {
		logger.WithError(err).Error("Token exchange failed")
		fail("Token exchange failed", err)
	}

	creds.AccessToken = token.AccessToken
	creds.ExpiresAt = token.Expiry
	if err := manager.Store(creds); err != nil {
		fail("Failed to store credentials", err)
	}

	ui.PrintSuccess("Long-lived token stored for account: " + name)
	if !token.Expiry.IsZero() {
		ui.PrintInfo("Expires", token.Expiry.Local().Format(time.RFC822))
	}
}

// readPassword reads a secret from stdin without echoing it when stdin is
// a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// testCredentials makes one cheap Graph API call with the credentials
func testCredentials(cmd *cobra.Command, creds *auth.PageCredentials) error {
	cfg := config.DefaultConfig()
	if loaded, err := config.Load(configFile, nil); err == nil {
		cfg = loaded
	}

	client, err := graph.NewClient(creds.Graph(),
		graph.WithBaseURL(cfg.Facebook.BaseURL),
		graph.WithAPIVersion(cfg.Facebook.APIVersion),
		graph.WithTimeout(cfg.Fetch.Timeout),
	)
	if err != nil {
		return err
	}
	_, err = client.FetchRecentPosts(cmd.Context(), 1)
	return err
}
