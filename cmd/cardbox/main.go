package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	apiclient "github.com/cardboxhq/cardbox/pkg/api/client"
	"github.com/cardboxhq/cardbox/pkg/config"
	"github.com/cardboxhq/cardbox/pkg/session"
)

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "register":
		err = commandRegister(args)
	case "login":
		err = commandLogin(args)
	case "logout":
		err = commandLogout(args)
	case "whoami":
		err = commandWhoami(args)
	case "reset":
		err = commandReset(args)
	case "card":
		err = commandCard(args)
	case "tx":
		err = commandTransaction(args)
	case "pay":
		err = commandPayment(args)
	case "rewards":
		err = commandRewards(args)
	case "dispute":
		err = commandDispute(args)
	case "notify":
		err = commandNotify(args)
	case "summary":
		err = commandSummary(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient() (*apiclient.Client, config.ClientConfig, error) {
	cfg := config.LoadClientConfig()
	cli, err := apiclient.New(cfg.APIBaseURL)
	return cli, cfg, err
}

// authedSession resolves the session gate before any protected call. The gate
// starts unknown and only an explicit resolution may authorize a request.
func authedSession() (*session.Manager, string, error) {
	store, err := session.DefaultStore()
	if err != nil {
		return nil, "", err
	}
	mgr := session.NewManager(store)
	state, err := mgr.Resolve()
	if err != nil {
		return nil, "", fmt.Errorf("read session: %w", err)
	}
	if state != session.StateAuthenticated {
		return nil, "", errors.New("please login first using 'cardbox login'")
	}
	return mgr, mgr.Token(), nil
}

func requestContext(cfg config.ClientConfig) (context.Context, context.CancelFunc) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func commandRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" {
		return errors.New("--name is required")
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret := strings.TrimSpace(*password)
	if secret == "" {
		var err error
		secret, err = promptPassword("Password")
		if err != nil {
			return err
		}
	}

	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	account, err := client.Register(ctx, *name, *email, secret)
	if err != nil {
		return err
	}
	fmt.Printf("account created: %s (%s)\n", account.ID, account.Email)
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret := strings.TrimSpace(*password)
	if secret == "" {
		var err error
		secret, err = promptPassword("Password")
		if err != nil {
			return err
		}
	}

	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	resp, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}

	store, err := session.DefaultStore()
	if err != nil {
		return err
	}
	mgr := session.NewManager(store)
	ident, err := mgr.Login(resp.Token, *email)
	if err != nil {
		if errors.Is(err, session.ErrMalformedToken) {
			// token kept; the server stays authoritative on validity
			fmt.Fprintln(os.Stderr, "warning: could not decode identity from token")
		} else {
			return err
		}
	}
	if ident.Email != "" {
		fmt.Printf("logged in as %s\n", ident.Email)
	} else {
		fmt.Println("login successful")
	}
	return nil
}

func commandLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	fs.Parse(args)

	store, err := session.DefaultStore()
	if err != nil {
		return err
	}
	if err := session.NewManager(store).Logout(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func commandWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	fs.Parse(args)

	store, err := session.DefaultStore()
	if err != nil {
		return err
	}
	mgr := session.NewManager(store)
	state, err := mgr.Resolve()
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if state != session.StateAuthenticated {
		fmt.Println("not logged in")
		return nil
	}
	sess := mgr.Current()
	if sess.User.Email != "" {
		fmt.Printf("%s (%s)\n", sess.User.Email, sess.User.ID)
	} else {
		fmt.Println("logged in (identity unavailable)")
	}
	return nil
}

func commandReset(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: cardbox reset [request|confirm]")
	}
	switch args[0] {
	case "request":
		return resetRequest(args[1:])
	case "confirm":
		return resetConfirm(args[1:])
	default:
		return fmt.Errorf("unknown reset command: %s", args[0])
	}
}

func resetRequest(args []string) error {
	fs := flag.NewFlagSet("reset request", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	if err := client.RequestPasswordReset(ctx, *email); err != nil {
		return err
	}
	fmt.Println("if the account exists, a reset token has been issued")
	return nil
}

func resetConfirm(args []string) error {
	fs := flag.NewFlagSet("reset confirm", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	token := fs.String("token", "", "Reset token")
	password := fs.String("password", "", "New password (supply to avoid prompt)")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	if strings.TrimSpace(*token) == "" {
		return errors.New("--token is required")
	}
	secret := strings.TrimSpace(*password)
	if secret == "" {
		var err error
		secret, err = promptPassword("New password")
		if err != nil {
			return err
		}
	}

	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	if err := client.ResetPassword(ctx, *email, *token, secret); err != nil {
		return err
	}
	fmt.Println("password updated")
	return nil
}

func commandCard(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: cardbox card [list|apply|show|freeze|unfreeze]")
	}
	switch args[0] {
	case "list":
		return cardList(args[1:])
	case "apply":
		return cardApply(args[1:])
	case "show":
		return cardShow(args[1:])
	case "freeze":
		return cardFreeze(args[1:], true)
	case "unfreeze":
		return cardFreeze(args[1:], false)
	default:
		return fmt.Errorf("unknown card command: %s", args[0])
	}
}

func cardList(args []string) error {
	fs := flag.NewFlagSet("card list", flag.ExitOnError)
	fs.Parse(args)

	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	cards, err := client.ListCards(ctx, token)
	if err != nil {
		return err
	}
	for _, c := range cards {
		fmt.Printf("%s\t%s\t%s\tbalance %s\tlimit %s\n", c.ID, c.PANMasked, c.Status, formatAmount(c.Balance), formatAmount(c.CreditLimit))
	}
	return nil
}

func cardApply(args []string) error {
	fs := flag.NewFlagSet("card apply", flag.ExitOnError)
	limit := fs.Int64("limit", 0, "Credit limit in minor units (0 for default)")
	fs.Parse(args)

	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	card, err := client.ApplyCard(ctx, token, *limit)
	if err != nil {
		return err
	}
	fmt.Printf("card issued: %s %s limit %s\n", card.ID, card.PANMasked, formatAmount(card.CreditLimit))
	return nil
}

func cardShow(args []string) error {
	fs := flag.NewFlagSet("card show", flag.ExitOnError)
	cardID := fs.String("card", "", "Card identifier")
	fs.Parse(args)

	if strings.TrimSpace(*cardID) == "" {
		return errors.New("--card is required")
	}
	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	card, err := client.GetCard(ctx, token, *cardID)
	if err != nil {
		return err
	}
	fmt.Printf("id:       %s\n", card.ID)
	fmt.Printf("number:   %s\n", card.PANMasked)
	fmt.Printf("status:   %s\n", card.Status)
	fmt.Printf("balance:  %s\n", formatAmount(card.Balance))
	fmt.Printf("limit:    %s\n", formatAmount(card.CreditLimit))
	fmt.Printf("issued:   %s\n", card.CreatedAt.Format(time.RFC3339))
	return nil
}

func cardFreeze(args []string, freeze bool) error {
	name := "card unfreeze"
	if freeze {
		name = "card freeze"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cardID := fs.String("card", "", "Card identifier")
	fs.Parse(args)

	if strings.TrimSpace(*cardID) == "" {
		return errors.New("--card is required")
	}
	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	var card apiclient.Card
	if freeze {
		card, err = client.FreezeCard(ctx, token, *cardID)
	} else {
		card, err = client.UnfreezeCard(ctx, token, *cardID)
	}
	if err != nil {
		return err
	}
	fmt.Printf("card %s is now %s\n", card.PANMasked, card.Status)
	return nil
}

func commandTransaction(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: cardbox tx [list|post|show]")
	}
	switch args[0] {
	case "list":
		return transactionList(args[1:])
	case "post":
		return transactionPost(args[1:])
	case "show":
		return transactionShow(args[1:])
	default:
		return fmt.Errorf("unknown tx command: %s", args[0])
	}
}

func transactionList(args []string) error {
	fs := flag.NewFlagSet("tx list", flag.ExitOnError)
	cardID := fs.String("card", "", "Restrict to one card")
	limit := fs.Int("limit", 0, "Maximum number of transactions")
	offset := fs.Int("offset", 0, "Pagination offset")
	fs.Parse(args)

	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	txs, err := client.ListTransactions(ctx, token, *cardID, *limit, *offset)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", tx.ID, tx.PostedAt.Format("2006-01-02"), tx.Merchant, tx.Category, formatAmount(tx.Amount))
	}
	return nil
}

func transactionPost(args []string) error {
	fs := flag.NewFlagSet("tx post", flag.ExitOnError)
	cardID := fs.String("card", "", "Card identifier")
	merchant := fs.String("merchant", "", "Merchant name")
	category := fs.String("category", "general", "Spending category")
	amount := fs.Int64("amount", 0, "Amount in minor units")
	fs.Parse(args)

	if strings.TrimSpace(*cardID) == "" {
		return errors.New("--card is required")
	}
	if strings.TrimSpace(*merchant) == "" {
		return errors.New("--merchant is required")
	}
	if *amount <= 0 {
		return errors.New("--amount must be positive")
	}
	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	tx, err := client.PostTransaction(ctx, token, apiclient.PostTransactionInput{
		CardID:   *cardID,
		Merchant: *merchant,
		Category: *category,
		Amount:   *amount,
	})
	if err != nil {
		return err
	}
	fmt.Printf("transaction posted: %s %s %s\n", tx.ID, tx.Merchant, formatAmount(tx.Amount))
	return nil
}

func transactionShow(args []string) error {
	fs := flag.NewFlagSet("tx show", flag.ExitOnError)
	txID := fs.String("tx", "", "Transaction identifier")
	fs.Parse(args)

	if strings.TrimSpace(*txID) == "" {
		return errors.New("--tx is required")
	}
	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	tx, err := client.GetTransaction(ctx, token, *txID)
	if err != nil {
		return err
	}
	fmt.Printf("id:       %s\n", tx.ID)
	fmt.Printf("card:     %s\n", tx.CardID)
	fmt.Printf("merchant: %s\n", tx.Merchant)
	fmt.Printf("category: %s\n", tx.Category)
	fmt.Printf("amount:   %s\n", formatAmount(tx.Amount))
	fmt.Printf("posted:   %s\n", tx.PostedAt.Format(time.RFC3339))
	return nil
}

func commandPayment(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: cardbox pay [list|make]")
	}
	switch args[0] {
	case "list":
		return paymentList(args[1:])
	case "make":
		return paymentMake(args[1:])
	default:
		return fmt.Errorf("unknown pay command: %s", args[0])
	}
}

func paymentList(args []string) error {
	fs := flag.NewFlagSet("pay list", flag.ExitOnError)
	fs.Parse(args)

	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	payments, err := client.ListPayments(ctx, token)
	if err != nil {
		return err
	}
	for _, p := range payments {
		fmt.Printf("%s\t%s\t%s\t%s\n", p.ID, p.CreatedAt.Format("2006-01-02"), p.CardID, formatAmount(p.Amount))
	}
	return nil
}

func paymentMake(args []string) error {
	fs := flag.NewFlagSet("pay make", flag.ExitOnError)
	cardID := fs.String("card", "", "Card identifier")
	amount := fs.Int64("amount", 0, "Amount in minor units")
	fs.Parse(args)

	if strings.TrimSpace(*cardID) == "" {
		return errors.New("--card is required")
	}
	if *amount <= 0 {
		return errors.New("--amount must be positive")
	}
	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	p, err := client.MakePayment(ctx, token, *cardID, *amount)
	if err != nil {
		return err
	}
	fmt.Printf("payment recorded: %s %s\n", p.ID, formatAmount(p.Amount))
	return nil
}

func commandRewards(args []string) error {
	if len(args) == 0 {
		return rewardsShow(nil)
	}
	switch args[0] {
	case "show":
		return rewardsShow(args[1:])
	case "redeem":
		return rewardsRedeem(args[1:])
	default:
		return fmt.Errorf("unknown rewards command: %s", args[0])
	}
}

func rewardsShow(args []string) error {
	fs := flag.NewFlagSet("rewards show", flag.ExitOnError)
	fs.Parse(args)

	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	resp, err := client.Rewards(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("balance: %d points\n", resp.Balance)
	for _, entry := range resp.History {
		fmt.Printf("%s\t%s\t%+d\t%s\n", entry.CreatedAt.Format("2006-01-02"), entry.Kind, entry.Points, entry.Reason)
	}
	return nil
}

func rewardsRedeem(args []string) error {
	fs := flag.NewFlagSet("rewards redeem", flag.ExitOnError)
	points := fs.Int64("points", 0, "Points to redeem")
	reason := fs.String("reason", "statement credit", "Redemption reason")
	fs.Parse(args)

	if *points <= 0 {
		return errors.New("--points must be positive")
	}
	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	remaining, err := client.RedeemRewards(ctx, token, *points, *reason)
	if err != nil {
		return err
	}
	fmt.Printf("redeemed %d points, %d remaining\n", *points, remaining)
	return nil
}

func commandDispute(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: cardbox dispute [list|open|withdraw]")
	}
	switch args[0] {
	case "list":
		return disputeList(args[1:])
	case "open":
		return disputeOpen(args[1:])
	case "withdraw":
		return disputeWithdraw(args[1:])
	default:
		return fmt.Errorf("unknown dispute command: %s", args[0])
	}
}

func disputeList(args []string) error {
	fs := flag.NewFlagSet("dispute list", flag.ExitOnError)
	fs.Parse(args)

	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	disputes, err := client.ListDisputes(ctx, token)
	if err != nil {
		return err
	}
	for _, d := range disputes {
		fmt.Printf("%s\t%s\t%s\t%s\n", d.ID, d.Status, d.TransactionID, d.Reason)
	}
	return nil
}

func disputeOpen(args []string) error {
	fs := flag.NewFlagSet("dispute open", flag.ExitOnError)
	txID := fs.String("tx", "", "Transaction identifier")
	reason := fs.String("reason", "", "Dispute reason")
	fs.Parse(args)

	if strings.TrimSpace(*txID) == "" {
		return errors.New("--tx is required")
	}
	if strings.TrimSpace(*reason) == "" {
		return errors.New("--reason is required")
	}
	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	d, err := client.OpenDispute(ctx, token, *txID, *reason)
	if err != nil {
		return err
	}
	fmt.Printf("dispute opened: %s (%s)\n", d.ID, d.Status)
	return nil
}

func disputeWithdraw(args []string) error {
	fs := flag.NewFlagSet("dispute withdraw", flag.ExitOnError)
	id := fs.String("id", "", "Dispute identifier")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}
	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	d, err := client.WithdrawDispute(ctx, token, *id)
	if err != nil {
		return err
	}
	fmt.Printf("dispute withdrawn: %s (%s)\n", d.ID, d.Status)
	return nil
}

func commandNotify(args []string) error {
	if len(args) == 0 {
		return notifyList(nil)
	}
	switch args[0] {
	case "list":
		return notifyList(args[1:])
	case "read":
		return notifyRead(args[1:])
	case "read-all":
		return notifyReadAll(args[1:])
	default:
		return fmt.Errorf("unknown notify command: %s", args[0])
	}
}

func notifyList(args []string) error {
	fs := flag.NewFlagSet("notify list", flag.ExitOnError)
	unread := fs.Bool("unread", false, "Only unread notifications")
	fs.Parse(args)

	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	notifications, err := client.ListNotifications(ctx, token, *unread)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s %s\t%s\t%s\n", marker, n.ID, n.Kind, n.Message)
	}
	return nil
}

func notifyRead(args []string) error {
	fs := flag.NewFlagSet("notify read", flag.ExitOnError)
	id := fs.String("id", "", "Notification identifier")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}
	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	if err := client.MarkNotificationRead(ctx, token, *id); err != nil {
		return err
	}
	fmt.Println("marked read")
	return nil
}

func notifyReadAll(args []string) error {
	fs := flag.NewFlagSet("notify read-all", flag.ExitOnError)
	fs.Parse(args)

	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	if err := client.MarkAllNotificationsRead(ctx, token); err != nil {
		return err
	}
	fmt.Println("all notifications marked read")
	return nil
}

func commandSummary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	months := fs.Int("months", 0, "Trailing months to include (server default when 0)")
	fs.Parse(args)

	_, token, err := authedSession()
	if err != nil {
		return err
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cfg)
	defer cancel()

	summary, err := client.Summary(ctx, token, *months)
	if err != nil {
		return err
	}
	fmt.Printf("spending since %s (%d months): %s\n", summary.Since.Format("2006-01-02"), summary.Months, formatAmount(summary.Total))
	for category, total := range summary.ByCategory {
		fmt.Printf("  %-16s %s\n", category, formatAmount(total))
	}
	return nil
}

// formatAmount renders minor units as a decimal string.
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func printUsage() {
	fmt.Printf("cardbox CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	cardbox register --name <name> --email <email> [--password secret]
	cardbox login --email <email> [--password secret]
	cardbox logout
	cardbox whoami
	cardbox reset request --email <email>
	cardbox reset confirm --email <email> --token <token> [--password secret]
	cardbox card list
	cardbox card apply [--limit minor-units]
	cardbox card show --card <card-id>
	cardbox card freeze --card <card-id>
	cardbox card unfreeze --card <card-id>
	cardbox tx list [--card card-id] [--limit N] [--offset N]
	cardbox tx post --card <card-id> --merchant <name> --amount <minor-units> [--category cat]
	cardbox tx show --tx <tx-id>
	cardbox pay list
	cardbox pay make --card <card-id> --amount <minor-units>
	cardbox rewards [show]
	cardbox rewards redeem --points <n> [--reason text]
	cardbox dispute list
	cardbox dispute open --tx <tx-id> --reason <text>
	cardbox dispute withdraw --id <dispute-id>
	cardbox notify [list] [--unread]
	cardbox notify read --id <notification-id>
	cardbox notify read-all
	cardbox summary [--months N]
	cardbox version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
