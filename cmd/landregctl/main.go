package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"land-registry/internal/session"
)

func main() {
	// ---- register ----
	registerCmd := flag.NewFlagSet("register", flag.ExitOnError)
	regServer := registerCmd.String("server", "http://localhost:8080", "API base URL")
	regSession := registerCmd.String("session", defaultSessionPath(), "path to session file")
	regUser := registerCmd.String("user", "", "username")
	regEmail := registerCmd.String("email", "", "email")
	regPass := registerCmd.String("pass", "", "password")

	// ---- login ----
	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginServer := loginCmd.String("server", "http://localhost:8080", "API base URL")
	loginSession := loginCmd.String("session", defaultSessionPath(), "path to session file")
	loginEmail := loginCmd.String("email", "", "email")
	loginPass := loginCmd.String("pass", "", "password")

	// ---- admin-login ----
	adminCmd := flag.NewFlagSet("admin-login", flag.ExitOnError)
	adminServer := adminCmd.String("server", "http://localhost:8080", "API base URL")
	adminSession := adminCmd.String("session", defaultSessionPath(), "path to session file")
	adminEmail := adminCmd.String("email", "", "email")
	adminPass := adminCmd.String("pass", "", "password")
	adminKey := adminCmd.String("key", "", "admin key")

	// ---- logout ----
	logoutCmd := flag.NewFlagSet("logout", flag.ExitOnError)
	logoutServer := logoutCmd.String("server", "http://localhost:8080", "API base URL")
	logoutSession := logoutCmd.String("session", defaultSessionPath(), "path to session file")
	logoutAdmin := logoutCmd.Bool("admin", false, "log out the admin credential instead")

	// ---- whoami ----
	whoamiCmd := flag.NewFlagSet("whoami", flag.ExitOnError)
	whoamiServer := whoamiCmd.String("server", "http://localhost:8080", "API base URL")
	whoamiSession := whoamiCmd.String("session", defaultSessionPath(), "path to session file")

	// ---- land-register ----
	landRegCmd := flag.NewFlagSet("land-register", flag.ExitOnError)
	lrServer := landRegCmd.String("server", "http://localhost:8080", "API base URL")
	lrSession := landRegCmd.String("session", defaultSessionPath(), "path to session file")
	lrTitle := landRegCmd.String("title", "", "land title")
	lrType := landRegCmd.String("type", "", "land type (agricultural|residential|commercial|industrial|mixed use)")
	lrArea := landRegCmd.Float64("area", 0, "area in square meters")
	lrLocation := landRegCmd.String("location", "", "location")
	lrDesc := landRegCmd.String("desc", "", "description")
	lrPrice := landRegCmd.Float64("price", 0, "price")
	lrClaim := landRegCmd.String("claim", "ownership", "claim type (ownership|transfer|update)")
	lrRecord := landRegCmd.String("record", "", "existing record id")
	var lrDocs multiFlag
	landRegCmd.Var(&lrDocs, "doc", "path to a supporting document (repeatable, max 5)")

	// ---- land-list ----
	landListCmd := flag.NewFlagSet("land-list", flag.ExitOnError)
	llServer := landListCmd.String("server", "http://localhost:8080", "API base URL")
	llSession := landListCmd.String("session", defaultSessionPath(), "path to session file")
	llType := landListCmd.String("type", "", "filter by land type")
	llStatus := landListCmd.String("status", "", "filter by status")

	// ---- land-get ----
	landGetCmd := flag.NewFlagSet("land-get", flag.ExitOnError)
	lgServer := landGetCmd.String("server", "http://localhost:8080", "API base URL")
	lgSession := landGetCmd.String("session", defaultSessionPath(), "path to session file")
	lgID := landGetCmd.String("id", "", "record id")

	if len(os.Args) < 2 {
		usage()
		return
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "register":
		_ = registerCmd.Parse(os.Args[2:])
		sess, err := buildSession(*regServer, *regSession)
		dieIf(err)
		user, err := sess.Register(ctx, session.RegisterInput{
			Username: *regUser, Email: *regEmail, Password: *regPass,
		})
		dieIf(err)
		fmt.Println("Registered and logged in as", user.Email)

	case "login":
		_ = loginCmd.Parse(os.Args[2:])
		sess, err := buildSession(*loginServer, *loginSession)
		dieIf(err)
		user, err := sess.Login(ctx, *loginEmail, *loginPass)
		dieIf(err)
		fmt.Println("Logged in as", user.Email)

	case "admin-login":
		_ = adminCmd.Parse(os.Args[2:])
		sess, err := buildSession(*adminServer, *adminSession)
		dieIf(err)
		admin, err := sess.AdminLogin(ctx, *adminEmail, *adminPass, *adminKey)
		dieIf(err)
		fmt.Println("Logged in as admin", admin.Email)

	case "logout":
		_ = logoutCmd.Parse(os.Args[2:])
		sess, err := buildSession(*logoutServer, *logoutSession)
		dieIf(err)
		if *logoutAdmin {
			sess.AdminLogout()
			fmt.Println("Admin logged out")
		} else {
			sess.Logout()
			fmt.Println("Logged out")
		}

	case "whoami":
		_ = whoamiCmd.Parse(os.Args[2:])
		sess, err := buildSession(*whoamiServer, *whoamiSession)
		dieIf(err)
		switch sess.Resolve(ctx) {
		case session.StateResolvedAdmin:
			printJSON(sess.Admin())
		case session.StateResolvedUser:
			printJSON(sess.User())
		default:
			fmt.Println("Not logged in")
		}

	case "land-register":
		_ = landRegCmd.Parse(os.Args[2:])
		sess, err := buildSession(*lrServer, *lrSession)
		dieIf(err)
		token := mustToken(ctx, sess)

		docs := make([]session.Document, 0, len(lrDocs))
		for _, p := range lrDocs {
			data, err := os.ReadFile(p)
			dieIf(err)
			docs = append(docs, session.Document{Name: filepath.Base(p), Data: data})
		}

		client := session.NewClient(*lrServer)
		rec, err := client.RegisterLand(ctx, token, session.LandInput{
			Title:            *lrTitle,
			Type:             *lrType,
			Area:             *lrArea,
			Location:         *lrLocation,
			Description:      *lrDesc,
			Price:            *lrPrice,
			ClaimType:        *lrClaim,
			ExistingRecordID: *lrRecord,
			Documents:        docs,
		})
		dieIf(err)
		fmt.Println("Registered land record", rec.ID, "status:", rec.Status)

	case "land-list":
		_ = landListCmd.Parse(os.Args[2:])
		sess, err := buildSession(*llServer, *llSession)
		dieIf(err)
		token := mustToken(ctx, sess)
		client := session.NewClient(*llServer)
		recs, err := client.Lands(ctx, token, *llType, *llStatus)
		dieIf(err)
		printJSON(recs)

	case "land-get":
		_ = landGetCmd.Parse(os.Args[2:])
		if *lgID == "" {
			dieIf(fmt.Errorf("--id required"))
		}
		sess, err := buildSession(*lgServer, *lgSession)
		dieIf(err)
		token := mustToken(ctx, sess)
		client := session.NewClient(*lgServer)
		rec, err := client.Land(ctx, token, *lgID)
		dieIf(err)
		printJSON(rec)

	default:
		usage()
	}
}

// ============ Helper Functions ============

func usage() {
	fmt.Print(`landregctl commands:

  register      --user alice --email a@example.com --pass <pw> [--server URL]
  login         --email a@example.com --pass <pw> [--server URL]
  admin-login   --email admin@example.com --pass <pw> --key <ADMIN_KEY> [--server URL]
  logout        [--admin] [--server URL]
  whoami        [--server URL]
  land-register --title "Farm Plot A" --type agricultural --area 120 --location "District 4" \
                --price 5000 --claim ownership --record REC-1 --doc deed.pdf [--doc survey.pdf]
  land-list     [--type agricultural] [--status pending]
  land-get      --id <RECORD_ID>

Examples:
  landregctl register --user ahmad --email ahmad@example.com --pass 'S3cretPass'
  landregctl land-register --title "Farm Plot A" --type agricultural --area 120 \
    --location "North District" --price 5000 --claim ownership --record REC-1 --doc deed.pdf
`)
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".landreg-session.json"
	}
	return filepath.Join(home, ".landreg", "session.json")
}

func buildSession(server, path string) (*session.Session, error) {
	tokens, err := session.NewTokenStore(path)
	if err != nil {
		return nil, err
	}
	return session.New(session.NewClient(server), tokens, nil), nil
}

func mustToken(ctx context.Context, sess *session.Session) string {
	sess.Resolve(ctx)
	token, ok := sess.Token()
	if !ok {
		dieIf(fmt.Errorf("not logged in; run 'landregctl login' first"))
	}
	return token
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func dieIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
