// Package admincli implements the creatorstribe-admin command line: a
// passwordless login against the API and a handful of creator commands.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"creatorstribe/internal/apiclient"
	"creatorstribe/internal/models"
	"creatorstribe/internal/session"
)

const maxCodeAttempts = 3

var ErrUsage = errors.New("usage error")

// API is the slice of the HTTP client the commands need.
type API interface {
	Me(ctx context.Context) (models.User, error)
	ListCreators(ctx context.Context, p apiclient.ListParams) (apiclient.CreatorPage, error)
	GetCreator(ctx context.Context, uid, id string) (apiclient.CreatorDetail, error)
	DeleteCreator(ctx context.Context, uid, id string) error
	Stats(ctx context.Context) (map[string]any, error)
}

type App struct {
	session *session.AuthSession
	api     API
	in      *bufio.Reader
	out     io.Writer
}

func New(s *session.AuthSession, api API, in io.Reader, out io.Writer) *App {
	return &App{session: s, api: api, in: bufio.NewReader(in), out: out}
}

const usage = `usage: creatorstribe-admin <command> [args]

commands:
  login                       sign in with an emailed code
  logout                      end the session
  status                      show who is signed in
  stats                       dashboard totals
  creators list [flags]       list creators
  creators get <uid> <id>     show one creator
  creators delete <uid> <id>  delete a creator
`

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	switch args[0] {
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout(ctx)
	case "status":
		return a.Status(ctx)
	case "stats":
		return a.requireLogin(func() error { return a.Stats(ctx) })
	case "creators":
		return a.requireLogin(func() error { return a.creators(ctx, args[1:]) })
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", args[0], usage)
		return ErrUsage
	}
}

func (a *App) requireLogin(fn func() error) error {
	if !a.session.Snapshot().IsAuthenticated {
		fmt.Fprintln(a.out, "not signed in, run: creatorstribe-admin login")
		return session.ErrNotAuthenticated
	}
	return fn()
}

// Login walks the email then code prompts. An empty code cancels.
func (a *App) Login(ctx context.Context) error {
	if view := a.session.Snapshot(); view.IsAuthenticated {
		fmt.Fprintf(a.out, "already signed in as %s\n", view.User.Email)
		return nil
	}

	email, err := a.prompt("Email address")
	if err != nil {
		return err
	}
	if err := a.session.RequestOTP(ctx, email); err != nil {
		fmt.Fprintln(a.out, a.session.Snapshot().Error)
		return err
	}
	fmt.Fprintf(a.out, "A verification code was sent to %s\n", email)

	for attempt := 1; ; attempt++ {
		code, err := a.prompt("Verification code (empty to cancel)")
		if err != nil {
			a.session.Cancel()
			return err
		}
		if code == "" {
			a.session.Cancel()
			fmt.Fprintln(a.out, "login cancelled")
			return nil
		}

		user, err := a.session.VerifyOTP(ctx, "", code)
		if err == nil {
			fmt.Fprintf(a.out, "signed in as %s\n", user.Email)
			return nil
		}
		fmt.Fprintln(a.out, a.session.Snapshot().Error)
		a.session.ClearError()
		if attempt == maxCodeAttempts {
			a.session.Cancel()
			return err
		}
	}
}

func (a *App) Logout(ctx context.Context) error {
	err := a.session.Logout(ctx)
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		fmt.Fprintln(a.out, "not signed in")
		return nil
	case err != nil:
		fmt.Fprintf(a.out, "signed out locally; server said: %s\n", a.session.Snapshot().Error)
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

// Status reports the persisted identity and, when signed in, confirms it with
// the server.
func (a *App) Status(ctx context.Context) error {
	view := a.session.Snapshot()
	if !view.IsAuthenticated {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "signed in as %s (%s)\n", view.User.Email, view.User.UID)

	if _, err := a.api.Me(ctx); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			fmt.Fprintln(a.out, "server session expired, run login again")
			return nil
		}
		return err
	}
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	stats, err := a.api.Stats(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%v\n", k, stats[k])
	}
	return w.Flush()
}

func (a *App) creators(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	switch args[0] {
	case "list":
		return a.listCreators(ctx, args[1:])
	case "get":
		if len(args) != 3 {
			return a.usageError("creators get <uid> <id>")
		}
		return a.getCreator(ctx, args[1], args[2])
	case "delete":
		if len(args) != 3 {
			return a.usageError("creators delete <uid> <id>")
		}
		if err := a.api.DeleteCreator(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted %s/%s\n", args[1], args[2])
		return nil
	default:
		return a.usageError("creators list|get|delete")
	}
}

func (a *App) listCreators(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("creators list", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var p apiclient.ListParams
	fs.StringVar(&p.Specialty, "specialty", "", "filter by specialty")
	fs.StringVar(&p.Status, "status", "", "filter by status (ignored when -specialty is set)")
	fs.StringVar(&p.Search, "search", "", "match name, email, specialty or location within the page")
	fs.IntVar(&p.Limit, "limit", 0, "page size")
	fs.StringVar(&p.Cursor, "cursor", "", "continue from a previous page")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	page, err := a.api.ListCreators(ctx, p)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tID\tNAME\tSPECIALTY\tSTATUS\tFOLLOWERS\tRATING")
	for _, c := range page.Creators {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n", c.UID, c.ID, c.Name, c.Specialty, c.Status, c.Followers, c.Rating)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if page.NextCursor != "" {
		fmt.Fprintf(a.out, "\nmore: -cursor %s\n", page.NextCursor)
	}
	return nil
}

func (a *App) getCreator(ctx context.Context, uid, id string) error {
	detail, err := a.api.GetCreator(ctx, uid, id)
	if err != nil {
		return err
	}
	c := detail.Creator

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "name\t%s\n", c.Name)
	fmt.Fprintf(w, "email\t%s\n", c.Email)
	fmt.Fprintf(w, "specialty\t%s\n", c.Specialty)
	fmt.Fprintf(w, "status\t%s\n", c.Status)
	fmt.Fprintf(w, "location\t%s\n", c.Location)
	fmt.Fprintf(w, "followers\t%d\n", c.Followers)
	fmt.Fprintf(w, "engagement\t%.2f%%\n", c.EngagementRate)
	fmt.Fprintf(w, "rate/post\t%.2f\n", c.RatePerPost)
	fmt.Fprintf(w, "rating\t%d\n", c.Rating)
	fmt.Fprintf(w, "joined\t%s\n", c.JoinedDate)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(detail.Portfolio) > 0 {
		fmt.Fprintln(a.out, "\nportfolio:")
		for _, item := range detail.Portfolio {
			fmt.Fprintf(a.out, "  - %s (%d views, %d likes, %d comments)\n",
				item.Title, item.Metrics.Views, item.Metrics.Likes, item.Metrics.Comments)
		}
	}
	return nil
}

func (a *App) usageError(msg string) error {
	fmt.Fprintf(a.out, "usage: creatorstribe-admin %s\n", msg)
	return ErrUsage
}

func (a *App) prompt(label string) (string, error) {
	if _, err := fmt.Fprint(a.out, label+"\n> "); err != nil {
		return "", err
	}
	line, err := a.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
