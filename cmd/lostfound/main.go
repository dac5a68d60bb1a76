package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yukikurage/lost-and-found-api/internal/client"
)

const usage = `usage: lostfound [-server URL] [-token TOKEN] <command> [flags]

commands:
  register -username U -email E -password P [-role R]
  login    -username U -password P          prints a token
  list     [-category C] [-status S] [-mine] [-page N -limit N]
  show     ID
  report   -title T [-description D] [-category C] [-location L] [-status S] [-image FILE]
  status   ID STATUS
  delete   ID

The token may also be given as LOSTFOUND_TOKEN.
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, client.ErrUpstreamUnavailable) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	global := flag.NewFlagSet("lostfound", flag.ContinueOnError)
	server := global.String("server", envOr("LOSTFOUND_SERVER", "http://localhost:8080"), "API base URL")
	token := global.String("token", os.Getenv("LOSTFOUND_TOKEN"), "bearer token")
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	c := client.NewClient(*server)
	c.SetToken(*token)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "register":
		return register(ctx, c, rest, out)
	case "login":
		return login(ctx, c, rest, out)
	case "list":
		return list(ctx, c, rest, out)
	case "show":
		return show(ctx, c, rest, out)
	case "report":
		return report(ctx, c, rest, out)
	case "status":
		return status(ctx, c, rest, out)
	case "delete":
		return remove(ctx, c, rest, out)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func register(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	role := fs.String("role", "", "role")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := c.Register(ctx, *username, *email, *password, *role)
	if err != nil {
		return err
	}
	return printJSON(out, user)
}

func login(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := c.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, resp.Token)
	return err
}

func list(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	var opts client.ListOptions
	fs.StringVar(&opts.Category, "category", "", "filter by category")
	fs.StringVar(&opts.Status, "status", "", "filter by status")
	fs.BoolVar(&opts.Mine, "mine", false, "only my items")
	fs.IntVar(&opts.Page, "page", 0, "page number")
	fs.IntVar(&opts.Limit, "limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := c.ListItems(ctx, opts)
	if err != nil {
		return err
	}
	for _, item := range page.Items {
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%s\t%d views\n",
			item.ID, item.Status, item.Category, item.Title, item.Username, item.Views)
	}
	_, err = fmt.Fprintf(out, "%d of %d items\n", len(page.Items), page.Total)
	return err
}

func show(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: show ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	item, err := c.GetItem(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(out, item)
}

func report(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	title := fs.String("title", "", "title")
	description := fs.String("description", "", "description")
	category := fs.String("category", "", "category")
	location := fs.String("location", "", "where it was lost or found")
	itemStatus := fs.String("status", "", "lost or found")
	imagePath := fs.String("image", "", "image file to attach")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fields := client.ItemFields{
		Title:       title,
		Description: description,
		Category:    category,
		Location:    location,
	}
	if *itemStatus != "" {
		fields.Status = itemStatus
	}

	var image *client.Image
	if *imagePath != "" {
		f, err := os.Open(*imagePath)
		if err != nil {
			return fmt.Errorf("opening image: %w", err)
		}
		defer f.Close()
		image = &client.Image{Filename: filepath.Base(*imagePath), Content: f}
	}

	item, err := c.CreateItem(ctx, fields, image)
	if err != nil {
		return err
	}
	return printJSON(out, item)
}

func status(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: status ID STATUS")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	item, err := c.UpdateStatus(ctx, id, args[1])
	if err != nil {
		return err
	}
	return printJSON(out, item)
}

func remove(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: delete ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if err := c.DeleteItem(ctx, id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "deleted item %d\n", id)
	return err
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid item id %q", raw)
	}
	return id, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
