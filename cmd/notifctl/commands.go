package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/stanstork/condo-notify/internal/apperr"
	"github.com/stanstork/condo-notify/internal/lifecycle"
	"github.com/stanstork/condo-notify/internal/models"
	"github.com/stanstork/condo-notify/internal/notification"
	"github.com/stanstork/condo-notify/internal/query"
)

type cli struct {
	service notification.Service
	actor   models.Actor
	out     io.Writer
	errOut  io.Writer
	json    bool
}

func (c *cli) dispatch(ctx context.Context, command string, args []string) error {
	var err error
	switch command {
	case "list":
		err = c.list(ctx, args)
	case "show":
		err = c.show(ctx, args)
	case "create":
		err = c.create(ctx, args)
	case "advance":
		err = c.advance(ctx, args)
	case "read":
		err = c.read(ctx, args)
	case "comment":
		err = c.comment(ctx, args)
	case "comments":
		err = c.comments(ctx, args)
	case "unread":
		fmt.Fprintln(c.out, c.service.UnreadCount(ctx, c.actor))
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return userFacing(err)
}

// userFacing replaces workflow errors with the message a screen would show.
func userFacing(err error) error {
	switch {
	case err == nil:
		return nil
	case apperr.IsValidation(err), apperr.IsFilterValidation(err), apperr.IsForbidden(err),
		apperr.IsNotFound(err), apperr.IsConflict(err), apperr.IsTransition(err),
		apperr.IsNetwork(err), apperr.IsServer(err):
		return errors.New(apperr.UserMessage(err))
	}
	return err
}

func (c *cli) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func parseID(fs *pflag.FlagSet) (int, error) {
	if fs.NArg() < 1 {
		return 0, apperr.Validation("id", "Informe o identificador da notificação")
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id", "Identificador de notificação inválido")
	}
	return id, nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := c.flags("list")
	scope := fs.String("escopo", string(query.ScopeOpened), "abertas, recebidas or todas")
	mode := fs.String("modo", "", "unico or combinado")
	dimension := fs.String("filtro", "", "status, tipo or periodo (single mode)")
	status := fs.String("status", "", "status value or slug")
	typ := fs.String("tipo", "", "type value or slug")
	period := fs.String("periodo", "", "7, 30 or customizado")
	start := fs.String("inicio", "", "start date DD-MM-YYYY")
	end := fs.String("fim", "", "end date DD-MM-YYYY")
	block := fs.String("bloco", "", "block (todas only)")
	apartment := fs.String("apartamento", "", "apartment (todas only)")
	pages := fs.Int("paginas", 1, "pages to load; further pages load only while pages are full")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parsedScope, err := query.ParseScope(*scope)
	if err != nil {
		return err
	}
	caps, err := c.service.FilterOptions(c.actor, parsedScope)
	if err != nil {
		return err
	}
	feed := query.NewFeed(caps)

	filter := query.Filter{
		Mode:      query.Mode(*mode),
		Dimension: query.Dimension(*dimension),
		Status:    *status,
		Type:      *typ,
		Period:    *period,
		StartDate: *start,
		EndDate:   *end,
		Block:     *block,
		Apartment: *apartment,
	}
	var req query.Request
	if isEmptyFilter(filter) {
		req = feed.ShowAll()
	} else if req, err = feed.Search(filter); err != nil {
		return err
	}

	fetch := func(ctx context.Context, q query.Query, page int) ([]models.Notification, error) {
		return c.service.FetchPage(ctx, c.actor, q, page)
	}
	for loaded := 0; loaded < *pages; loaded++ {
		if _, err := feed.Load(ctx, fetch, req); err != nil {
			if loaded == 0 {
				return err
			}
			fmt.Fprintln(c.errOut, "load more failed:", apperr.UserMessage(err))
			break
		}
		next, ok := feed.Next()
		if !ok {
			break
		}
		req = next
	}

	items := feed.Items()
	if c.json {
		return c.writeJSON(models.NotificationPage{
			Notifications: items,
			Page:          feed.Page(),
			PageSize:      query.PageSize,
			HasMore:       feed.HasMore(),
		})
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTIPO\tTITULO\tCRIADA")
	for _, n := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", n.ID, n.Status.Label(), n.Type.Label(), n.Title, formatTime(n.CreatedAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if feed.HasMore() {
		fmt.Fprintf(c.out, "mais resultados: use --paginas %d\n", feed.Page()+1)
	}
	return nil
}

func isEmptyFilter(f query.Filter) bool {
	return f == query.Filter{}
}

func (c *cli) show(ctx context.Context, args []string) error {
	fs := c.flags("show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs)
	if err != nil {
		return err
	}
	n, err := c.service.Detail(ctx, c.actor, id)
	if err != nil {
		return err
	}
	if c.json {
		return c.writeJSON(n)
	}

	fmt.Fprintf(c.out, "#%d %s\n", n.ID, n.Title)
	fmt.Fprintf(c.out, "Tipo: %s\nStatus: %s\nVersão: %s\n", n.Type.Label(), n.Status.Label(), n.Version())
	if n.Origin != nil {
		fmt.Fprintf(c.out, "Origem: %s", n.Origin.Name)
		if n.Origin.Block != "" {
			fmt.Fprintf(c.out, " (%s-%s)", n.Origin.Block, n.Origin.Apartment)
		}
		fmt.Fprintln(c.out)
	}
	fmt.Fprintf(c.out, "\n%s\n", n.Message)
	if next := lifecycle.Next(n.Status); len(next) > 0 {
		slugs := make([]string, len(next))
		for i, s := range next {
			slugs[i] = s.Slug()
		}
		fmt.Fprintf(c.out, "\nPróximos status: %s\n", strings.Join(slugs, ", "))
	}

	if len(n.Recipients) > 0 {
		fmt.Fprintln(c.out, "\nDestinatários:")
		for _, r := range n.Recipients {
			mark := " "
			if r.Read {
				mark = "x"
			}
			fmt.Fprintf(c.out, "  [%s] %s\n", mark, r.Name)
		}
	}
	if len(n.History) > 0 {
		fmt.Fprintln(c.out, "\nHistórico:")
		for _, h := range n.History {
			fmt.Fprintf(c.out, "  %s  %s\n", formatTime(h.At), h.Action)
		}
	}
	return nil
}

func (c *cli) create(ctx context.Context, args []string) error {
	fs := c.flags("create")
	title := fs.String("titulo", "", "title")
	message := fs.String("mensagem", "", "message body")
	typ := fs.String("tipo", "", "type value or slug")
	block := fs.String("bloco", "", "target block (noise complaints)")
	number := fs.String("numero", "", "target apartment number (noise complaints)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := models.ParseType(*typ)
	if err != nil {
		return apperr.Validation("tipo", "Selecione um tipo de notificação válido")
	}
	draft := models.NotificationDraft{Title: *title, Message: *message, Type: t}
	if *block != "" || *number != "" {
		draft.Apartment = &models.Apartment{Block: *block, Number: *number}
	}
	n, err := c.service.Create(ctx, c.actor, draft)
	if err != nil {
		return err
	}
	if c.json {
		return c.writeJSON(n)
	}
	fmt.Fprintf(c.out, "notificação #%d criada (%s)\n", n.ID, n.Status.Label())
	return nil
}

// advance uses the current version when --versao is omitted.
func (c *cli) advance(ctx context.Context, args []string) error {
	fs := c.flags("advance")
	version := fs.String("versao", "", "ultimaAtualizacao last seen; defaults to the current one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs)
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return apperr.Validation("status", "Informe o novo status")
	}
	target, err := models.ParseStatus(fs.Arg(1))
	if err != nil {
		return apperr.Validation("status", "status inválido")
	}
	if *version == "" {
		current, err := c.service.Detail(ctx, c.actor, id)
		if err != nil {
			return err
		}
		*version = current.Version()
	}
	n, err := c.service.Advance(ctx, c.actor, id, target, *version)
	if err != nil {
		return err
	}
	if c.json {
		return c.writeJSON(n)
	}
	fmt.Fprintf(c.out, "notificação #%d: %s\n", n.ID, n.Status.Label())
	return nil
}

func (c *cli) read(ctx context.Context, args []string) error {
	fs := c.flags("read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs)
	if err != nil {
		return err
	}
	return c.service.MarkRead(ctx, c.actor, id)
}

func (c *cli) comment(ctx context.Context, args []string) error {
	fs := c.flags("comment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs)
	if err != nil {
		return err
	}
	text := strings.Join(fs.Args()[1:], " ")
	comment, err := c.service.AddComment(ctx, c.actor, id, text)
	if err != nil {
		return err
	}
	if c.json {
		return c.writeJSON(comment)
	}
	fmt.Fprintf(c.out, "comentário %s adicionado\n", comment.ID)
	return nil
}

func (c *cli) comments(ctx context.Context, args []string) error {
	fs := c.flags("comments")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID(fs)
	if err != nil {
		return err
	}
	list, err := c.service.ListComments(ctx, c.actor, id)
	if err != nil {
		return err
	}
	if c.json {
		return c.writeJSON(list)
	}
	for _, cm := range list {
		fmt.Fprintf(c.out, "%s  %s: %s\n", cm.CreatedAt.Format("02-01-2006 15:04"), cm.AuthorName, cm.Text)
	}
	return nil
}

func (c *cli) writeJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02-01-2006 15:04")
}
