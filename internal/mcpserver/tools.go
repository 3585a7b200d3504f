package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"ledger/internal/core"
	"ledger/internal/services"
)

const dateHelp = "ISO-8601 date or timestamp, e.g. 2024-01-31 or 2024-01-31T18:30:00Z"

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("add_transaction",
		mcp.WithDescription("Record an income or expense. Returns the id assigned to the new transaction."),
		mcp.WithString("type", mcp.Required(), mcp.Enum("income", "expense"),
			mcp.Description("Whether the money came in or went out")),
		mcp.WithNumber("amount", mcp.Required(),
			mcp.Description("Positive amount, rounded to cents")),
		mcp.WithString("category", mcp.Required(),
			mcp.Description("Free-form label such as salary or food")),
		mcp.WithString("description", mcp.Description("Optional note")),
		mcp.WithString("date", mcp.Description("When it happened, "+dateHelp+". Defaults to now.")),
		mcp.WithDestructiveHintAnnotation(false),
	), s.handle("add_transaction", s.addTransaction))

	s.mcp.AddTool(mcp.NewTool("get_transaction",
		mcp.WithDescription("Show a single transaction by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Transaction id")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handle("get_transaction", s.getTransaction))

	s.mcp.AddTool(mcp.NewTool("list_transactions",
		mcp.WithDescription("List transactions, newest first. All filters are optional and combined with AND."),
		mcp.WithString("type", mcp.Enum("income", "expense"), mcp.Description("Only this kind")),
		mcp.WithString("category", mcp.Description("Only this category")),
		mcp.WithString("date_from", mcp.Description("Inclusive lower bound, "+dateHelp)),
		mcp.WithString("date_to", mcp.Description("Inclusive upper bound, "+dateHelp+". A bare date covers the whole day.")),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum rows to return (default %d, max %d)", services.DefaultListLimit, services.MaxListLimit))),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handle("list_transactions", s.listTransactions))

	s.mcp.AddTool(mcp.NewTool("get_transaction_summary",
		mcp.WithDescription("Total income, total expense and balance over every transaction."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handle("get_transaction_summary", s.summary))

	s.mcp.AddTool(mcp.NewTool("delete_transaction",
		mcp.WithDescription("Delete transactions. A lone id is deleted immediately. Any other criteria first return a preview "+
			"of the matching rows and delete nothing; repeat the call with confirm_bulk=true to delete them."),
		mcp.WithNumber("id", mcp.Description("Single transaction id")),
		mcp.WithArray("ids", mcp.Description("Explicit set of ids"), mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithString("type", mcp.Enum("income", "expense"), mcp.Description("Only this kind")),
		mcp.WithString("category", mcp.Description("Only this category")),
		mcp.WithString("date_from", mcp.Description("Inclusive lower bound, "+dateHelp)),
		mcp.WithString("date_to", mcp.Description("Inclusive upper bound, "+dateHelp)),
		mcp.WithString("older_than", mcp.Description("Strictly earlier than, "+dateHelp)),
		mcp.WithBoolean("confirm_bulk", mcp.Description("Set to true to actually delete a previewed set")),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handle("delete_transaction", s.deleteTransaction))

	s.mcp.AddTool(mcp.NewTool("visualize_transactions",
		mcp.WithDescription("Chart data: labels with parallel income and expense series, as JSON."),
		mcp.WithString("chart_type", mcp.Enum("bar", "pie", "line"), mcp.Description("Rendering hint (default bar)")),
		mcp.WithString("group_by", mcp.Enum("day", "week", "month", "category"), mcp.Description("Bucket size (default month)")),
		mcp.WithString("type", mcp.Enum("income", "expense"), mcp.Description("Only this kind")),
		mcp.WithString("category", mcp.Description("Only this category")),
		mcp.WithString("date_from", mcp.Description("Inclusive lower bound, "+dateHelp)),
		mcp.WithString("date_to", mcp.Description("Inclusive upper bound, "+dateHelp)),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handle("visualize_transactions", s.visualize))
}

func (s *Server) addTransaction(ctx context.Context, args arguments) (string, error) {
	var req services.AddRequest
	var err error

	if req.Type, err = args.requiredStr("type"); err != nil {
		return "", err
	}
	if req.Amount, req.AmountText, err = args.requiredAmount("amount"); err != nil {
		return "", err
	}
	if req.Category, err = args.requiredStr("category"); err != nil {
		return "", err
	}
	if req.Description, err = args.str("description"); err != nil {
		return "", err
	}
	if req.Date, err = args.str("date"); err != nil {
		return "", err
	}

	e, err := s.ledger.Add(ctx, req)
	if err != nil {
		return "", err
	}
	return formatAdded(e), nil
}

func (s *Server) getTransaction(ctx context.Context, args arguments) (string, error) {
	id, err := args.requiredInt("id")
	if err != nil {
		return "", err
	}
	e, err := s.ledger.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return "", fmt.Errorf("%w: id %d", core.ErrNotFound, id)
	}
	if err != nil {
		return "", err
	}
	return formatEntry(e), nil
}

func criteria(args arguments) (services.Criteria, error) {
	var c services.Criteria
	var err error
	if c.Type, err = args.str("type"); err != nil {
		return c, err
	}
	if c.Category, err = args.str("category"); err != nil {
		return c, err
	}
	if c.DateFrom, err = args.str("date_from"); err != nil {
		return c, err
	}
	if c.DateTo, err = args.str("date_to"); err != nil {
		return c, err
	}
	return c, nil
}

func (s *Server) listTransactions(ctx context.Context, args arguments) (string, error) {
	c, err := criteria(args)
	if err != nil {
		return "", err
	}
	req := services.ListRequest{Criteria: c}

	limit, err := args.optInt("limit")
	if err != nil {
		return "", err
	}
	if limit != nil {
		n := int(*limit)
		req.Limit = &n
	}

	entries, err := s.ledger.List(ctx, req)
	if err != nil {
		return "", err
	}
	return formatList(entries), nil
}

func (s *Server) summary(ctx context.Context, _ arguments) (string, error) {
	sum, err := s.ledger.Summary(ctx)
	if err != nil {
		return "", err
	}
	return formatSummary(sum), nil
}

func (s *Server) deleteTransaction(ctx context.Context, args arguments) (string, error) {
	c, err := criteria(args)
	if err != nil {
		return "", err
	}
	req := services.DeleteRequest{Criteria: c}

	if req.ID, err = args.optInt("id"); err != nil {
		return "", err
	}
	if req.IDs, err = args.ints("ids"); err != nil {
		return "", err
	}
	if req.OlderThan, err = args.str("older_than"); err != nil {
		return "", err
	}
	if req.ConfirmBulk, err = args.boolean("confirm_bulk"); err != nil {
		return "", err
	}

	out, err := s.ledger.Delete(ctx, req)
	if errors.Is(err, core.ErrNoCriteria) {
		return "", fmt.Errorf("%w: give id, ids, type, category, date_from, date_to or older_than", err)
	}
	if err != nil {
		return "", err
	}
	if nf, ok := out.(services.EntryNotFound); ok {
		return "", fmt.Errorf("%w: id %d", core.ErrNotFound, nf.ID)
	}
	return formatDeleteOutcome(out), nil
}

func (s *Server) visualize(ctx context.Context, args arguments) (string, error) {
	c, err := criteria(args)
	if err != nil {
		return "", err
	}
	req := services.VisualizeRequest{Criteria: c}

	if req.ChartType, err = args.str("chart_type"); err != nil {
		return "", err
	}
	if req.GroupBy, err = args.str("group_by"); err != nil {
		return "", err
	}

	chart, err := s.ledger.Visualize(ctx, req)
	if err != nil {
		return "", err
	}
	body, err := chartPayload(chart)
	if err != nil {
		return "", fmt.Errorf("encode chart: %w", err)
	}
	return string(body), nil
}
