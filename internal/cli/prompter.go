package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hollisfi/ledgerlens/internal/classify"
	"github.com/hollisfi/ledgerlens/internal/model"
)

// maxSampleLines caps how many matching transactions the batch summary
// prints before eliding the rest.
const maxSampleLines = 5

// Prompter drives interactive confirmation flows on a terminal.
type Prompter struct {
	writer io.Writer
	reader *LineReader
}

// NewPrompter creates a prompter over the given streams. Nil arguments
// default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewLineReader(reader),
		writer: writer,
	}
}

// Confirm asks a yes/no question. Empty input means no.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	choice, err := p.promptChoice(ctx, prompt+" [y/N]", []string{"y", "n", ""})
	if err != nil {
		return false, err
	}
	return choice == "y", nil
}

// ConfirmBatch presents transactions similar to one the user just
// classified and asks how to proceed. The returned candidates are the
// subset the user approved for the same lender.
func (p *Prompter) ConfirmBatch(ctx context.Context, lenderName string, cands classify.Candidates) (classify.Candidates, error) {
	total := len(cands.Credits) + len(cands.Debits)
	if total == 0 {
		return classify.Candidates{}, nil
	}

	content := p.formatBatchSummary(lenderName, cands)
	if _, err := fmt.Fprintln(p.writer, RenderBox("Similar Transactions", content)); err != nil {
		return classify.Candidates{}, fmt.Errorf("writing batch summary: %w", err)
	}

	fmt.Fprintf(p.writer, "  [A] Attribute all %d to %s\n", total, lenderName)
	fmt.Fprintln(p.writer, "  [R] Review each transaction")
	fmt.Fprintln(p.writer, "  [S] Skip all")
	fmt.Fprintln(p.writer)

	choice, err := p.promptChoice(ctx, "Choice [A/R/S]", []string{"a", "r", "s"})
	if err != nil {
		return classify.Candidates{}, err
	}

	switch choice {
	case "a":
		return cands, nil
	case "r":
		return p.reviewEach(ctx, lenderName, cands)
	default:
		return classify.Candidates{}, nil
	}
}

func (p *Prompter) reviewEach(ctx context.Context, lenderName string, cands classify.Candidates) (classify.Candidates, error) {
	var approved classify.Candidates

	review := func(txn *model.Transaction, role string) (bool, error) {
		fmt.Fprintf(p.writer, "\n%s  %s\n", SubtleStyle.Render(role), formatTransactionLine(txn))
		return p.Confirm(ctx, fmt.Sprintf("Attribute to %s?", lenderName))
	}

	for i := range cands.Credits {
		ok, err := review(&cands.Credits[i], "funding")
		if err != nil {
			return classify.Candidates{}, err
		}
		if ok {
			approved.Credits = append(approved.Credits, cands.Credits[i])
		}
	}
	for i := range cands.Debits {
		ok, err := review(&cands.Debits[i], "payment")
		if err != nil {
			return classify.Candidates{}, err
		}
		if ok {
			approved.Debits = append(approved.Debits, cands.Debits[i])
		}
	}
	return approved, nil
}

func (p *Prompter) formatBatchSummary(lenderName string, cands classify.Candidates) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lender: %s\n", BoldStyle.Render(lenderName))
	if n := len(cands.Debits); n > 0 {
		fmt.Fprintf(&b, "Payments (debits): %d\n", n)
	}
	if n := len(cands.Credits); n > 0 {
		fmt.Fprintf(&b, "Funding (credits): %d\n", n)
	}
	b.WriteString("\n")

	lines := 0
	sample := func(txns []model.Transaction) {
		for i := range txns {
			if lines >= maxSampleLines {
				return
			}
			b.WriteString(formatTransactionLine(&txns[i]) + "\n")
			lines++
		}
	}
	sample(cands.Debits)
	sample(cands.Credits)

	total := len(cands.Credits) + len(cands.Debits)
	if total > maxSampleLines {
		fmt.Fprintf(&b, "%s\n", SubtleStyle.Render(fmt.Sprintf("… and %d more", total-maxSampleLines)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTransactionLine(txn *model.Transaction) string {
	amount := fmt.Sprintf("%10.2f", txn.Amount)
	if txn.Type == model.TypeCredit {
		amount = CreditStyle.Render("+" + strings.TrimSpace(amount))
	} else {
		amount = DebitStyle.Render("-" + strings.TrimSpace(amount))
	}

	desc := txn.Description
	if len(desc) > 60 {
		desc = desc[:57] + "..."
	}
	return fmt.Sprintf("%s  %s  %s", txn.Date.Format("2006-01-02"), amount, desc)
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, valid []string) (string, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("writing prompt: %w", err)
		}

		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(strings.TrimSpace(line))
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}
		fmt.Fprintln(p.writer, FormatWarning(fmt.Sprintf("invalid choice %q", line)))
	}
}
