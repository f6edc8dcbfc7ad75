package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/shelfmark/internal/engine"
	"github.com/mesh-intelligence/shelfmark/internal/membership"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

const dateLayout = "2006-01-02 15:04"

// errRejected reports that a removal was refused because another was running.
var errRejected = errors.New("another removal is in progress")

// render writes v as JSON or YAML, or calls text for the text format.
func (a *app) render(w io.Writer, v any, text func(io.Writer) error) error {
	switch a.output {
	case outputJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// result is the structured form of an engine outcome.
type result struct {
	Outcome string `json:"outcome" yaml:"outcome"`
	Message string `json:"message" yaml:"message"`
}

// report prints what an engine call did and turns the outcome into the
// command's error. applied is the message for a committed write.
func (a *app) report(w io.Writer, outcome engine.Outcome, err error, applied string) error {
	if outcome == engine.Failed {
		return err
	}
	msg := applied
	switch outcome {
	case engine.Noop:
		msg = "Nothing to change."
	case engine.Declined:
		msg = "Cancelled."
	case engine.Rejected:
		return errRejected
	}
	if rerr := a.render(w, result{Outcome: outcome.String(), Message: msg}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	}); rerr != nil {
		return rerr
	}
	// Applied with a refresh error: the write stuck but the view is stale.
	return err
}

func printBooks(w io.Writer, books []*types.Book) error {
	if len(books) == 0 {
		_, err := fmt.Fprintln(w, "No books.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tSTATUS\tRATING\tCATEGORIES")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.BookID, b.Title, b.Author, b.Status, ratingText(b), strings.Join(b.Categories, ","))
	}
	return tw.Flush()
}

func printBook(w io.Writer, b *types.Book) error {
	fmt.Fprintf(w, "ID:         %s\n", b.BookID)
	fmt.Fprintf(w, "Title:      %s\n", b.Title)
	fmt.Fprintf(w, "Author:     %s\n", b.Author)
	if b.Year != "" {
		fmt.Fprintf(w, "Year:       %s\n", b.Year)
	}
	fmt.Fprintf(w, "Status:     %s\n", membership.StatusTitle(b.Status))
	if r := ratingText(b); r != "" {
		fmt.Fprintf(w, "Rating:     %s\n", r)
	}
	fmt.Fprintf(w, "Categories: %s\n", strings.Join(b.Categories, ", "))
	fmt.Fprintf(w, "Public:     %t\n", b.IsPublic)
	fmt.Fprintf(w, "Added:      %s\n", b.AddedAt.Local().Format(dateLayout))
	if b.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", b.Summary)
	}
	if b.Review != "" {
		fmt.Fprintf(w, "\nReview:\n%s\n", b.Review)
	}
	return nil
}

func ratingText(b *types.Book) string {
	r := b.EffectiveRating()
	if r == 0 {
		return ""
	}
	return fmt.Sprintf("%g (%s)", r, types.RatingLabel(r))
}

func printShelves(w io.Writer, shelves []membership.Shelf) error {
	for _, s := range shelves {
		marker := "+"
		if s.Open {
			marker = "-"
		}
		fmt.Fprintf(w, "%s %s [%s] (%d)\n", marker, s.Title, s.Key, len(s.Books))
		if !s.Open {
			continue
		}
		for _, b := range s.Books {
			fmt.Fprintf(w, "    %s  %s by %s\n", b.BookID, b.Title, b.Author)
		}
	}
	return nil
}
