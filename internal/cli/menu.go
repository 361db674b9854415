// Package cli runs the numbered interactive menu over a line-based reader and
// writer.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviedb/internal/catalog"
	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/export"
	"github.com/Clark-Hu/moviedb/internal/logging"
	"github.com/Clark-Hu/moviedb/internal/omdb"
)

// Catalog is the set of operations the menu drives. *catalog.Service
// satisfies it.
type Catalog interface {
	List(ctx context.Context) (domain.Snapshot, error)
	Add(ctx context.Context, input string) (domain.Movie, error)
	Delete(ctx context.Context, input string) (string, error)
	UpdateNote(ctx context.Context, input, note string) (string, error)
	Stats(ctx context.Context) (catalog.Stats, error)
	Random(ctx context.Context) (domain.Movie, error)
	Search(ctx context.Context, query string) (domain.Snapshot, error)
	Sort(ctx context.Context, key catalog.SortKey, dir catalog.Direction) (domain.Snapshot, error)
	Histogram(ctx context.Context, path string) ([]catalog.Bin, error)
	Filter(ctx context.Context, opts catalog.FilterOptions) (domain.Snapshot, error)
	Export(ctx context.Context) (string, error)
}

var _ Catalog = (*catalog.Service)(nil)

const (
	choiceExit = 0
	choiceMax  = 11

	// maxLineBytes caps one input line; longer lines are discarded whole.
	maxLineBytes = 4096
)

type menuItem struct {
	label  string
	action func(context.Context) error
}

// Menu is one interactive session.
type Menu struct {
	catalog Catalog
	in      *bufio.Reader
	out     io.Writer
	styles  styles
	logger  zerolog.Logger
	items   map[int]menuItem
}

// New builds a menu reading choices from in and printing to out.
func New(c Catalog, in io.Reader, out io.Writer, logger zerolog.Logger) *Menu {
	m := &Menu{
		catalog: c,
		in:      bufio.NewReader(in),
		out:     out,
		styles:  newStyles(out),
		logger:  logging.WithComponent(logger, "cli"),
	}
	m.items = map[int]menuItem{
		1:  {"List movies", m.listMovies},
		2:  {"Add movie", m.addMovie},
		3:  {"Delete movie", m.deleteMovie},
		4:  {"Update movie note", m.updateNote},
		5:  {"Stats", m.stats},
		6:  {"Random movie", m.randomMovie},
		7:  {"Search movie", m.searchMovie},
		8:  {"Sort movies", m.sortMovies},
		9:  {"Create rating histogram", m.histogram},
		10: {"Filter movies", m.filterMovies},
		11: {"Generate website", m.generateWebsite},
	}
	return m
}

// Run loops until the user picks 0, the input ends or ctx is cancelled.
// Failed actions are reported and the loop continues.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printMenu()
		choice, err := m.readChoice()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if choice == choiceExit {
			m.println(m.styles.Header.Render("Bye!"))
			return nil
		}
		item, ok := m.items[choice]
		if !ok {
			m.println("\n" + m.styles.Error.Render(fmt.Sprintf("-- Invalid choice, please enter a number between %d and %d", choiceExit, choiceMax)))
			continue
		}

		if err := item.action(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			m.report(err)
		}
		if _, err := m.prompt("\nPress enter to continue"); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				return err
			}
		}
	}
}

func (m *Menu) printMenu() {
	var b strings.Builder
	b.WriteString("\n" + m.styles.Header.Render("********** My Movies Database **********") + "\n\n")
	b.WriteString("Menu:\n")
	b.WriteString("0. Exit\n")
	for i := 1; i <= choiceMax; i++ {
		fmt.Fprintf(&b, "%d. %s\n", i, m.items[i].label)
	}
	fmt.Fprint(m.out, b.String())
}

func (m *Menu) readChoice() (int, error) {
	for {
		raw, err := m.prompt(fmt.Sprintf("\nEnter choice (%d-%d): ", choiceExit, choiceMax))
		if err != nil && !errors.Is(err, domain.ErrInvalidInput) {
			return 0, err
		}
		if err == nil {
			if choice, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
				return choice, nil
			}
		}
		m.println("\n" + m.styles.Error.Render(fmt.Sprintf("-- Invalid input, please enter a number between %d and %d", choiceExit, choiceMax)))
	}
}

// prompt prints label and returns the next input line without its newline.
func (m *Menu) prompt(label string) (string, error) {
	text := strings.TrimLeft(label, "\n")
	lead := strings.Repeat("\n", len(label)-len(text))
	fmt.Fprint(m.out, lead+m.styles.Prompt.Render(text))
	return m.readLine()
}

// readLine returns the next line without its terminator. A final line with
// no newline is still returned; io.EOF follows it. Lines over maxLineBytes
// are consumed and rejected as invalid input.
func (m *Menu) readLine() (string, error) {
	var (
		line    []byte
		read    int
		tooLong bool
	)
	for {
		chunk, err := m.in.ReadSlice('\n')
		read += len(chunk)
		if !tooLong {
			if len(line)+len(chunk) > maxLineBytes+2 {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read input: %w", err)
		}
		if err != nil && read == 0 {
			return "", io.EOF
		}
		break
	}
	if tooLong {
		return "", domain.NewError(domain.ErrInvalidInput, "read input", "",
			fmt.Errorf("line exceeds %d bytes", maxLineBytes))
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

func (m *Menu) println(line string) {
	fmt.Fprintln(m.out, line)
}

func (m *Menu) printMovies(snap domain.Snapshot) {
	for _, movie := range snap {
		m.println(formatMovie(movie))
	}
}

// formatMovie renders the "Title (Year): Rating" line.
func formatMovie(movie domain.Movie) string {
	return fmt.Sprintf("%s (%d): %s", movie.Title, movie.Year, export.FormatRating(movie.Rating))
}

// report prints a user-facing message for err and keeps the session alive.
func (m *Menu) report(err error) {
	m.logger.Debug().Err(err).Msg("action failed")

	var title string
	var derr *domain.Error
	if errors.As(err, &derr) {
		title = derr.Title
	}

	var msg string
	switch domain.KindOf(err) {
	case domain.ErrInvalidInput:
		msg = "-- Invalid input"
	case domain.ErrDuplicateKey:
		msg = fmt.Sprintf("-- Movie %s already exists", title)
	case domain.ErrNotFound:
		msg = fmt.Sprintf("Movie %s doesn't exist!", title)
	case domain.ErrLookupFailure:
		if errors.Is(err, omdb.ErrUnreachable) {
			msg = "Please check your connection"
		} else {
			msg = "Invalid input or movie not found"
		}
	case domain.ErrEmptyCatalog:
		msg = "-- No movies in the database yet"
	case domain.ErrStorage:
		msg = fmt.Sprintf("-- Storage error: %v", err)
	default:
		msg = fmt.Sprintf("-- Unexpected error: %v", err)
	}
	m.println("\n" + m.styles.Error.Render(msg))
}

func (m *Menu) listMovies(ctx context.Context) error {
	snap, err := m.catalog.List(ctx)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("\n--- %d movies in total ---", len(snap)))
	m.printMovies(snap)
	return nil
}

func (m *Menu) addMovie(ctx context.Context) error {
	input, err := m.prompt("\nEnter new movie name: ")
	if err != nil {
		return err
	}
	movie, err := m.catalog.Add(ctx, input)
	if err != nil {
		return err
	}
	m.println("\n" + m.styles.Success.Render(fmt.Sprintf("Movie %s (%d) successfully added", movie.Title, movie.Year)))
	return nil
}

func (m *Menu) deleteMovie(ctx context.Context) error {
	input, err := m.prompt("\nEnter movie name to delete: ")
	if err != nil {
		return err
	}
	title, err := m.catalog.Delete(ctx, input)
	if err != nil {
		return err
	}
	m.println("\n" + m.styles.Success.Render(fmt.Sprintf("Movie %s successfully deleted", title)))
	return nil
}

func (m *Menu) updateNote(ctx context.Context) error {
	input, err := m.prompt("\nEnter movie name: ")
	if err != nil {
		return err
	}

	// Ask for the note only when the movie is there.
	title := catalog.NormalizeTitle(input)
	if title == "" {
		return domain.NewError(domain.ErrInvalidInput, "update note", "", nil)
	}
	snap, err := m.catalog.List(ctx)
	if err != nil {
		return err
	}
	if !snap.Contains(title) {
		return domain.NewError(domain.ErrNotFound, "update note", title, nil)
	}

	note, err := m.prompt("Enter movie note: ")
	if err != nil {
		return err
	}
	if _, err := m.catalog.UpdateNote(ctx, title, note); err != nil {
		return err
	}
	m.println("\n" + m.styles.Success.Render(fmt.Sprintf("Movie %s successfully updated", title)))
	return nil
}

func (m *Menu) stats(ctx context.Context) error {
	stats, err := m.catalog.Stats(ctx)
	if err != nil {
		return err
	}
	m.println(fmt.Sprintf("\nAverage rating: %s", export.FormatRating(stats.Mean)))
	m.println(fmt.Sprintf("Median rating: %s", export.FormatRating(stats.Median)))
	m.println(fmt.Sprintf("Best movie: %s (%d), %s", stats.Best.Title, stats.Best.Year, export.FormatRating(stats.Best.Rating)))
	m.println(fmt.Sprintf("Worst movie: %s (%d), %s", stats.Worst.Title, stats.Worst.Year, export.FormatRating(stats.Worst.Rating)))
	return nil
}

func (m *Menu) randomMovie(ctx context.Context) error {
	movie, err := m.catalog.Random(ctx)
	if err != nil {
		return err
	}
	m.println("\n" + formatMovie(movie))
	return nil
}

func (m *Menu) searchMovie(ctx context.Context) error {
	query, err := m.prompt("\nEnter part of movie name: ")
	if err != nil {
		return err
	}
	matches, err := m.catalog.Search(ctx, query)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		m.println(m.styles.Muted.Render("-- No matching movies"))
		return nil
	}
	m.printMovies(matches)
	return nil
}

func (m *Menu) sortMovies(ctx context.Context) error {
	raw, err := m.prompt("\nWould you like to sort by rating or by year? (r/y): ")
	if err != nil {
		return err
	}
	key, ok := catalog.ParseSortKey(raw)
	if !ok {
		return domain.NewError(domain.ErrInvalidInput, "sort", "", nil)
	}

	// Ratings always list best first; years ask for the direction.
	dir := catalog.Descending
	if key == catalog.SortByYear {
		raw, err := m.prompt("\nDo you want to see the latest movies first? (y/n): ")
		if err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "y", "yes":
			dir = catalog.Descending
		case "n", "no":
			dir = catalog.Ascending
		default:
			return domain.NewError(domain.ErrInvalidInput, "sort", "", nil)
		}
	}

	sorted, err := m.catalog.Sort(ctx, key, dir)
	if err != nil {
		return err
	}
	m.println("")
	m.printMovies(sorted)
	return nil
}

func (m *Menu) histogram(ctx context.Context) error {
	path, err := m.prompt("\nChoose file path to save histogram: ")
	if err != nil {
		return err
	}
	if _, err := m.catalog.Histogram(ctx, path); err != nil {
		return err
	}
	m.println("\n" + m.styles.Success.Render(fmt.Sprintf("Histogram saved to %s", strings.TrimSpace(path))))
	return nil
}

func (m *Menu) filterMovies(ctx context.Context) error {
	const op = "filter"
	var opts catalog.FilterOptions

	raw, err := m.prompt("\nEnter minimum rating (leave blank for no minimum rating): ")
	if err != nil {
		return err
	}
	if raw = strings.TrimSpace(raw); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.NewError(domain.ErrInvalidInput, op, "", err)
		}
		opts.MinRating = &v
	}

	for _, bound := range []struct {
		label string
		dst   **int
	}{
		{"Enter start year (leave blank for no start year): ", &opts.StartYear},
		{"Enter end year (leave blank for no end year): ", &opts.EndYear},
	} {
		raw, err := m.prompt(bound.label)
		if err != nil {
			return err
		}
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return domain.NewError(domain.ErrInvalidInput, op, "", err)
		}
		*bound.dst = &v
	}

	filtered, err := m.catalog.Filter(ctx, opts)
	if err != nil {
		return err
	}
	m.println("\n-----Filtered Movies-----\n")
	m.printMovies(filtered)
	return nil
}

func (m *Menu) generateWebsite(ctx context.Context) error {
	path, err := m.catalog.Export(ctx)
	if err != nil {
		return err
	}
	m.println("\n" + m.styles.Success.Render(fmt.Sprintf("Website was generated successfully: %s", path)))
	return nil
}
